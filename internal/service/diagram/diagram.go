package diagram

import (
	"context"
	"fmt"
	"io"

	"github.com/kr/pretty"
)

// Renderer turns a diagram description into standalone SVG markup.
type Renderer interface {
	Render(ctx context.Context, id, code string) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(ctx context.Context, id, code string) (string, error)

// Render calls the function.
func (fn RendererFunc) Render(ctx context.Context, id, code string) (string, error) {
	return fn(ctx, id, code)
}

// ID generates the identifier of the diagram at the given position of the current update.
func ID(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}

type renderError struct {
	base error
	id   string
	code string
}

func (err renderError) Error() string {
	return fmt.Sprintf("fail to render the diagram '%s': %s", err.id, err.base.Error())
}

func (err renderError) Unwrap() error {
	return err.base
}

func (err renderError) PrettyPrint(w io.Writer) {
	pretty.Fprintf(w, "%# v\n", struct {
		ID    string
		Code  string
		Cause string
	}{err.id, err.code, err.base.Error()})
}

// NewError wraps a render failure with the diagram details.
func NewError(id, code string, base error) error {
	return renderError{base: base, id: id, code: code}
}
