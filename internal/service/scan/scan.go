package scan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultLanguage is the code block language tag of diagram blocks.
const DefaultLanguage = "mermaid"

type scanContainer interface {
	Find(selector string) *goquery.Selection
}

// Block is a diagram code block found at the rendered content.
type Block struct {
	Index int
	Code  string
	Pre   *goquery.Selection
}

// Empty reports if the block has nothing to render.
func (b Block) Empty() bool {
	return strings.TrimSpace(b.Code) == ""
}

// Scan is responsible for locating the diagram blocks and the links at the rendered content.
type Scan struct {
	Language string

	selector string
}

// Init the internal state.
func (s *Scan) Init() error {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}

	expr := `^[a-zA-Z0-9_-]+$`
	regex, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("fail to compile regex '%s': %w", expr, err)
	}
	if !regex.MatchString(s.Language) {
		return fmt.Errorf("invalid language '%s'", s.Language)
	}

	s.selector = fmt.Sprintf("pre > code.language-%s", s.Language)
	return nil
}

// Diagrams returns the diagram blocks in document order.
func (s Scan) Diagrams(container scanContainer) ([]Block, error) {
	if s.selector == "" {
		return nil, errors.New("scan not initialized")
	}

	var blocks []Block
	container.Find(s.selector).Each(func(i int, selection *goquery.Selection) {
		blocks = append(blocks, Block{
			Index: i,
			Code:  selection.Text(),
			Pre:   selection.Parent(),
		})
	})
	return blocks, nil
}

// Links returns every anchor at the container.
func (Scan) Links(container scanContainer) *goquery.Selection {
	return container.Find("a")
}
