package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"

	"nitro/markdown-visual/internal/service"
	"nitro/markdown-visual/internal/service/diagram"
	"nitro/markdown-visual/internal/service/dom"
	"nitro/markdown-visual/internal/service/parser"
	"nitro/markdown-visual/internal/service/provider"
	"nitro/markdown-visual/internal/service/settings"
	"nitro/markdown-visual/internal/service/visual"
	"nitro/markdown-visual/internal/service/worker"
)

// Diagram renderers.
const (
	RendererBrowser = "browser"
	RendererNone    = "none"
)

type clientProvider interface {
	Authority(uri string) bool
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type clientRenderer interface {
	worker.Renderer
	Close() error
}

// ClientProviderGithub holds the configuration for the GitHub provider.
type ClientProviderGithub struct {
	Token string
	Owner string
}

// ClientProviderWeb holds the configuration for the web provider.
type ClientProviderWeb struct {
	Config          http.Header
	ConfigOverwrite map[string]http.Header
}

// ClientProvider holds the configuration for the providers.
type ClientProvider struct {
	Github []ClientProviderGithub
	Web    ClientProviderWeb
}

// ClientDiagram holds the configuration for the diagram rendering.
type ClientDiagram struct {
	Renderer    string
	Language    string
	Prefix      string
	Script      string
	Bin         string
	NoSandbox   bool
	Timeout     time.Duration
	Concurrency int
}

// ClientOutput holds the destinations of the execution.
type ClientOutput struct {
	// Document receives the rendered markup, or the formatting model.
	Document io.Writer
	// Report receives the execution summary.
	Report io.Writer

	Standalone      bool
	FormattingModel bool
	Click           bool
}

// Client is responsible to bootstrap the application.
type Client struct {
	Source       string
	Flavor       string
	Settings     settings.Defaults
	Objects      service.DataViewObjects
	Localization map[string]string
	Diagram      ClientDiagram
	Provider     ClientProvider
	Output       ClientOutput
	Logger       *zap.Logger

	parser    parser.Markdown
	providers []clientProvider
	renderer  clientRenderer
}

// Run starts the application execution. It reports if any diagram failed to render.
func (c Client) Run(ctx context.Context) (bool, error) {
	if err := c.init(); err != nil {
		return false, fmt.Errorf("fail during init: %w", err)
	}
	if c.renderer != nil {
		defer c.renderer.Close()
	}

	payload, err := c.fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("fail to fetch the source: %w", err)
	}

	element, err := dom.NewElement()
	if err != nil {
		return false, fmt.Errorf("fail to create the container: %w", err)
	}

	navigator := &clientNavigator{}
	v, err := visual.New(visual.Options{
		Element:      element,
		Navigator:    navigator,
		Localizer:    clientLocalizer(c.Localization),
		EventService: &clientEventService{logger: c.Logger},
		Logger:       c.Logger,
		Parser:       c.parser,
		Renderer:     c.renderer,
		Language:     c.Diagram.Language,
		Prefix:       c.Diagram.Prefix,
		Concurrency:  c.Diagram.Concurrency,
		Defaults:     c.Settings,
	})
	if err != nil {
		return false, fmt.Errorf("fail to create the visual: %w", err)
	}

	report := v.Update(ctx, service.UpdateOptions{
		Type: service.UpdateTypeAll,
		DataViews: []service.DataView{{
			Metadata: service.DataViewMetadata{Objects: c.Objects},
			Single:   &service.DataViewSingle{Value: string(payload)},
		}},
	})
	if report.Err != nil {
		return false, fmt.Errorf("fail to update the visual: %w", report.Err)
	}

	if c.Output.Click {
		element.Click(element.Find("a"))
	}

	if err := c.write(v, element); err != nil {
		return false, fmt.Errorf("fail to write the output: %w", err)
	}

	return c.output(report, navigator.urls), nil
}

func (c *Client) init() error {
	if c.Source == "" {
		return errors.New("missing 'source'")
	}
	if c.Output.Document == nil {
		return errors.New("missing 'output.document'")
	}
	if c.Output.Report == nil {
		c.Output.Report = io.Discard
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	for _, github := range c.Provider.Github {
		client := provider.GitHub{
			Token:      github.Token,
			Owner:      github.Owner,
			HTTPClient: http.DefaultClient,
		}
		if err := client.Init(); err != nil {
			return fmt.Errorf("fail to initialize the GitHub provider: %w", err)
		}
		c.providers = append(c.providers, client)
	}

	webConfigOverwrites := make(map[string]provider.WebConfig, len(c.Provider.Web.ConfigOverwrite))
	for key, value := range c.Provider.Web.ConfigOverwrite {
		webConfigOverwrites[key] = provider.WebConfig{Header: value}
	}
	w := provider.Web{
		Config:          provider.WebConfig{Header: c.Provider.Web.Config},
		ConfigOverwrite: webConfigOverwrites,
	}
	if err := w.Init(); err != nil {
		return fmt.Errorf("fail to initialize the web provider: %w", err)
	}
	c.providers = append(c.providers, w)

	var f provider.File
	if err := f.Init(); err != nil {
		return fmt.Errorf("fail to initialize the file provider: %w", err)
	}
	c.providers = append(c.providers, f)

	c.parser = parser.Markdown{Flavor: c.Flavor}
	if err := c.parser.Init(); err != nil {
		return fmt.Errorf("fail to initialize the parser: %w", err)
	}

	switch c.Diagram.Renderer {
	case "", RendererNone:
	case RendererBrowser:
		b := &diagram.Browser{
			Script:    c.Diagram.Script,
			Timeout:   c.Diagram.Timeout,
			Bin:       c.Diagram.Bin,
			NoSandbox: c.Diagram.NoSandbox,
		}
		if err := b.Init(); err != nil {
			return fmt.Errorf("fail to initialize the browser renderer: %w", err)
		}
		c.renderer = b
	default:
		return fmt.Errorf("unknown diagram renderer '%s'", c.Diagram.Renderer)
	}

	return nil
}

func (c Client) fetch(ctx context.Context) ([]byte, error) {
	for _, p := range c.providers {
		if !p.Authority(c.Source) {
			continue
		}
		return p.Fetch(ctx, c.Source)
	}
	return nil, fmt.Errorf("no provider for '%s'", c.Source)
}

func (c Client) write(v *visual.Visual, element *dom.Element) error {
	if c.Output.FormattingModel {
		encoder := json.NewEncoder(c.Output.Document)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v.FormattingModel())
	}

	markup, err := element.OuterHTML()
	if err != nil {
		return fmt.Errorf("fail to serialize the container: %w", err)
	}
	if c.Output.Standalone {
		markup = fmt.Sprintf(standaloneTemplate, visual.Stylesheet, markup)
	}
	_, err = fmt.Fprintln(c.Output.Document, markup)
	return err
}

func (c Client) output(report visual.Report, urls []string) bool {
	out := c.Output.Report

	fmt.Fprintf(out, "%s %d links, %d diagrams\n", aurora.Bold("Rendered"), report.Links, len(report.Diagrams))
	for _, url := range urls {
		fmt.Fprintf(out, "%s %s\n", aurora.Bold(aurora.Gray(24, "-")), url)
	}

	failures := worker.Failures(report.Diagrams)
	if failures == nil {
		return false
	}

	for _, result := range report.Diagrams {
		if result.Err == nil {
			continue
		}
		fmt.Fprintf(out, "The diagram '%s' failed because of:\n", aurora.Bold(result.ID))
		if e, ok := result.Err.(service.EnhancedError); ok {
			e.PrettyPrint(out)
		} else {
			fmt.Fprintln(out, result.Err.Error())
		}
	}
	fmt.Fprintf(out, "\n%s\n", aurora.Red(failures.Error()))
	return true
}

const standaloneTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
%s</style>
</head>
<body>
%s
</body>
</html>`

type clientNavigator struct {
	urls []string
}

func (n *clientNavigator) LaunchURL(url string) {
	n.urls = append(n.urls, url)
}

type clientLocalizer map[string]string

func (l clientLocalizer) GetDisplayName(key string) string {
	if value, ok := l[key]; ok {
		return value
	}
	return l[strings.ToLower(key)]
}

type clientEventService struct {
	logger  *zap.Logger
	started time.Time
}

func (e *clientEventService) RenderingStarted(options service.UpdateOptions) {
	e.started = time.Now()
	e.logger.Debug("Rendering started", zap.Int("type", int(options.Type)))
}

func (e *clientEventService) RenderingFinished(options service.UpdateOptions) {
	e.logger.Debug(
		"Rendering finished", zap.Int("type", int(options.Type)), zap.Duration("duration", time.Since(e.started)),
	)
}
