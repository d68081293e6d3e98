package visual

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nitro/markdown-visual/internal/service"
	"nitro/markdown-visual/internal/service/diagram"
	"nitro/markdown-visual/internal/service/dom"
	"nitro/markdown-visual/internal/service/parser"
	"nitro/markdown-visual/internal/service/settings"
)

type navigatorMock struct {
	urls []string
}

func (n *navigatorMock) LaunchURL(url string) {
	n.urls = append(n.urls, url)
}

type eventServiceMock struct {
	started  int
	finished int
}

func (e *eventServiceMock) RenderingStarted(service.UpdateOptions) {
	e.started++
}

func (e *eventServiceMock) RenderingFinished(service.UpdateOptions) {
	e.finished++
}

type parserFunc func([]byte) []byte

func (fn parserFunc) Do(payload []byte) []byte {
	return fn(payload)
}

type fixture struct {
	visual    *Visual
	element   *dom.Element
	navigator *navigatorMock
	events    *eventServiceMock
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()

	element, err := dom.NewElement()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	f := fixture{element: element, navigator: &navigatorMock{}, events: &eventServiceMock{}, logs: logs}

	opts.Element = element
	opts.Navigator = f.navigator
	opts.EventService = f.events
	opts.Logger = zap.New(core)
	if opts.Parser == nil {
		p := parser.Markdown{}
		require.NoError(t, p.Init())
		opts.Parser = p
	}

	f.visual, err = New(opts)
	require.NoError(t, err)
	return f
}

func dataUpdate(value interface{}, objects service.DataViewObjects) service.UpdateOptions {
	return service.UpdateOptions{
		Type: service.UpdateTypeData,
		DataViews: []service.DataView{{
			Metadata: service.DataViewMetadata{Objects: objects},
			Single:   &service.DataViewSingle{Value: value},
		}},
	}
}

func (f fixture) inner(t *testing.T) string {
	t.Helper()
	inner, err := f.element.InnerHTML()
	require.NoError(t, err)
	return inner
}

func TestNew(t *testing.T) {
	t.Parallel()

	element, err := dom.NewElement()
	require.NoError(t, err)
	var p parser.Markdown
	require.NoError(t, p.Init())

	tests := []struct {
		message   string
		opts      Options
		shouldErr bool
	}{
		{
			message:   "have an error because of it's missing the element",
			opts:      Options{Navigator: &navigatorMock{}, Parser: p},
			shouldErr: true,
		},
		{
			message:   "have an error because of it's missing the navigator",
			opts:      Options{Element: element, Parser: p},
			shouldErr: true,
		},
		{
			message:   "have an error because of it's missing the parser",
			opts:      Options{Element: element, Navigator: &navigatorMock{}},
			shouldErr: true,
		},
		{
			message:   "have an error because of an invalid language",
			opts:      Options{Element: element, Navigator: &navigatorMock{}, Parser: p, Language: "a b"},
			shouldErr: true,
		},
		{
			message: "create the visual",
			opts:    Options{Element: element, Navigator: &navigatorMock{}, Parser: p},
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts)
			require.Equal(t, tt.shouldErr, (err != nil))
		})
	}
}

func TestVisualUpdate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	report := f.visual.Update(context.Background(), dataUpdate("# Title\n[link](http://x)", service.DataViewObjects{
		settings.CardName: {settings.FontSizeName: float64(20)},
	}))
	require.NoError(t, report.Err)
	require.True(t, report.Rendered)
	require.Equal(t, 1, report.Links)

	require.Equal(t, 1, f.element.Find("h1").Length())
	require.Equal(t, "20px", f.element.Style("font-size"))
	require.Equal(t, "Segoe UI", f.element.Style("font-family"))
	require.Equal(t, "#1F2328", f.element.Style("color"))
	require.Equal(t, "#ffffff", f.element.Style("background-color"))

	events := f.element.Click(f.element.Find("a"))
	require.Len(t, events, 1)
	require.True(t, events[0].DefaultPrevented())
	require.Equal(t, []string{"http://x"}, f.navigator.urls)

	require.Equal(t, 1, f.events.started)
	require.Equal(t, 1, f.events.finished)
}

func TestVisualUpdateWithoutData(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.visual.Update(context.Background(), dataUpdate("first", nil))
	before := f.inner(t)

	options := dataUpdate("second", service.DataViewObjects{settings.CardName: {settings.FontFamilyName: "Arial"}})
	options.Type = service.UpdateTypeResize
	report := f.visual.Update(context.Background(), options)

	require.False(t, report.Rendered)
	require.Equal(t, before, f.inner(t))
	require.Equal(t, "Arial", f.visual.Settings().Format.FontFamily.Value)
	require.Equal(t, "Segoe UI", f.element.Style("font-family"))
	require.Equal(t, 2, f.events.started)
	require.Equal(t, 2, f.events.finished)
}

func TestVisualUpdateNonStringValue(t *testing.T) {
	t.Parallel()

	values := []interface{}{nil, 42, 3.14, true, []string{"a"}}
	for _, value := range values {
		f := newFixture(t, Options{})
		f.visual.Update(context.Background(), dataUpdate("# Kept", nil))
		before := f.inner(t)

		report := f.visual.Update(context.Background(), dataUpdate(value, nil))
		require.False(t, report.Rendered)
		require.NoError(t, report.Err)
		require.Equal(t, before, f.inner(t))
		require.Equal(t, 2, f.events.finished)
	}

	f := newFixture(t, Options{})
	report := f.visual.Update(context.Background(), service.UpdateOptions{Type: service.UpdateTypeData})
	require.False(t, report.Rendered)
	require.Equal(t, "", f.inner(t))
	require.Equal(t, 1, f.events.started)
	require.Equal(t, 1, f.events.finished)
}

func TestVisualUpdateSanitize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{Renderer: diagram.RendererFunc(func(context.Context, string, string) (string, error) {
		return "<svg></svg>", nil
	})})
	report := f.visual.Update(context.Background(), dataUpdate("text\n\n<script>alert(1)</script>\n\n```go\nx := 1\n```", nil))
	require.NoError(t, report.Err)
	require.Empty(t, report.Diagrams)

	inner := f.inner(t)
	require.NotContains(t, inner, "<script")
	require.NotContains(t, inner, DiagramClass)
	require.Equal(t, 0, f.element.Find("svg").Length())
	require.Equal(t, 1, f.element.Find("pre > code.language-go").Length())
}

func TestVisualUpdateDiagrams(t *testing.T) {
	t.Parallel()

	var calls []string
	renderer := diagram.RendererFunc(func(_ context.Context, id, code string) (string, error) {
		calls = append(calls, id)
		if strings.Contains(code, "broken") {
			return "", errors.New("parse error")
		}
		return `<svg id="` + id + `"><text>` + strings.TrimSpace(code) + `</text></svg>`, nil
	})
	f := newFixture(t, Options{Renderer: renderer, Concurrency: 1})

	payload := strings.Join([]string{
		"```mermaid\ngraph A\n```",
		"```mermaid\nbroken\n```",
		"```mermaid\n\n```",
		"```mermaid\ngraph B\n```",
		"[after](http://after)",
	}, "\n\n")
	report := f.visual.Update(context.Background(), dataUpdate(payload, nil))
	require.NoError(t, report.Err)
	require.Len(t, report.Diagrams, 4)
	require.Equal(t, []string{"diagram-0", "diagram-1", "diagram-3"}, calls)
	require.True(t, report.Diagrams[2].Skipped)

	containers := f.element.Find("div." + DiagramClass)
	require.Equal(t, 2, containers.Length())
	require.Equal(t, 1, containers.Eq(0).Find("svg#diagram-0").Length())
	require.Equal(t, 1, containers.Eq(1).Find("svg#diagram-3").Length())

	remaining := f.element.Find("pre > code.language-mermaid")
	require.Equal(t, 2, remaining.Length())
	require.Equal(t, "broken\n", remaining.Eq(0).Text())

	require.Equal(t, 1, f.logs.FilterMessage("Fail to render the diagram").FilterField(zap.String("id", "diagram-1")).Len())

	f.element.Click(f.element.Find("a"))
	require.Equal(t, []string{"http://after"}, f.navigator.urls)
}

func TestVisualUpdateLinks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{Parser: parserFunc(func([]byte) []byte {
		return []byte(`<a id="no-href">a</a><a href="">b</a><a href="http://one">c</a><a href="#anchor">d</a>`)
	})})
	report := f.visual.Update(context.Background(), dataUpdate("ignored", nil))
	require.Equal(t, 4, report.Links)

	events := f.element.Click(f.element.Find("a"))
	require.Len(t, events, 4)
	for _, event := range events {
		require.True(t, event.DefaultPrevented())
	}
	require.Equal(t, []string{"http://one", "#anchor"}, f.navigator.urls)
}

func TestVisualUpdateReplaceContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.visual.Update(context.Background(), dataUpdate("[one](http://one)", nil))
	first := f.element.Find("a")

	f.visual.Update(context.Background(), dataUpdate("[two](http://two)", nil))
	f.element.Click(first)
	require.Empty(t, f.navigator.urls)

	f.element.Click(f.element.Find("a"))
	require.Equal(t, []string{"http://two"}, f.navigator.urls)
	require.NotContains(t, f.inner(t), "one")
}

func TestVisualUpdatePanic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{Parser: parserFunc(func([]byte) []byte {
		panic("boom")
	})})
	report := f.visual.Update(context.Background(), dataUpdate("# Title", nil))
	require.EqualError(t, report.Err, "panic during the update: boom")
	require.Equal(t, 1, f.events.started)
	require.Equal(t, 1, f.events.finished)
	require.Equal(t, 1, f.logs.FilterMessage("Fail to update the visual").Len())
}

func TestVisualUpdateRendererPanic(t *testing.T) {
	t.Parallel()

	renderer := diagram.RendererFunc(func(_ context.Context, id, code string) (string, error) {
		if strings.TrimSpace(code) == "boom" {
			panic("renderer exploded")
		}
		return `<svg id="` + id + `"></svg>`, nil
	})
	f := newFixture(t, Options{Renderer: renderer})

	payload := "```mermaid\nboom\n```\n\n```mermaid\ngraph A\n```\n\n[after](http://after)"
	report := f.visual.Update(context.Background(), dataUpdate(payload, nil))
	require.NoError(t, report.Err)
	require.Len(t, report.Diagrams, 2)
	require.Error(t, report.Diagrams[0].Err)
	require.NoError(t, report.Diagrams[1].Err)

	require.Equal(t, 1, f.element.Find("div."+DiagramClass+" svg#diagram-1").Length())
	remaining := f.element.Find("pre > code.language-mermaid")
	require.Equal(t, 1, remaining.Length())
	require.Equal(t, "boom\n", remaining.Text())
	require.Equal(t, 1, f.logs.FilterMessage("Fail to render the diagram").FilterField(zap.String("id", "diagram-0")).Len())

	f.element.Click(f.element.Find("a"))
	require.Equal(t, []string{"http://after"}, f.navigator.urls)
	require.Equal(t, 1, f.events.started)
	require.Equal(t, 1, f.events.finished)
}

func TestVisualUpdateStyleInjection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	report := f.visual.Update(context.Background(), dataUpdate("text", service.DataViewObjects{
		settings.CardName: {
			settings.FontFamilyName:      "Arial; position: fixed; background-image: url(http://evil/)",
			settings.FontColorName:       "red; position: fixed",
			settings.BackgroundColorName: map[string]interface{}{"solid": map[string]interface{}{"color": "#000}"}},
		},
	}))
	require.NoError(t, report.Err)

	outer, err := f.element.OuterHTML()
	require.NoError(t, err)
	require.NotContains(t, outer, "position")
	require.NotContains(t, outer, "evil")
	require.Equal(t, "Segoe UI", f.element.Style("font-family"))
	require.Equal(t, "#1F2328", f.element.Style("color"))
	require.Equal(t, "#ffffff", f.element.Style("background-color"))
}

func TestVisualFormattingModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{Defaults: settings.Defaults{FontSize: 12}})
	require.Equal(t, float64(12), f.visual.FormattingModel().Cards[0].Groups[0].Slices[0].Control.Properties.Value)

	f.visual.Update(context.Background(), dataUpdate("x", service.DataViewObjects{
		settings.CardName: {settings.FontSizeName: float64(18)},
	}))
	require.Equal(t, float64(18), f.visual.FormattingModel().Cards[0].Groups[0].Slices[0].Control.Properties.Value)
}
