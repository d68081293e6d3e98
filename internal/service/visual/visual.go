package visual

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"nitro/markdown-visual/internal/service"
	"nitro/markdown-visual/internal/service/dom"
	"nitro/markdown-visual/internal/service/scan"
	"nitro/markdown-visual/internal/service/settings"
	"nitro/markdown-visual/internal/service/worker"
)

// DiagramClass is the class of the element wrapping a rendered diagram.
const DiagramClass = "diagram-container"

type visualParser interface {
	Do(payload []byte) []byte
}

type nopEventService struct{}

func (nopEventService) RenderingStarted(service.UpdateOptions)  {}
func (nopEventService) RenderingFinished(service.UpdateOptions) {}

// Options to construct the visual.
type Options struct {
	Element      *dom.Element
	Navigator    service.Navigator
	Localizer    service.Localizer
	EventService service.EventService
	Logger       *zap.Logger
	Parser       visualParser

	// Renderer is optional, without it the diagram blocks are kept as code blocks.
	Renderer    worker.Renderer
	Language    string
	Prefix      string
	Concurrency int
	Defaults    settings.Defaults
}

// Report describes the outcome of an update.
type Report struct {
	Rendered bool
	Diagrams []worker.Result
	Links    int
	Err      error
}

// Visual renders a markdown value into the container.
type Visual struct {
	element   *dom.Element
	navigator service.Navigator
	localizer service.Localizer
	events    service.EventService
	logger    *zap.Logger
	parser    visualParser
	scan      scan.Scan
	worker    worker.Worker

	defaults settings.Model
	settings settings.Model
}

// New creates the visual.
func New(opts Options) (*Visual, error) {
	if opts.Element == nil {
		return nil, errors.New("missing 'element'")
	}
	if opts.Navigator == nil {
		return nil, errors.New("missing 'navigator'")
	}
	if opts.Parser == nil {
		return nil, errors.New("missing 'parser'")
	}
	if opts.EventService == nil {
		opts.EventService = nopEventService{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := scan.Scan{Language: opts.Language}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("fail to initialize the scan service: %w", err)
	}

	defaults := settings.New().WithDefaults(opts.Defaults)
	return &Visual{
		element:   opts.Element,
		navigator: opts.Navigator,
		localizer: opts.Localizer,
		events:    opts.EventService,
		logger:    opts.Logger,
		parser:    opts.Parser,
		scan:      s,
		worker: worker.Worker{
			Renderer:    opts.Renderer,
			Prefix:      opts.Prefix,
			Concurrency: opts.Concurrency,
		},
		defaults: defaults,
		settings: defaults,
	}, nil
}

// Update the visual. The host is notified when the rendering starts and finishes, whatever the outcome.
func (v *Visual) Update(ctx context.Context, options service.UpdateOptions) (report Report) {
	v.events.RenderingStarted(options)
	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("panic during the update: %v", r)
			v.logger.Error("Fail to update the visual", zap.Any("panic", r))
		}
		v.events.RenderingFinished(options)
	}()

	v.settings = v.defaults.Populate(options.DataViews)
	if !options.Type.Has(service.UpdateTypeData) {
		return report
	}

	value, _ := options.SingleValue()
	text, ok := value.(string)
	if !ok {
		v.logger.Debug("Ignoring the update, the value is not a string", zap.String("type", fmt.Sprintf("%T", value)))
		return report
	}

	if err := v.render(ctx, text, &report); err != nil {
		report.Err = err
		v.logger.Error("Fail to update the visual", zap.Error(err))
	}
	return report
}

// FormattingModel returns the property pane model with the current settings.
func (v *Visual) FormattingModel() settings.FormattingModel {
	return v.settings.FormattingModel(v.localizer)
}

// Settings returns the current settings.
func (v *Visual) Settings() settings.Model {
	return v.settings
}

func (v *Visual) render(ctx context.Context, text string, report *Report) error {
	for _, declaration := range v.settings.Style() {
		v.element.SetStyle(declaration[0], declaration[1])
	}

	v.element.SetInnerHTML(string(v.parser.Do([]byte(text))))
	report.Rendered = true

	if v.worker.Renderer != nil {
		results, err := v.renderDiagrams(ctx)
		if err != nil {
			return fmt.Errorf("fail to render the diagrams: %w", err)
		}
		report.Diagrams = results
	}

	report.Links = v.rewireLinks()
	return nil
}

func (v *Visual) renderDiagrams(ctx context.Context) ([]worker.Result, error) {
	blocks, err := v.scan.Diagrams(v.element)
	if err != nil {
		return nil, fmt.Errorf("fail to scan the diagrams: %w", err)
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	results, err := v.worker.Process(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("fail to process the diagrams: %w", err)
	}

	for _, result := range results {
		switch {
		case result.Skipped:
			v.logger.Debug("Skipping empty diagram", zap.String("id", result.ID))
		case result.Err != nil:
			v.logger.Warn("Fail to render the diagram", zap.String("id", result.ID), zap.Error(result.Err))
		default:
			result.Block.Pre.ReplaceWithHtml(fmt.Sprintf(`<div class="%s">%s</div>`, DiagramClass, result.SVG))
		}
	}
	return results, nil
}

// rewireLinks makes the anchors navigate through the host instead of the default navigation.
func (v *Visual) rewireLinks() int {
	links := v.scan.Links(v.element)
	links.Each(func(_ int, selection *goquery.Selection) {
		v.element.AddEventListener(selection.Nodes[0], "click", func(event *dom.Event) {
			event.PreventDefault()
			href, ok := selection.Attr("href")
			if !ok || href == "" {
				return
			}
			v.navigator.LaunchURL(href)
		})
	})
	return links.Length()
}
