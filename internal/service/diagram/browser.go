package diagram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultScript is the mermaid bundle loaded by the browser renderer.
const DefaultScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

const renderScript = `async (id, code) => {
	if (!window.__diagramInitialized) {
		mermaid.initialize({ startOnLoad: false, securityLevel: "strict" });
		window.__diagramInitialized = true;
	}
	const { svg } = await mermaid.render(id, code);
	return svg;
}`

// Browser renders mermaid diagrams at a headless Chromium. The browser is launched at the first render.
type Browser struct {
	Script    string
	Timeout   time.Duration
	Bin       string
	NoSandbox bool

	mutex   sync.Mutex
	browser *rod.Browser
}

// Init internal state.
func (b *Browser) Init() error {
	if b.Script == "" {
		b.Script = DefaultScript
	}
	if b.Timeout < 0 {
		return errors.New("invalid 'timeout'")
	}
	if b.Timeout == 0 {
		b.Timeout = 30 * time.Second
	}
	return nil
}

// Render the diagram. Every render happens at its own page, so renders can run concurrently.
func (b *Browser) Render(ctx context.Context, id, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewError(id, code, err)
	}

	browser, err := b.ensureBrowser()
	if err != nil {
		return "", NewError(id, code, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", NewError(id, code, fmt.Errorf("fail to create the page: %w", err))
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(b.Timeout)
	if err := page.AddScriptTag(b.Script, ""); err != nil {
		return "", NewError(id, code, fmt.Errorf("fail to load the script '%s': %w", b.Script, err))
	}

	result, err := page.Eval(renderScript, id, code)
	if err != nil {
		return "", NewError(id, code, fmt.Errorf("fail to evaluate the diagram: %w", err))
	}
	svg := result.Value.Str()
	if svg == "" {
		return "", NewError(id, code, errors.New("empty diagram output"))
	}
	return svg, nil
}

// Close releases the browser.
func (b *Browser) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

func (b *Browser) ensureBrowser() (*rod.Browser, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New()
	if b.Bin != "" {
		l = l.Bin(b.Bin)
	}
	if b.NoSandbox {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("fail to launch the browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("fail to connect to the browser: %w", err)
	}
	b.browser = browser
	return browser, nil
}
