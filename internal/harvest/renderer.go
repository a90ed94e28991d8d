package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const renderStableDur = 500 * time.Millisecond

// blockedResourceTypes lists network resource types the renderer skips
// to save bandwidth, memory, and speed up page loads.
var blockedResourceTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeStylesheet,
	proto.NetworkResourceTypeMedia,
}

// RendererConfig tunes the headless browser.
type RendererConfig struct {
	// MaxTabs caps the number of pages rendered concurrently.
	MaxTabs int
	// RenderTimeout bounds a single page render.
	RenderTimeout time.Duration
	// BrowserURL, when set, connects to a remote Chromium DevTools endpoint
	// instead of launching a local process.
	BrowserURL string
}

// RodRenderer renders JavaScript-heavy pages via a headless Chromium instance
// managed by Rod. Create with NewRodRenderer; call Close when done.
type RodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
	tabSem  chan struct{}
}

// NewRodRenderer connects to the configured remote browser, or launches a
// headless Chromium process via Rod's launcher when none is configured.
func NewRodRenderer(cfg RendererConfig) (*RodRenderer, error) {
	controlURL := cfg.BrowserURL
	if controlURL == "" {
		u, err := launcher.New().
			Headless(true).
			Set("disable-gpu").
			Set("no-sandbox").
			Set("disable-dev-shm-usage").
			Launch()
		if err != nil {
			return nil, fmt.Errorf("launch headless browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to headless browser: %w", err)
	}

	maxTabs := cfg.MaxTabs
	if maxTabs <= 0 {
		maxTabs = 4
	}
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &RodRenderer{
		browser: browser,
		timeout: timeout,
		tabSem:  make(chan struct{}, maxTabs),
	}, nil
}

// Render navigates to pageURL, waits for JS to execute and the DOM to
// stabilize, then returns the rendered HTML.
func (r *RodRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	select {
	case r.tabSem <- struct{}{}:
		defer func() { <-r.tabSem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	page, err := stealth.Page(r.browser)
	if err != nil {
		return "", fmt.Errorf("create tab: %w", err)
	}
	defer page.Close()

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	page = page.Context(renderCtx)

	// Block unnecessary resources (images, fonts, CSS, media)
	router := page.HijackRequests()
	for _, rt := range blockedResourceTypes {
		rt := rt
		_ = router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
	defer router.MustStop()

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", pageURL, err)
	}

	// WaitStable waits until the page DOM stops changing for the given
	// duration, which covers the lazy-loaded listing grids.
	_ = page.WaitStable(renderStableDur)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("get HTML from %s: %w", pageURL, err)
	}

	return html, nil
}

// Close shuts down the headless browser process.
func (r *RodRenderer) Close() {
	_ = r.browser.Close()
}
