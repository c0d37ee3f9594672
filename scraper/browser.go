package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"telecom-scraper/config"
	"telecom-scraper/utils"
)

// Renderer returns the rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Browser renders provider pages in one shared headless Chrome. Tabs are
// opened per page, so concurrent use is possible but the pipeline renders one
// page at a time.
type Browser struct {
	logger  *utils.Logger
	timeout time.Duration
	wait    time.Duration

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowser prepares a headless Chrome allocator. Chrome itself is started
// lazily by the first Render.
func NewBrowser(cfg *config.Config, logger *utils.Logger) *Browser {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Browser{
		logger:        logger,
		timeout:       time.Duration(cfg.PageTimeoutSec) * time.Second,
		wait:          time.Duration(cfg.RenderWaitMs) * time.Millisecond,
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}
}

// Render opens pageURL in a new tab, waits for client-side rendering and
// returns the document's outer HTML.
func (b *Browser) Render(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(b.wait),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	b.logger.Debug("[browser] Rendered %s (%d bytes)", pageURL, len(html))
	return html, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}

func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
