package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightDriver adapts playwright-go to the Driver capability set. This is
// the default engine: `npx playwright run-server` speaks its wire protocol
// natively.
type playwrightDriver struct {
	pw *playwright.Playwright
}

func newPlaywrightDriver() (Driver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}
	return &playwrightDriver{pw: pw}, nil
}

func (d *playwrightDriver) Connect(endpoint string) (Browser, error) {
	b, err := d.pw.Chromium.Connect(endpoint)
	if err != nil {
		return nil, err
	}
	return &playwrightBrowser{b: b}, nil
}

func (d *playwrightDriver) Stop() error {
	return d.pw.Stop()
}

type playwrightBrowser struct {
	b playwright.Browser
}

func (pb *playwrightBrowser) Contexts() []BrowserContext {
	raw := pb.b.Contexts()
	ctxs := make([]BrowserContext, 0, len(raw))
	for _, c := range raw {
		ctxs = append(ctxs, &playwrightContext{c: c})
	}
	return ctxs
}

func (pb *playwrightBrowser) NewContext() (BrowserContext, error) {
	c, err := pb.b.NewContext()
	if err != nil {
		return nil, err
	}
	return &playwrightContext{c: c}, nil
}

func (pb *playwrightBrowser) IsConnected() bool {
	return pb.b.IsConnected()
}

func (pb *playwrightBrowser) Close() error {
	return pb.b.Close()
}

type playwrightContext struct {
	c playwright.BrowserContext
}

func (pc *playwrightContext) Pages() []Page {
	raw := pc.c.Pages()
	pages := make([]Page, 0, len(raw))
	for _, p := range raw {
		pages = append(pages, &playwrightPage{p: p})
	}
	return pages
}

func (pc *playwrightContext) NewPage() (Page, error) {
	p, err := pc.c.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{p: p}, nil
}

type playwrightPage struct {
	p playwright.Page
}

func (pp *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := pp.p.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (pp *playwrightPage) InnerText(selector string, timeout time.Duration) (string, error) {
	return pp.p.InnerText(selector, playwright.PageInnerTextOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (pp *playwrightPage) WaitForLoadState(timeout time.Duration) error {
	return pp.p.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}
