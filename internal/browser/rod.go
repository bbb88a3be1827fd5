package browser

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodDriver adapts go-rod to the Driver capability set for servers that
// expose a plain CDP debugger URL instead of the playwright wire protocol.
type rodDriver struct{}

func newRodDriver() Driver {
	return &rodDriver{}
}

func (d *rodDriver) Connect(endpoint string) (Browser, error) {
	b := rod.New().ControlURL(endpoint)
	if err := b.Connect(); err != nil {
		return nil, err
	}
	return &rodBrowser{b: b}, nil
}

// Stop is a no-op: rod holds no process of its own, connections are closed
// per-browser.
func (d *rodDriver) Stop() error {
	return nil
}

type rodBrowser struct {
	b *rod.Browser
}

// Contexts exposes the browser's default context. CDP does not enumerate
// contexts the way the playwright protocol does, so the default context is
// the browser itself and NewContext opens an incognito one.
func (rb *rodBrowser) Contexts() []BrowserContext {
	return []BrowserContext{&rodContext{b: rb.b}}
}

func (rb *rodBrowser) NewContext() (BrowserContext, error) {
	inc, err := rb.b.Incognito()
	if err != nil {
		return nil, err
	}
	return &rodContext{b: inc}, nil
}

// IsConnected probes the connection with a Version call.
func (rb *rodBrowser) IsConnected() bool {
	_, err := rb.b.Version()
	return err == nil
}

func (rb *rodBrowser) Close() error {
	return rb.b.Close()
}

type rodContext struct {
	b *rod.Browser
}

func (rc *rodContext) Pages() []Page {
	raw, err := rc.b.Pages()
	if err != nil {
		return nil
	}
	pages := make([]Page, 0, len(raw))
	for _, p := range raw {
		pages = append(pages, &rodPage{p: p})
	}
	return pages
}

func (rc *rodContext) NewPage() (Page, error) {
	p, err := rc.b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	return &rodPage{p: p}, nil
}

type rodPage struct {
	p *rod.Page
}

func (rp *rodPage) Goto(url string, timeout time.Duration) error {
	if err := rp.p.Timeout(timeout).Navigate(url); err != nil {
		return err
	}
	return rp.p.Timeout(timeout).WaitLoad()
}

func (rp *rodPage) InnerText(selector string, timeout time.Duration) (string, error) {
	el, err := rp.p.Timeout(timeout).Element(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (rp *rodPage) WaitForLoadState(timeout time.Duration) error {
	return rp.p.Timeout(timeout).WaitLoad()
}
