package browser

import "time"

// Driver is the capability set we need from an automation library. Both
// engines (playwright-go and rod) satisfy it; everything above this file is
// engine-agnostic. Driver handles are bound to the OS thread that created
// them, so a Driver and everything reached through it may only be touched by
// the owner thread.
type Driver interface {
	// Connect attaches to a remote browser at a ws:// endpoint.
	Connect(endpoint string) (Browser, error)
	// Stop tears the driver down. The Driver is unusable afterwards.
	Stop() error
}

// Browser is a live connection to a browser instance.
type Browser interface {
	Contexts() []BrowserContext
	NewContext() (BrowserContext, error)
	IsConnected() bool
	Close() error
}

// BrowserContext is an isolated page group within a browser.
type BrowserContext interface {
	Pages() []Page
	NewPage() (Page, error)
}

// Page is a single tab. Goto waits only for DOM-ready, not network idle, so a
// chatty page cannot wedge the owner thread.
type Page interface {
	Goto(url string, timeout time.Duration) error
	InnerText(selector string, timeout time.Duration) (string, error)
	WaitForLoadState(timeout time.Duration) error
}

// openDriver starts the engine selected in config.
func openDriver(engine string) (Driver, error) {
	if engine == "rod" {
		return newRodDriver(), nil
	}
	return newPlaywrightDriver()
}
