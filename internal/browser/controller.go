package browser

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"playchat/internal/config"
	"playchat/internal/script"

	"github.com/google/uuid"
)

const ownerJoinTimeout = 5 * time.Second

// session is the mutable automation state for one controller. It is touched
// only by operations executing on the owner thread; the recovery path in
// ensureWorker is the lone exception, and it runs only once the previous
// owner is provably dead.
type session struct {
	id       string
	server   *serverProcess
	driver   Driver
	browser  Browser
	page     Page
	endpoint string
	commands []string
}

// Controller owns the browser-automation session and the single owner thread
// that is allowed to touch its live handles. All public operations route
// through the dispatch gate, so they may be called from any goroutine;
// sequential calls execute in submission order.
type Controller struct {
	cfg       config.BrowserConfig
	newDriver func(engine string) (Driver, error)

	mu      sync.Mutex // guards worker lifecycle, never held during operations
	worker  *worker
	session session
}

// NewController builds a controller. No owner thread is started until the
// first operation runs.
func NewController(cfg config.BrowserConfig) *Controller {
	return &Controller{cfg: cfg, newDriver: openDriver}
}

// NewControllerWithDriver injects a driver factory; tests use it to run the
// full lifecycle against a fake engine.
func NewControllerWithDriver(cfg config.BrowserConfig, factory func(engine string) (Driver, error)) *Controller {
	return &Controller{cfg: cfg, newDriver: factory}
}

// ensureWorker lazily starts the owner thread, replacing a dead one. Handles
// created on a dead thread are unusable, so recovery discards the driver,
// browser and page before the fresh owner takes over; the server process and
// command log survive.
func (c *Controller) ensureWorker() *worker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.worker != nil && c.worker.alive() {
		return c.worker
	}
	if c.worker != nil {
		log.Printf("owner thread died, starting a fresh one")
		c.session.driver = nil
		c.session.browser = nil
		c.session.page = nil
	}
	c.worker = startWorker()
	return c.worker
}

// run routes an operation through the dispatch gate.
func (c *Controller) run(ctx context.Context, op func() (string, error)) (string, error) {
	return c.ensureWorker().run(ctx, op)
}

// LaunchServer spawns the external browser server and scans its log for a
// ws:// endpoint. On timeout or early exit it tears everything down and
// returns an error carrying the log tail; this is the only operation that
// fails with an error rather than a status string.
func (c *Controller) LaunchServer(ctx context.Context) (string, error) {
	return c.run(ctx, func() (string, error) {
		if c.session.server.Alive() {
			return "Server already running.", nil
		}

		proc, err := startServerProcess(c.cfg.ServerCommand, c.cfg.ServerLog)
		if err != nil {
			return "", err
		}
		c.session.server = proc

		endpoint, err := discoverEndpoint(proc, c.cfg.GetLaunchTimeout(), c.cfg.GetLogTailLines())
		if err != nil {
			c.teardown()
			return "", fmt.Errorf("launch browser server: %w", err)
		}

		if c.session.id == "" {
			c.session.id = uuid.NewString()
		}
		c.session.endpoint = endpoint
		c.record("// launched browser server at " + endpoint)
		log.Printf("[session:%s] browser server up at %s", c.session.id, endpoint)
		return "MCP server launched. Endpoint: " + endpoint, nil
	})
}

// Connect idempotently starts the automation driver.
func (c *Controller) Connect(ctx context.Context) (string, error) {
	return c.run(ctx, c.connectOp)
}

func (c *Controller) connectOp() (string, error) {
	if c.session.driver != nil {
		return "Automation driver already running.", nil
	}
	driver, err := c.newDriver(c.cfg.Engine)
	if err != nil {
		return "", err
	}
	c.session.driver = driver
	c.record("pw, err := playwright.Run()")
	return "Automation driver started.", nil
}

// OpenBrowser connects to the remote browser at the discovered endpoint and
// binds a page, reusing an existing one when the browser already has open
// pages. Missing preconditions and connect failures come back as status
// strings, not errors.
func (c *Controller) OpenBrowser(ctx context.Context) (string, error) {
	return c.run(ctx, func() (string, error) {
		if c.session.endpoint == "" {
			return "MCP server not launched.", nil
		}
		if c.session.driver == nil {
			// Re-entrant dispatch: we are on the owner thread, so the
			// gate executes this inline.
			if _, err := c.Connect(ctx); err != nil {
				return "", err
			}
		}
		if c.session.browser != nil && c.session.browser.IsConnected() {
			return "Browser is already open and connected.", nil
		}

		b, err := c.session.driver.Connect(c.session.endpoint)
		if err != nil {
			return fmt.Sprintf("Failed to connect to browser: %v", err), nil
		}
		c.session.browser = b

		page, err := firstPage(b)
		if err != nil {
			return fmt.Sprintf("Failed to open a page: %v", err), nil
		}
		c.session.page = page

		c.record(fmt.Sprintf("browser, err := pw.Chromium.Connect(%q)", c.session.endpoint))
		c.record("page := browser.Contexts()[0].Pages()[0]")
		return "Browser opened and connected successfully.", nil
	})
}

// firstPage reuses the first existing page or opens a new one in the first
// (or a fresh) context.
func firstPage(b Browser) (Page, error) {
	ctxs := b.Contexts()
	if len(ctxs) > 0 {
		if pages := ctxs[0].Pages(); len(pages) > 0 {
			return pages[0], nil
		}
		return ctxs[0].NewPage()
	}
	bc, err := b.NewContext()
	if err != nil {
		return nil, err
	}
	return bc.NewPage()
}

// Goto navigates the active page, normalizing bare hostnames to http:// and
// waiting only for DOM-ready so a slow page cannot hang the owner thread.
func (c *Controller) Goto(ctx context.Context, url string) (string, error) {
	return c.run(ctx, func() (string, error) {
		if c.session.page == nil || c.session.browser == nil || !c.session.browser.IsConnected() {
			return "Page not available. Please open a browser first.", nil
		}

		if !strings.HasPrefix(url, "http") {
			url = "http://" + url
		}
		if err := c.session.page.Goto(url, c.cfg.GetNavigationTimeout()); err != nil {
			return fmt.Sprintf("Failed to navigate to %s: %v", url, err), nil
		}
		c.record(fmt.Sprintf("page.Goto(%q)", url))
		return "Navigated to " + url, nil
	})
}

// GetPageContents extracts the page's visible text, truncating past maxChars
// (0 means the configured default). DOM readiness is awaited best-effort.
func (c *Controller) GetPageContents(ctx context.Context, maxChars int) (string, error) {
	return c.run(ctx, func() (string, error) {
		if c.session.page == nil || c.session.browser == nil || !c.session.browser.IsConnected() {
			return "Page not available. Please open a browser first.", nil
		}
		if maxChars <= 0 {
			maxChars = c.cfg.GetMaxPageChars()
		}

		// A page stuck loading should still yield whatever text it has.
		_ = c.session.page.WaitForLoadState(c.cfg.GetLoadStateTimeout())

		text, err := c.session.page.InnerText("body", c.cfg.GetNavigationTimeout())
		if err != nil {
			return fmt.Sprintf("Failed to read page contents: %v", err), nil
		}
		if len(text) > maxChars {
			text = text[:maxChars] + fmt.Sprintf("\n... [truncated, first %d characters shown]", maxChars)
		}
		return text, nil
	})
}

// CloseBrowser closes the remote browser connection. The server and driver
// stay up, so OpenBrowser can reconnect.
func (c *Controller) CloseBrowser(ctx context.Context) (string, error) {
	return c.run(ctx, func() (string, error) {
		if c.session.browser != nil && c.session.browser.IsConnected() {
			_ = c.session.browser.Close()
		}
		c.session.browser = nil
		c.session.page = nil
		c.record("browser.Close()")
		return "Browser closed.", nil
	})
}

// Shutdown tears everything down: browser, driver, server process (SIGTERM
// escalating to SIGKILL), then the owner thread itself. Every sub-step is
// best-effort so teardown always completes; the controller can be launched
// again afterwards with a fresh owner thread.
func (c *Controller) Shutdown(ctx context.Context) (string, error) {
	out, err := c.run(ctx, func() (string, error) {
		c.teardown()
		c.record("// shutdown complete")
		return "Shutdown complete.", nil
	})

	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()
	if w != nil {
		w.stop(ownerJoinTimeout)
	}
	return out, err
}

// teardown runs on the owner thread. It clears every handle and never fails.
func (c *Controller) teardown() {
	if c.session.browser != nil && c.session.browser.IsConnected() {
		_ = c.session.browser.Close()
	}
	if c.session.driver != nil {
		_ = c.session.driver.Stop()
	}
	c.session.server.Terminate(c.cfg.GetShutdownGrace())

	c.session.server = nil
	c.session.driver = nil
	c.session.browser = nil
	c.session.page = nil
	c.session.endpoint = ""
}

// SaveScript synthesizes a standalone replay program from the command log and
// writes it to filename, appending the .go extension when missing.
func (c *Controller) SaveScript(ctx context.Context, filename string) (string, error) {
	return c.run(ctx, func() (string, error) {
		if filepath.Ext(filename) != ".go" {
			filename += ".go"
		}
		content := script.Synthesize(c.session.commands)
		if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("save script: %w", err)
		}
		return "Script saved to " + filename, nil
	})
}

// Commands returns a snapshot of the command log, taken on the owner thread
// so it can never observe a half-appended entry.
func (c *Controller) Commands(ctx context.Context) ([]string, error) {
	var snapshot []string
	_, err := c.run(ctx, func() (string, error) {
		snapshot = append([]string(nil), c.session.commands...)
		return "", nil
	})
	return snapshot, err
}

// record appends one entry to the command log. Owner thread only.
func (c *Controller) record(entry string) {
	c.session.commands = append(c.session.commands, entry)
}
