package mcp

import (
	"context"
	"fmt"

	"playchat/internal/browser"
)

func getStringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func getIntArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func statusPayload(status string) map[string]interface{} {
	return map[string]interface{}{"status": status}
}

type LaunchServerTool struct {
	ctrl *browser.Controller
}

func (t *LaunchServerTool) Name() string { return "launch-server" }
func (t *LaunchServerTool) Description() string {
	return `Start the external browser server and discover its ws:// endpoint.

USE THIS FIRST: every other browser tool needs a running server.
Idempotent - returns "Server already running." when one is up.

Returns: {status} containing the discovered endpoint.`
}
func (t *LaunchServerTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *LaunchServerTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	status, err := t.ctrl.LaunchServer(ctx)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type OpenBrowserTool struct {
	ctrl *browser.Controller
}

func (t *OpenBrowserTool) Name() string { return "open-browser" }
func (t *OpenBrowserTool) Description() string {
	return `Connect to the browser exposed by the server and bind a page.

PREREQUISITE: launch-server. Reuses an already-open page; calling this twice
is safe and reports "Browser is already open and connected.".

Returns: {status}.`
}
func (t *OpenBrowserTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *OpenBrowserTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	status, err := t.ctrl.OpenBrowser(ctx)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type GotoTool struct {
	ctrl *browser.Controller
}

func (t *GotoTool) Name() string { return "goto" }
func (t *GotoTool) Description() string {
	return `Navigate the active page to a URL.

A bare hostname gets an http:// scheme. Waits for DOM-ready only, so slow
third-party resources cannot hang the call.

Returns: {status} e.g. "Navigated to http://example.com".`
}
func (t *GotoTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Destination URL; scheme optional",
			},
		},
		"required": []string{"url"},
	}
}
func (t *GotoTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	url := getStringArg(args, "url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	status, err := t.ctrl.Goto(ctx, url)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type GetPageContentsTool struct {
	ctrl *browser.Controller
}

func (t *GetPageContentsTool) Name() string { return "get-page-contents" }
func (t *GetPageContentsTool) Description() string {
	return `Extract the visible text of the active page.

Waits briefly for DOM readiness (best-effort), then returns the body text,
truncated past max_chars with a marker.

Returns: {status} holding the page text.`
}
func (t *GetPageContentsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"max_chars": map[string]interface{}{
				"type":        "integer",
				"description": "Optional cap on returned characters (default from config)",
			},
		},
	}
}
func (t *GetPageContentsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	status, err := t.ctrl.GetPageContents(ctx, getIntArg(args, "max_chars"))
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type CloseBrowserTool struct {
	ctrl *browser.Controller
}

func (t *CloseBrowserTool) Name() string { return "close-browser" }
func (t *CloseBrowserTool) Description() string {
	return `Close the browser connection. The server and driver stay up, so
open-browser can reconnect later.

Returns: {status}.`
}
func (t *CloseBrowserTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *CloseBrowserTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	status, err := t.ctrl.CloseBrowser(ctx)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type SaveScriptTool struct {
	ctrl *browser.Controller
}

func (t *SaveScriptTool) Name() string { return "save-script" }
func (t *SaveScriptTool) Description() string {
	return `Write a standalone replay program built from the recorded commands.

The generated program launches its own browser instead of connecting to the
shared server; infrastructure entries are filtered out. A .go extension is
appended when missing.

Returns: {status} naming the written file.`
}
func (t *SaveScriptTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Output path for the replay script",
			},
		},
		"required": []string{"filename"},
	}
}
func (t *SaveScriptTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	filename := getStringArg(args, "filename")
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	status, err := t.ctrl.SaveScript(ctx, filename)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}

type ShutdownTool struct {
	ctrl *browser.Controller
}

func (t *ShutdownTool) Name() string { return "shutdown" }
func (t *ShutdownTool) Description() string {
	return `Tear the whole session down: browser, driver, server process and the
owner thread. Best-effort and always completes; launch-server starts fresh
afterwards.

Returns: {status} "Shutdown complete.".`
}
func (t *ShutdownTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (t *ShutdownTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	status, err := t.ctrl.Shutdown(ctx)
	if err != nil {
		return nil, err
	}
	return statusPayload(status), nil
}
