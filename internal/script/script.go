// Package script synthesizes standalone replay programs from a recorded
// command log. The log mixes user intent (navigations) with infrastructure
// entries (driver startup, shared-server connects, page binding); only the
// intent lines survive into the generated program, which launches its own
// browser instead of attaching to the shared server.
package script

import "strings"

// infrastructureMarkers identify log entries that describe the shared-session
// plumbing rather than user intent.
var infrastructureMarkers = []string{
	"playwright.Run",
	".Connect(",
	".Stop(",
	"browser.Close",
	".Pages()",
	"NewPage()",
}

const header = `package main

import (
	"log"

	"github.com/playwright-community/playwright-go"
)

// Generated by playchat. This script launches its own browser instance; it
// does not connect to the shared browser server.
func main() {
	pw, err := playwright.Run()
	if err != nil {
		log.Fatalf("start playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(false),
	})
	if err != nil {
		log.Fatalf("launch browser: %v", err)
	}
	context, err := browser.NewContext()
	if err != nil {
		log.Fatalf("new context: %v", err)
	}
	page, err := context.NewPage()
	if err != nil {
		log.Fatalf("new page: %v", err)
	}
	_ = page

`

const footer = `
	log.Println("Script finished. Closing browser.")
	context.Close()
	browser.Close()
	pw.Stop()
}
`

// Synthesize renders the replay program for the given command log.
func Synthesize(commands []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, cmd := range Filter(commands) {
		b.WriteString("\t")
		b.WriteString(cmd)
		b.WriteString("\n")
	}
	b.WriteString(footer)
	return b.String()
}

// Filter returns only the user-intent entries of a command log, dropping
// comments and infrastructure lines.
func Filter(commands []string) []string {
	var kept []string
	for _, cmd := range commands {
		trimmed := strings.TrimSpace(cmd)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if isInfrastructure(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return kept
}

func isInfrastructure(cmd string) bool {
	for _, marker := range infrastructureMarkers {
		if strings.Contains(cmd, marker) {
			return true
		}
	}
	return false
}
