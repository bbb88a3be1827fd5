package script

import (
	"strings"
	"testing"
)

func TestFilterKeepsOnlyUserIntent(t *testing.T) {
	log := []string{
		"// launched browser server at ws://127.0.0.1:9999/abc",
		"pw, err := playwright.Run()",
		`browser, err := pw.Chromium.Connect("ws://127.0.0.1:9999/abc")`,
		"page := browser.Contexts()[0].Pages()[0]",
		`page.Goto("http://example.com")`,
		`page.Goto("https://go.dev")`,
		"browser.Close()",
		"",
		"  ",
		"# noise",
		"// shutdown complete",
	}

	kept := Filter(log)
	want := []string{
		`page.Goto("http://example.com")`,
		`page.Goto("https://go.dev")`,
	}
	if len(kept) != len(want) {
		t.Fatalf("kept %d entries, want %d: %v", len(kept), len(want), kept)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, kept[i], want[i])
		}
	}
}

func TestSynthesizeProducesStandaloneProgram(t *testing.T) {
	out := Synthesize([]string{
		"pw, err := playwright.Run()",
		`browser, err := pw.Chromium.Connect("ws://127.0.0.1:9999/abc")`,
		`page.Goto("http://example.com")`,
	})

	if !strings.HasPrefix(out, "package main") {
		t.Fatalf("script does not start with package clause:\n%s", out)
	}
	if !strings.Contains(out, "pw.Chromium.Launch(") {
		t.Fatal("script should launch its own browser")
	}
	if strings.Contains(out, "Chromium.Connect") {
		t.Fatal("script must not connect to the shared server")
	}
	if !strings.Contains(out, "\tpage.Goto(\"http://example.com\")\n") {
		t.Fatalf("script missing the recorded navigation:\n%s", out)
	}
	if !strings.Contains(out, "pw.Stop()") {
		t.Fatal("script missing teardown")
	}
}

func TestSynthesizeEmptyLog(t *testing.T) {
	out := Synthesize(nil)
	// Still a runnable program that opens and closes a browser.
	if !strings.Contains(out, "context.NewPage()") || !strings.Contains(out, "browser.Close()") {
		t.Fatalf("empty-log script incomplete:\n%s", out)
	}
}
