package chat

import "testing"

func TestParseSlash(t *testing.T) {
	cmd, ok := ParseSlash("/goto example.com")
	if !ok {
		t.Fatal("expected slash command")
	}
	if cmd.Name != "goto" || cmd.Args != "example.com" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd, ok = ParseSlash("  /SAVE my script.go  ")
	if !ok {
		t.Fatal("expected slash command")
	}
	if cmd.Name != "save" {
		t.Fatalf("name not lowercased: %q", cmd.Name)
	}
	if cmd.Args != "my script.go" {
		t.Fatalf("multi-word args not joined: %q", cmd.Args)
	}

	if _, ok := ParseSlash("go to example.com"); ok {
		t.Fatal("plain text parsed as slash command")
	}
	if _, ok := ParseSlash(""); ok {
		t.Fatal("empty input parsed as slash command")
	}
}

func TestParseClassifierReply(t *testing.T) {
	cmd, err := ParseClassifierReply("COMMAND: goto ARGS: google.com")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Name != "goto" || cmd.Args != "google.com" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	cmd, err = ParseClassifierReply("COMMAND: launch ARGS: None")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Name != "launch" || cmd.Args != "" {
		t.Fatalf("None args should be empty: %+v", cmd)
	}

	// Models sometimes wrap the protocol line in prose.
	cmd, err = ParseClassifierReply("Sure! COMMAND: Shutdown ARGS: None")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Name != "shutdown" {
		t.Fatalf("name not lowercased: %q", cmd.Name)
	}

	cmd, err = ParseClassifierReply("COMMAND: get_page_contents")
	if err != nil {
		t.Fatalf("parse without ARGS marker: %v", err)
	}
	if cmd.Name != "get_page_contents" || cmd.Args != "" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	if _, err := ParseClassifierReply("I cannot help with that."); err == nil {
		t.Fatal("expected error for reply without COMMAND marker")
	}
	if _, err := ParseClassifierReply("COMMAND: ARGS: x"); err == nil {
		t.Fatal("expected error for empty command name")
	}
}
