package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"playchat/internal/browser"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

const helpText = `Slash commands:
  /launch              start the browser server
  /open                open a browser window
  /goto <url>          navigate to a URL
  /get_page_contents   read the visible text of the current page
  /close               close the browser
  /save <filename>     save the recorded automation script
  /shutdown            terminate the entire session
  /help                show this help
  /quit                leave the chat (does not shut the session down)

Anything else is sent to the language model, when one is configured.`

var (
	assistantColor = color.New(color.FgCyan)
	errorColor     = color.New(color.FgRed)
	promptColor    = color.New(color.FgGreen)
)

// REPL is the interactive chat loop: slash commands go straight to the
// controller, free-form text goes through the classifier first.
type REPL struct {
	ctrl       *browser.Controller
	classifier *Classifier
	out        io.Writer
}

func NewREPL(ctrl *browser.Controller, classifier *Classifier, out io.Writer) *REPL {
	return &REPL{ctrl: ctrl, classifier: classifier, out: out}
}

// Run reads user input until EOF, interrupt, /quit, or a completed shutdown.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptColor.Sprint("you> "),
		HistoryFile:     "/tmp/playchat_history",
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	r.say("Hello! I drive a web browser for you. Start with /launch, or just ask me to start the server. /help lists the commands.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if done := r.handle(ctx, line); done {
			return nil
		}
	}
}

// handle processes one input line and reports whether the REPL should exit.
func (r *REPL) handle(ctx context.Context, line string) bool {
	cmd, ok := ParseSlash(line)
	if !ok {
		var err error
		cmd, err = r.classify(ctx, line)
		if err != nil {
			r.oops(err.Error())
			return false
		}
	}

	switch cmd.Name {
	case "help":
		r.say(helpText)
		return false
	case "quit", "exit":
		return true
	}

	status, err := r.execute(ctx, cmd)
	if err != nil {
		r.oops(err.Error())
		return false
	}
	r.say(status)
	return cmd.Name == "shutdown"
}

// classify maps free-form input onto a Command via the language model.
func (r *REPL) classify(ctx context.Context, line string) (Command, error) {
	if r.classifier == nil {
		return Command{}, errors.New("no language model configured; set OPENAI_API_KEY or use slash commands (/help)")
	}
	reply, err := r.classifier.Classify(ctx, line)
	if err != nil {
		return Command{}, err
	}
	cmd, err := ParseClassifierReply(reply)
	if err != nil {
		return Command{Name: "chat", Args: fmt.Sprintf("I'm not sure how to do that. (model said: %s)", reply)}, nil
	}
	return cmd, err
}

// execute runs one command against the controller.
func (r *REPL) execute(ctx context.Context, cmd Command) (string, error) {
	switch cmd.Name {
	case "launch":
		return r.ctrl.LaunchServer(ctx)
	case "open":
		return r.ctrl.OpenBrowser(ctx)
	case "goto":
		if cmd.Args == "" {
			return "Please provide a URL.", nil
		}
		return r.ctrl.Goto(ctx, cmd.Args)
	case "get_page_contents":
		return r.ctrl.GetPageContents(ctx, 0)
	case "close":
		return r.ctrl.CloseBrowser(ctx)
	case "save":
		if cmd.Args == "" {
			return "Please provide a filename.", nil
		}
		return r.ctrl.SaveScript(ctx, cmd.Args)
	case "shutdown":
		return r.ctrl.Shutdown(ctx)
	case "chat":
		if cmd.Args == "" {
			return "I'm not sure how to do that. Try /help.", nil
		}
		return cmd.Args, nil
	default:
		return fmt.Sprintf("Unknown command %q. Try /help.", cmd.Name), nil
	}
}

func (r *REPL) say(msg string) {
	assistantColor.Fprintf(r.out, "bot> %s\n", msg)
}

func (r *REPL) oops(msg string) {
	errorColor.Fprintf(r.out, "bot> %s\n", msg)
}
