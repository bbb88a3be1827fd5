package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"playchat/internal/config"
)

// classifierPrompt maps user utterances onto the command grammar. The model
// is treated as an opaque classifier; everything it can do is listed here.
const classifierPrompt = `You are an assistant that controls a web browser. Translate the user's request into one command.
The available commands are:
- launch: start the browser server
- open: open a browser window
- goto <url>: navigate to a URL
- get_page_contents: read the visible text of the current page
- close: close the browser
- save <filename>: save the recorded automation script
- shutdown: terminate the entire session

Respond with exactly one line in the format:
COMMAND: <command_name> ARGS: <arguments>

Use ARGS: None when the command takes no argument. If the request does not
map to a command, respond with COMMAND: chat ARGS: <your friendly reply>.

Examples:
"start the server" -> COMMAND: launch ARGS: None
"go to google.com" -> COMMAND: goto ARGS: google.com
"save the script as demo.go" -> COMMAND: save ARGS: demo.go
"what can you do?" -> COMMAND: chat ARGS: I can control a web browser for you!`

// Classifier calls an OpenAI-compatible chat-completions endpoint to map
// natural language onto the command grammar.
type Classifier struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClassifier returns nil when no API key is available; callers treat a nil
// classifier as "slash commands only".
func NewClassifier(cfg config.LLMConfig) *Classifier {
	key := cfg.GetAPIKey()
	if key == "" {
		return nil
	}
	return &Classifier{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Classify returns the raw classifier reply for a user prompt.
func (c *Classifier) Classify(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode classifier response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("classifier error: %s", decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("classifier returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
