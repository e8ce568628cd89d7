// Package draft asks an OpenAI-compatible chat completion endpoint for a
// skeleton command.
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "ducktape/internal/log"
)

// Provider is a preset for a known OpenAI-compatible service.
type Provider struct {
	Name    string
	BaseURL string
	Model   string
	// KeyEnv names the environment variable holding the API key.
	KeyEnv string
}

var providers = map[string]Provider{
	"openai":   {Name: "openai", BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY"},
	"grok":     {Name: "grok", BaseURL: "https://api.x.ai/v1", Model: "grok-2-latest", KeyEnv: "XAI_API_KEY"},
	"deepseek": {Name: "deepseek", BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat", KeyEnv: "DEEPSEEK_API_KEY"},
}

// LookupProvider returns the preset for name.
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ErrNoAPIKey is returned by NewClient when the key is empty.
var ErrNoAPIKey = errors.New("draft: API key not set")

// Options configures a Client. Empty fields fall back to the provider preset.
type Options struct {
	Provider    Provider
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	Prompt PromptConfig

	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
	// Now overrides the clock used in the prompt.
	Now func() time.Time
}

// Client drafts commands through /chat/completions.
type Client struct {
	name        string
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	prompt      PromptConfig
	http        *http.Client
	now         func() time.Time
}

// NewClient validates opts and returns a ready Client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w (%s)", ErrNoAPIKey, opts.Provider.KeyEnv)
	}
	c := &Client{
		name:        opts.Provider.Name,
		baseURL:     strings.TrimRight(firstNonEmpty(opts.BaseURL, opts.Provider.BaseURL), "/"),
		model:       firstNonEmpty(opts.Model, opts.Provider.Model),
		apiKey:      opts.APIKey,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		prompt:      opts.Prompt,
		http:        opts.HTTPClient,
		now:         opts.Now,
	}
	if c.baseURL == "" {
		return nil, errors.New("draft: base URL not set")
	}
	if c.model == "" {
		return nil, errors.New("draft: model not set")
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 200
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Draft sends the sanitized input and returns the first command line of
// the reply.
func (c *Client) Draft(ctx context.Context, input string) (string, error) {
	now := c.now()
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(c.prompt, now)},
			{Role: "user", Content: "Current date and time: " + now.Format("2006-01-02 15:04") + "\n\n" + input},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: HTTP %d: %s", c.name, resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s", c.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", c.name)
	}

	line := CommandLine(parsed.Choices[0].Message.Content)
	if line == "" {
		return "", fmt.Errorf("%s: response has no command", c.name)
	}
	appLog.Debug("draft received", "provider", c.name, "model", c.model, "elapsed", time.Since(start).Round(time.Millisecond))
	return line, nil
}

// CommandLine picks the first line that looks like a command out of a
// model reply, stripping code fences. Without such a line the first
// non-empty line is returned.
func CommandLine(content string) string {
	var first string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "`"))
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if strings.HasPrefix(line, "ducktape ") {
			return line
		}
		if first == "" {
			first = line
		}
	}
	return first
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
