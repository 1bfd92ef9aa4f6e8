// Package llm asks a chat-completion endpoint for a JSON answer and checks
// it against a schema before decoding.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jensroland/git-autocommit/internal/config"
	"github.com/jensroland/git-autocommit/internal/console"
)

// traceLevel is the verbosity at which requests and raw responses are shown.
const traceLevel = 4

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("empty response from model")

// MalformedResponseError reports a response that is not JSON or does not
// match the expected schema.
type MalformedResponseError struct {
	Response string
	Issues   []string
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed model response: %q", truncate(e.Response, 300))
	if len(e.Issues) > 0 {
		msg += " (" + strings.Join(e.Issues, "; ") + ")"
	}
	return msg
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Client talks to one model.
type Client struct {
	api     *openai.Client
	model   string
	baseURL string
	timeout time.Duration
	log     *console.Logger
}

// New builds a Client from cfg. An empty BaseURL uses the library default.
func New(cfg *config.Config, log *console.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends instructions as the system message and prompt as the user
// message, returning the reply text.
func (c *Client) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	if c.log.Enabled(traceLevel) {
		end := c.log.Group(traceLevel, "Model request:")
		endpoint := c.baseURL
		if endpoint == "" {
			endpoint = "(default)"
		}
		c.log.Debugf(traceLevel, "Endpoint: %s", endpoint)
		c.log.Debugf(traceLevel, "Model: %s", c.model)
		c.log.Block(traceLevel, "Prompt: "+prompt)
		end()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model call timed out after %s", c.timeout)
		}
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	if c.log.Enabled(traceLevel) {
		end := c.log.Group(traceLevel, "Model response:")
		c.log.Block(traceLevel, text)
		end()
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Decode asks the model and unmarshals its reply into out after validating
// it against schema.
func (c *Client) Decode(ctx context.Context, instructions, prompt string, schema []byte, out any) error {
	text, err := c.Complete(ctx, instructions, prompt)
	if err != nil {
		return err
	}
	return Parse(text, schema, out)
}

var codeFenceRe = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*")
var codeFenceEndRe = regexp.MustCompile("\\s*```$")

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = codeFenceRe.ReplaceAllString(text, "")
	text = codeFenceEndRe.ReplaceAllString(text, "")
	return text
}

// Parse strips code fences from text, validates it against schema and
// unmarshals it into out.
func Parse(text string, schema []byte, out any) error {
	text = StripFences(text)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return &MalformedResponseError{Response: text, Issues: []string{err.Error()}}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, e := range result.Errors() {
			issues = append(issues, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return &MalformedResponseError{Response: text, Issues: issues}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &MalformedResponseError{Response: text, Issues: []string{err.Error()}}
	}
	return nil
}
