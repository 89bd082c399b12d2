package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

func (c *Client) GetModel() string {
	return c.model
}

const explainInstructions = `You turn raw tool-call replies into short answers for an operator.
- Respond in clear, natural English.
- Format lists as bullet points.
- If the reply is an error, explain what went wrong and what the user can try; do not paste the raw error.
- Do not show JSON unless it is the only way to answer.`

// Explain asks the model to summarise a tool reply. tool and arguments
// describe the invocation; reply is the rendered assistant message.
func (c *Client) Explain(ctx context.Context, tool, arguments, reply string) (string, error) {
	prompt := fmt.Sprintf("The user ran tool %q with arguments:\n%s\n\nThe system replied:\n%s", tool, arguments, reply)

	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: explainInstructions},
			{Role: "user", Content: prompt},
		},
		Stream: func(b bool) *bool { return &b }(false),
	}

	var answer strings.Builder
	respFunc := func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	}

	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	return strings.TrimSpace(answer.String()), nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}
