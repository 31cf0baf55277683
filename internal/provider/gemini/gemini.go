// Package gemini implements the Provider interface on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/lbaylis/hearth/internal/provider"
)

const defaultModel = "gemini-2.0-flash"

// Provider generates model turns via the Gemini API.
type Provider struct {
	client Client
	model  string
}

// New creates a Provider for the given client and model. An empty model
// falls back to a sensible default.
func New(client Client, model string) *Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{client: client, model: model}
}

func (p *Provider) Name() string { return "gemini" }

// Generate converts the history to Gemini contents and returns the model's
// raw text output. System turns become the system instruction; tool turns
// become user turns, since the wire protocol rides in plain text.
func (p *Provider) Generate(ctx context.Context, history []provider.Message) (string, error) {
	var system string
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case provider.RoleSystem:
			system = msg.Content
		case provider.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		}
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}

	resp, err := p.client.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", mapError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", &provider.Error{
			Provider:   "gemini",
			Underlying: provider.ErrContentBlocked,
		}
	}
	return text, nil
}

// mapError folds Gemini API errors into the provider error taxonomy.
func mapError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return &provider.Error{Provider: "gemini", Underlying: provider.ErrAuthentication}
		case 429:
			return &provider.Error{Provider: "gemini", Retryable: true, Underlying: provider.ErrRateLimit}
		case 500, 502, 503, 504:
			return &provider.Error{Provider: "gemini", Retryable: true, Underlying: provider.ErrUnavailable}
		}
	}
	return &provider.Error{
		Provider:   "gemini",
		Retryable:  true,
		Underlying: fmt.Errorf("generate content: %w", err),
	}
}
