package analyzer

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIURL is LM Studio's local server
	DefaultOpenAIURL = "http://localhost:1234/v1"

	// DefaultAPIKey is sent to local servers such as LM Studio, which ignore it
	DefaultAPIKey = "lm-studio"
)

// OpenAICompleter talks to any OpenAI-compatible chat completion server
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter creates a completer bound to baseURL, e.g. http://localhost:1234/v1
func NewOpenAICompleter(baseURL, apiKey string, httpClient *http.Client) *OpenAICompleter {
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(config)}
}

// ListModels returns the identifiers of the models the server offers
func (c *OpenAICompleter) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, &TransportError{Op: "list models", Err: err}
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Complete sends the system instruction and a user message holding the text
// instruction and the frame as an image data URI
func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: req.User,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: DataURI(req.Image),
						},
					},
				},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", &TransportError{Op: "chat completion", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
