package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/agent-api/core/pkg/agent"
	"github.com/agent-api/core/types"
	"github.com/agent-api/ollama"
)

// DefaultOllamaURL is where a local Ollama server listens
const DefaultOllamaURL = "http://localhost:11434"

// OllamaCompleter runs requests through an agent-api agent backed by Ollama.
// MaxTokens and Temperature are not forwarded; the agent API has no knobs for them
type OllamaCompleter struct {
	newAgent   func() *agent.DefaultAgent
	baseURL    string
	system     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaCompleter sets up the Ollama provider for model. The system instruction is
// bound here because the agent takes it at construction time
func NewOllamaCompleter(ctx context.Context, apiURL, model, system string, logger *slog.Logger) (*OllamaCompleter, error) {
	host, port, err := ollamaEndpoint(apiURL)
	if err != nil {
		return nil, err
	}

	// Set up Ollama provider
	opts := &ollama.ProviderOpts{
		Logger:  logger,
		BaseURL: host,
		Port:    port,
	}
	provider := ollama.NewProvider(opts)
	provider.UseModel(ctx, &types.Model{
		ID: model,
	})

	return &OllamaCompleter{
		newAgent: func() *agent.DefaultAgent {
			return agent.NewAgent(&agent.NewAgentConfig{
				Provider:     provider,
				Logger:       logger,
				SystemPrompt: system,
			})
		},
		baseURL:    fmt.Sprintf("%s:%d", host, port),
		system:     system,
		httpClient: http.DefaultClient,
		logger:     logger,
	}, nil
}

// ollamaEndpoint splits apiURL into the scheme+host and port the provider expects
func ollamaEndpoint(apiURL string) (string, int, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", 0, fmt.Errorf("invalid ollama url %q", apiURL)
	}

	port := 11434
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, fmt.Errorf("invalid ollama port %q", p)
		}
	}
	return u.Scheme + "://" + u.Hostname(), port, nil
}

// ListModels asks Ollama for its local model tags
func (c *OllamaCompleter) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "list models", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &TransportError{Op: "list models", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &TransportError{Op: "list models", Err: fmt.Errorf("decode tags: %w", err)}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Complete hands the frame to a fresh agent as a temporary JPEG file so that no
// conversation history carries over between frames
func (c *OllamaCompleter) Complete(ctx context.Context, req Request) (string, error) {
	if req.System != "" && req.System != c.system {
		c.logger.Debug("ollama agent uses the system instruction given at setup")
	}

	imageFile, err := os.CreateTemp("", "videoannotator-frame-*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary frame file: %w", err)
	}
	imagePath := imageFile.Name()
	defer os.Remove(imagePath)

	if _, err := imageFile.Write(req.Image); err != nil {
		imageFile.Close()
		return "", fmt.Errorf("failed to write temporary frame file: %w", err)
	}
	if err := imageFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write temporary frame file: %w", err)
	}

	response := c.newAgent().Run(
		ctx,
		agent.WithInput(req.User),
		agent.WithImagePath(imagePath),
	)
	if response.Err != nil {
		return "", &TransportError{Op: "agent run", Err: response.Err}
	}

	if len(response.Messages) == 0 {
		return "", fmt.Errorf("%w: no response messages received from model", ErrMalformedResponse)
	}

	// The model's reply is the last message
	content := response.Messages[len(response.Messages)-1].Content
	return strings.TrimSpace(content), nil
}
