package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sitehealth/audit-service/internal/platform/errs"
)

// Generation parameters are fixed configuration, never caller-controlled.
const (
	genTemperature = 0.7
	genMaxTokens   = 800
	genTopP        = 1.0
)

// Recommender defines the contract for the language-generation service.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient sends prompts to an OpenAI-compatible chat-completions
// endpoint. One outbound request per prompt; no retries.
type OpenAIClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAIClient returns a client for the given endpoint, key and model.
func NewOpenAIClient(endpoint, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Recommend sends the prompt and returns the completion text.
func (c *OpenAIClient) Recommend(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: genTemperature,
		MaxTokens:   genMaxTokens,
		TopP:        genTopP,
	})
	if err != nil {
		return "", &errs.AppError{
			Kind:    errs.RecommendationFailed,
			Message: "Could not build the recommendation request.",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &errs.AppError{
			Kind:    errs.RecommendationFailed,
			Message: "Could not build the recommendation request.",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &errs.AppError{
			Kind:    errs.RecommendationFailed,
			Message: "The recommendation service could not be reached.",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &errs.AppError{
			Kind:           errs.RecommendationFailed,
			UpstreamStatus: resp.StatusCode,
			Message:        "The recommendation service rejected the request.",
		}
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &errs.AppError{
			Kind:    errs.RecommendationFailed,
			Message: "The recommendation service returned a malformed response.",
			Cause:   err,
		}
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", &errs.AppError{
			Kind:    errs.RecommendationFailed,
			Message: "The recommendation service returned an empty completion.",
		}
	}

	return completion.Choices[0].Message.Content, nil
}
