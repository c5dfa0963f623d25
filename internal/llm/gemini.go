package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-2.0-flash"

type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SetTemperature(0.3)
	gm.SetTopP(0.95)

	return &GeminiProvider{client: client, model: gm, name: model}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := modelForRequest(p.model, req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, mapGeminiError(err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("Gemini returned empty text")}
	}

	return &Response{Text: text, Model: p.name}, nil
}

// modelForRequest applies per-request sampling to a copy so concurrent calls
// never share settings.
func modelForRequest(base *genai.GenerativeModel, req Request) *genai.GenerativeModel {
	gm := *base
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature > 0 {
		gm.SetTemperature(float32(req.Temperature))
	}
	return &gm
}

func (p *GeminiProvider) ModelID() string {
	return p.name
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return &ErrRateLimit{Err: err}
		}
		return &ErrStatus{StatusCode: apiErr.Code, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
