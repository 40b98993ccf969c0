package verifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"posemarket-be/pkg/apperrors"
)

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiJudge calls one Gemini vision model. Each model id in the
// fallback chain gets its own instance because rate limits apply per
// model identifier.
type GeminiJudge struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiJudge(apiKey, model string) *GeminiJudge {
	return &GeminiJudge{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiJudge) Model() string {
	return g.model
}

func (g *GeminiJudge) Judge(ctx context.Context, frames [][]byte, taskContext string) (string, error) {
	parts := []geminiPart{{Text: BuildPrompt(taskContext)}}
	for _, frame := range frames {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(frame),
		}})
	}

	payload, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts, Role: "user"}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent", g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: model %s", apperrors.ErrRateLimited, g.model)
	case res.StatusCode != http.StatusOK:
		return "", fmt.Errorf("status error, got status %d. with response body %s", res.StatusCode, string(resBody))
	}

	var out geminiResponse
	if err := json.Unmarshal(resBody, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates in response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
