package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// geminiGenerator calls the Google Generative Language REST API.
type geminiGenerator struct {
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

func newGeminiGenerator(apiKey, apiBase, model string) (*geminiGenerator, error) {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("gemini API base not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini model not configured")
	}
	return &geminiGenerator{
		apiKey:     strings.TrimSpace(apiKey),
		apiBase:    apiBase,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (g *geminiGenerator) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt, instructions string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini API key missing")
	}

	requestBody := map[string]interface{}{
		"contents": []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if strings.TrimSpace(instructions) != "" {
		requestBody["system_instruction"] = geminiContent{Parts: []geminiPart{{Text: instructions}}}
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.apiBase, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini request failed: status %d: %s", resp.StatusCode, extractAPIError(body))
	}

	var apiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if len(apiResponse.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range apiResponse.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
