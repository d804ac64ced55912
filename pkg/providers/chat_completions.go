package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// chatCompletionsGenerator speaks the OpenAI-compatible /chat/completions
// protocol. OpenAI and Groq differ only in base URL, key and model.
type chatCompletionsGenerator struct {
	name       string
	apiKey     string
	apiBase    string
	model      string
	httpClient *http.Client
}

func newChatCompletionsGenerator(name, apiKey, apiBase, model string) (*chatCompletionsGenerator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("%s API base not configured", name)
	}
	return &chatCompletionsGenerator{
		name:       name,
		apiKey:     strings.TrimSpace(apiKey),
		apiBase:    apiBase,
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

func (g *chatCompletionsGenerator) Name() string { return g.name }

func (g *chatCompletionsGenerator) Generate(ctx context.Context, prompt, instructions string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%s API key missing", g.name)
	}

	messages := []map[string]string{}
	if strings.TrimSpace(instructions) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": instructions})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	requestBody := map[string]interface{}{
		"model":    g.model,
		"messages": messages,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", g.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", g.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send %s request: %w", g.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", g.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s request failed: status %d: %s", g.name, resp.StatusCode, extractAPIError(body))
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("parse %s response: %w", g.name, err)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", g.name)
	}
	return apiResponse.Choices[0].Message.Content, nil
}

func extractAPIError(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "empty response body"
	}

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}

	if len(trimmed) > 2000 {
		return trimmed[:2000] + "..."
	}
	return trimmed
}
