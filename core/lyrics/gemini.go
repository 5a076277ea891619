package lyrics

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunex/core/apperr"
)

const serviceName = "gemini"

const transcribePrompt = "Transcribe the sung lyrics of this audio track. " +
	"Return only the lyrics as plain text, one line per sung line. " +
	"If the track is instrumental, answer exactly: [Instrumental]"

// Transcriber turns audio into lyrics text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiTranscriber calls the generateContent endpoint with inline audio.
type GeminiTranscriber struct {
	config     GeminiConfig
	httpClient *http.Client
}

// NewGeminiTranscriber 创建 Gemini 转写客户端
func NewGeminiTranscriber(cfg GeminiConfig) *GeminiTranscriber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &GeminiTranscriber{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Transcribe sends the audio and returns the model's text. Every failure is
// reported as an apperr.ServiceError.
func (g *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if g.config.APIKey == "" {
		return "", apperr.NewServiceError(serviceName, errors.New("API key not configured"))
	}

	reqBody := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{
		{Text: transcribePrompt},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
	}}}}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.config.BaseURL, "/"), g.config.Model, url.QueryEscape(g.config.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", apperr.NewServiceError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperr.NewServiceError(serviceName, fmt.Errorf("API returned status %d: %s", resp.StatusCode, body))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.NewServiceError(serviceName, fmt.Errorf("decode response: %w", err))
	}

	var sb strings.Builder
	for _, c := range out.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", apperr.NewServiceError(serviceName, errors.New("empty response"))
	}
	return text, nil
}
