// Package genai provides pluggable text-generation providers used to turn
// the rendered diagnostic prompt into a refined analysis. Provider and
// credential are explicit configuration; nothing here inspects the
// environment.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// DefaultTimeout bounds each generation call.
const DefaultTimeout = 30 * time.Second

// Generator produces text from a fully-formed prompt.
type Generator interface {
	// Generate returns the provider's response for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identity for report tagging.
	Name() string
}

// Config selects and credentials a provider.
type Config struct {
	Provider   Provider
	Credential string
	Model      string
	BaseURL    string // override for tests
	Timeout    time.Duration
}

// New returns a Generator for the configured provider, or nil when no
// provider or credential is configured (manual mode).
func New(cfg Config) (Generator, error) {
	if cfg.Provider == "" || cfg.Credential == "" {
		return nil, nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com"
		}
		return &openAI{cfg: cfg, http: client}, nil
	case ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = "gemini-1.5-flash"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://generativelanguage.googleapis.com"
		}
		return &gemini{cfg: cfg, http: client}, nil
	default:
		return nil, fmt.Errorf("genai: unknown provider %q", cfg.Provider)
	}
}

type openAI struct {
	cfg  Config
	http *http.Client
}

func (o *openAI) Name() string { return string(ProviderOpenAI) }

func (o *openAI) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": o.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.cfg.Credential}
	if err := postJSON(ctx, o.http, o.cfg.BaseURL+"/v1/chat/completions", headers, body, &out); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return out.Choices[0].Message.Content, nil
}

type gemini struct {
	cfg  Config
	http *http.Client
}

func (g *gemini) Name() string { return string(ProviderGemini) }

func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	// The key goes in a header, never in the URL: transport errors quote
	// the full URL and end up in reports and logs.
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	headers := map[string]string{"x-goog-api-key": g.cfg.Credential}
	if err := postJSON(ctx, g.http, url, headers, body, &out); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidate")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in interface{}, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
