package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tokenherald/internal/token"
)

const systemPrompt = "You are TokenHerald, an analyst that posts short, engaging announcements " +
	"about newly graduated Solana tokens. Stay under 280 characters, include key metrics, " +
	"use at most two emojis, and end with #Solana hashtags. Sound excited but professional."

// LLMConfig configures the chat-completions client. Empty endpoint or
// key leaves the client unavailable and the chain falls back.
type LLMConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// LLMClient calls an OpenAI-compatible chat-completions API.
type LLMClient struct {
	cfg  LLMConfig
	http *http.Client
}

var _ Generator = (*LLMClient)(nil)

func NewLLMClient(cfg LLMConfig) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Available reports whether the client has enough configuration to run.
func (c *LLMClient) Available() bool {
	return c != nil &&
		strings.TrimSpace(c.cfg.Endpoint) != "" &&
		strings.TrimSpace(c.cfg.Model) != "" &&
		strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *LLMClient) Generate(ctx context.Context, tok token.Token) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt(tok)},
		},
		"max_tokens": 150,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generator error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("generator returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func userPrompt(tok token.Token) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an announcement for this token:\n")
	fmt.Fprintf(&b, "Name: %s (%s)\n", tok.Name, tok.Symbol)
	if tok.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", tok.Address)
	}
	fmt.Fprintf(&b, "Market Cap: %s\n", token.FormatUSD(tok.MarketCap))
	fmt.Fprintf(&b, "Liquidity: %s\n", token.FormatUSD(tok.Liquidity))
	if tok.Holders > 0 {
		fmt.Fprintf(&b, "Holders: %s\n", token.FormatCount(tok.Holders))
	}
	if tok.Price > 0 {
		fmt.Fprintf(&b, "Price: $%g\n", tok.Price)
	}
	if tok.PriceChange != 0 {
		fmt.Fprintf(&b, "24h Change: %s\n", token.FormatPercent(tok.PriceChange))
	}
	fmt.Fprintf(&b, "Status: %s", tok.Status)
	return b.String()
}
