// Package generate produces announcement text for a token.
//
// Two strategies run in order: an external chat-completions style LLM
// call, then a deterministic local template. The chain either returns
// non-empty text or an explicit error; it never returns partial text.
package generate

import (
	"context"
	"errors"
	"strings"

	"tokenherald/internal/token"
	"tokenherald/pkg/logx"
)

// MaxLen is the platform message limit; longer output is clamped, not
// rejected.
const MaxLen = 280

// ErrUnavailable means a strategy cannot run at all (unconfigured).
var ErrUnavailable = errors.New("generator unavailable")

// Generator turns a token into announcement text.
type Generator interface {
	Generate(ctx context.Context, tok token.Token) (string, error)
}

// Chain tries the primary generator and falls back to the template.
type Chain struct {
	primary  Generator
	fallback Generator
	log      logx.Logger
}

func NewChain(primary Generator, log logx.Logger) *Chain {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Chain{primary: primary, fallback: Template{}, log: log}
}

// Generate returns clamped, non-empty text or an error describing why
// both strategies failed.
func (c *Chain) Generate(ctx context.Context, tok token.Token) (string, error) {
	if c.primary != nil {
		text, err := c.primary.Generate(ctx, tok)
		if err == nil && strings.TrimSpace(text) != "" {
			return Clamp(text), nil
		}
		if err != nil && !errors.Is(err, ErrUnavailable) {
			c.log.Warn("primary generator failed; using template",
				logx.String("symbol", tok.Symbol), logx.Err(err))
		}
	}

	text, err := c.fallback.Generate(ctx, tok)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("generator produced empty text")
	}
	return Clamp(text), nil
}

// Clamp truncates text to MaxLen runes with an ellipsis marker.
func Clamp(text string) string {
	r := []rune(text)
	if len(r) <= MaxLen {
		return text
	}
	return string(r[:MaxLen-3]) + "..."
}
