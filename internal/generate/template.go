package generate

import (
	"context"
	"fmt"
	"strings"

	"tokenherald/internal/token"
)

// Template is the deterministic fallback generator. It assembles a
// fixed-shape message from the token's formatted attributes, so the
// pipeline keeps announcing even without LLM credentials.
type Template struct{}

var _ Generator = Template{}

func (Template) Generate(_ context.Context, tok token.Token) (string, error) {
	name := tok.Name
	if name == "" {
		name = tok.Symbol
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 %s ($%s) Alert!\n\n", name, tok.Symbol)
	fmt.Fprintf(&b, "💎 MC: %s\n", token.FormatUSD(tok.MarketCap))
	fmt.Fprintf(&b, "💧 Liq: %s\n", token.FormatUSD(tok.Liquidity))

	if tok.Holders > 0 {
		fmt.Fprintf(&b, "👥 %s holders - %s\n", token.FormatCount(tok.Holders), holdersBucket(tok.Holders))
	}
	fmt.Fprintf(&b, "📊 %s\n", liquidityBucket(tok.Liquidity))
	if tok.PriceChange != 0 {
		fmt.Fprintf(&b, "📈 %s price movement\n", token.FormatPercent(tok.PriceChange))
	}
	b.WriteString("\n#Solana #SolanaMemes")

	return b.String(), nil
}

func holdersBucket(holders int64) string {
	switch {
	case holders < 50:
		return "early stage"
	case holders < 200:
		return "growing community"
	default:
		return "established holder base"
	}
}

func liquidityBucket(liq float64) string {
	switch {
	case liq > 100_000:
		return "deep liquidity"
	case liq > 50_000:
		return "healthy liquidity"
	default:
		return "developing liquidity"
	}
}
