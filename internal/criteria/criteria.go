// Package criteria holds the pure go/no-go decision for announcing a
// token. It has no dependencies on the store or the pipeline so the
// policy can be tested and hot-reloaded in isolation.
package criteria

import (
	"strings"

	"tokenherald/internal/token"
)

// Thresholds is the announcement policy. Both minimums are inclusive.
type Thresholds struct {
	MinMarketCap float64
	MinLiquidity float64
	// Statuses is the accepted set, matched case-insensitively.
	Statuses []string
}

// Defaults mirrors the production policy the upstream scanner feeds.
func Defaults() Thresholds {
	return Thresholds{
		MinMarketCap: 50_000,
		MinLiquidity: 20_000,
		Statuses:     []string{token.StatusActive, token.StatusSurvival},
	}
}

// Result reports each predicate independently so a failing token can be
// explained in diagnostics without short-circuiting the others.
type Result struct {
	MarketCapOK bool
	LiquidityOK bool
	StatusOK    bool
}

// Pass reports whether all predicates hold.
func (r Result) Pass() bool { return r.MarketCapOK && r.LiquidityOK && r.StatusOK }

// Evaluate checks every predicate. Zero-valued metrics (absent in the
// store) fail the minimums by construction.
func Evaluate(tok token.Token, th Thresholds) Result {
	return Result{
		MarketCapOK: tok.MarketCap >= th.MinMarketCap,
		LiquidityOK: tok.Liquidity >= th.MinLiquidity,
		StatusOK:    th.AcceptsStatus(tok.Status),
	}
}

// Meets is the AND of all predicates.
func Meets(tok token.Token, th Thresholds) bool {
	return Evaluate(tok, th).Pass()
}

// AcceptsStatus reports whether a status belongs to the accepted set,
// ignoring case on both sides.
func (th Thresholds) AcceptsStatus(status string) bool {
	s := token.NormalizeStatus(status)
	if s == "" {
		return false
	}
	for _, a := range th.Statuses {
		if strings.EqualFold(strings.TrimSpace(a), s) {
			return true
		}
	}
	return false
}

// NormalizedStatuses returns the accepted set lower-cased, for use in
// store-side filters so SQL and evaluator apply one policy.
func (th Thresholds) NormalizedStatuses() []string {
	out := make([]string, 0, len(th.Statuses))
	for _, s := range th.Statuses {
		if n := token.NormalizeStatus(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
