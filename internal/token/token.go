// Package token defines the canonical token record flowing through the
// announcement pipeline. Store rows are normalized into this one shape
// at the selection boundary; downstream stages never touch raw rows.
package token

import (
	"strings"
	"time"
)

// Known lifecycle statuses. Status is free-form in the store; anything
// else is carried through normalized to lower case.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSurvival  = "survival"
	StatusAnnounced = "announced"
	StatusPoisoned  = "poisoned"
)

// Token is the canonical record for one discovered token.
//
// Missing numeric metrics are zero, which deliberately fails any
// minimum-threshold check: missing data does not qualify.
type Token struct {
	ID      string
	Name    string
	Symbol  string
	Address string

	MarketCap   float64
	Liquidity   float64
	Volume      float64
	Holders     int64
	Price       float64
	PriceChange float64 // 24h change, percent

	Status       string
	DiscoveredAt time.Time

	Announced    bool
	AnnouncedAt  time.Time
	AnnounceID   string
	AnnounceText string
	Poisoned     bool
}

// Normalize fills derivable defaults and canonicalizes the status so
// every pipeline stage sees one consistent shape.
func (t Token) Normalize() Token {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Symbol = strings.TrimSpace(t.Symbol)
	t.Address = strings.TrimSpace(t.Address)

	if t.Symbol == "" && t.Name != "" {
		sym := t.Name
		if len(sym) > 4 {
			sym = sym[:4]
		}
		t.Symbol = strings.ToUpper(sym)
	}

	t.Status = NormalizeStatus(t.Status)
	if t.Status == "" {
		t.Status = StatusPending
	}

	if t.DiscoveredAt.IsZero() {
		t.DiscoveredAt = time.Now().UTC()
	}
	return t
}

// NormalizeStatus maps the store's free-form status strings onto the
// canonical lower-case form used for comparisons.
func NormalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
