package criteria

import (
	"testing"

	"tokenherald/internal/token"
)

func TestMeetsExampleScenario(t *testing.T) {
	t.Parallel()
	th := Thresholds{
		MinMarketCap: 50_000,
		MinLiquidity: 20_000,
		Statuses:     []string{"active", "survival"},
	}
	tok := token.Token{Status: "ACTIVE", MarketCap: 80_000, Liquidity: 25_000}.Normalize()

	if !Meets(tok, th) {
		t.Fatal("expected token to meet criteria")
	}
}

func TestStatusOutsideSetFailsRegardlessOfMetrics(t *testing.T) {
	t.Parallel()
	th := Defaults()
	tok := token.Token{Status: "rugged", MarketCap: 9e9, Liquidity: 9e9}

	res := Evaluate(tok, th)
	if res.StatusOK {
		t.Fatal("status outside accepted set must fail")
	}
	if res.Pass() {
		t.Fatal("Pass() must be false when status fails")
	}
	// Other predicates must still be evaluated and reportable.
	if !res.MarketCapOK || !res.LiquidityOK {
		t.Fatal("metric predicates should still evaluate independently")
	}
}

func TestThresholdsAreInclusive(t *testing.T) {
	t.Parallel()
	th := Defaults()

	tests := []struct {
		name string
		tok  token.Token
		want bool
	}{
		{"below market cap", token.Token{Status: "active", MarketCap: 49_999.99, Liquidity: 20_000}, false},
		{"exactly market cap", token.Token{Status: "active", MarketCap: 50_000, Liquidity: 20_000}, true},
		{"below liquidity", token.Token{Status: "active", MarketCap: 50_000, Liquidity: 19_999.99}, false},
		{"exactly liquidity", token.Token{Status: "active", MarketCap: 50_000, Liquidity: 20_000}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Meets(tt.tok, th); got != tt.want {
				t.Fatalf("Meets = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAbsentMetricsFail(t *testing.T) {
	t.Parallel()
	// Missing metric fields default to zero, which must fail minimums.
	tok := token.Token{Status: "survival"}
	if Meets(tok, Defaults()) {
		t.Fatal("zero metrics must not qualify")
	}
}

func TestAcceptsStatusCaseInsensitive(t *testing.T) {
	t.Parallel()
	th := Thresholds{Statuses: []string{"Active", "SURVIVAL"}}

	for _, s := range []string{"active", "ACTIVE", "Survival", " survival "} {
		if !th.AcceptsStatus(s) {
			t.Fatalf("AcceptsStatus(%q) = false", s)
		}
	}
	if th.AcceptsStatus("announced") {
		t.Fatal("announced must not be accepted")
	}
	if th.AcceptsStatus("") {
		t.Fatal("empty status must not be accepted")
	}
}

func TestNormalizedStatuses(t *testing.T) {
	t.Parallel()
	th := Thresholds{Statuses: []string{"ACTIVE", " Survival", ""}}
	got := th.NormalizedStatuses()
	want := []string{"active", "survival"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
