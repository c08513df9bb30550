package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeChannel struct {
	calls int
	err   error
}

func (f *fakeChannel) Publish(context.Context, string) (Receipt, error) {
	f.calls++
	if f.err != nil {
		return Receipt{}, f.err
	}
	return Receipt{ID: "msg-1", At: time.Now()}, nil
}

func (f *fakeChannel) Connected() bool { return true }

func TestLimitedPublisherFailsFastWhenExhausted(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{}
	// Quota of 2 per hour: the bucket starts full with 2 tokens and
	// refills far too slowly to matter within this test.
	p := Limit(ch, Budget{Quota: 2, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := p.Publish(ctx, "hi"); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	_, err := p.Publish(ctx, "over budget")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if ch.calls != 2 {
		t.Fatalf("channel called %d times, want 2 (no call past the budget)", ch.calls)
	}
}

func TestLimitedPublisherPropagatesChannelErrors(t *testing.T) {
	t.Parallel()
	want := &ConnectivityError{Collaborator: "telegram", Err: errors.New("dial tcp: timeout")}
	p := Limit(&fakeChannel{err: want}, Budget{Quota: 5, Window: time.Minute})

	_, err := p.Publish(context.Background(), "hi")
	if !IsConnectivity(err) {
		t.Fatalf("err = %v, want connectivity error", err)
	}
}

func TestSetBudgetRefills(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{}
	p := Limit(ch, Budget{Quota: 1, Window: time.Hour})
	ctx := context.Background()

	if _, err := p.Publish(ctx, "a"); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := p.Publish(ctx, "b"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}

	p.SetBudget(Budget{Quota: 3, Window: time.Hour})
	if _, err := p.Publish(ctx, "c"); err != nil {
		t.Fatalf("publish after budget swap: %v", err)
	}
}

func TestConnectivityErrorWrapping(t *testing.T) {
	t.Parallel()
	inner := errors.New("connection refused")
	err := &ConnectivityError{Collaborator: "store", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatal("Unwrap broken")
	}
	if err.Error() == "" {
		t.Fatal("empty message")
	}
}
