package status

import (
	"testing"
	"time"

	"tokenherald/pkg/logx"
)

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	svc.SetRunning(true)
	svc.SetTokenCount(42)

	ch, cancel := svc.Subscribe(4)
	defer cancel()

	select {
	case snap := <-ch:
		if !snap.Running {
			t.Error("expected running=true in initial snapshot")
		}
		if snap.TokenCount != 42 {
			t.Errorf("token count = %d, want 42", snap.TokenCount)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	ch, cancel := svc.Subscribe(4)
	defer cancel()

	<-ch // initial

	svc.SetRunning(true)

	select {
	case snap := <-ch:
		if !snap.Running {
			t.Error("expected running=true after update")
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestSlowObserverNeverBlocks(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	_, cancel := svc.Subscribe(1)
	defer cancel()

	// The observer never drains its channel; mutators must still
	// return promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			svc.SetTokenCount(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutator blocked on a slow observer")
	}
}

func TestSlowObserverGetsNewestSnapshot(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	ch, cancel := svc.Subscribe(1)
	defer cancel()

	<-ch // initial

	for i := 1; i <= 5; i++ {
		svc.SetTokenCount(i)
	}

	// Drop-oldest keeps the most recent state for the laggard.
	snap := <-ch
	if snap.TokenCount != 5 {
		t.Errorf("token count = %d, want 5 (newest)", snap.TokenCount)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	ch, cancel := svc.Subscribe(4)
	<-ch
	cancel()
	cancel() // idempotent

	svc.SetRunning(true)

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
}

func TestRecordAnnouncement(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	at := time.Now()
	svc.RecordAnnouncement(Announcement{
		TokenID:   "tok-1",
		Symbol:    "MOON",
		Text:      "hello",
		PublishID: "-100:55",
		At:        at,
	})

	snap := svc.Snapshot()
	if snap.LastOutcome != OutcomeAnnounced {
		t.Errorf("outcome = %q, want %q", snap.LastOutcome, OutcomeAnnounced)
	}
	if snap.AnnouncedCount != 1 {
		t.Errorf("announced count = %d, want 1", snap.AnnouncedCount)
	}
	if snap.LastAnnouncement == nil || snap.LastAnnouncement.Symbol != "MOON" {
		t.Errorf("unexpected last announcement: %+v", snap.LastAnnouncement)
	}
	if len(snap.Activity) != 1 {
		t.Fatalf("activity length = %d, want 1", len(snap.Activity))
	}
}

func TestActivityCapped(t *testing.T) {
	t.Parallel()

	svc := New(3, logx.Nop())
	for i := 0; i < 10; i++ {
		svc.Log("info", "line")
	}
	svc.Log("warn", "last")

	snap := svc.Snapshot()
	if len(snap.Activity) != 3 {
		t.Fatalf("activity length = %d, want 3", len(snap.Activity))
	}
	if snap.Activity[0].Message != "last" {
		t.Errorf("newest entry = %q, want %q", snap.Activity[0].Message, "last")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	t.Parallel()

	svc := New(10, logx.Nop())
	svc.RecordAnnouncement(Announcement{TokenID: "tok-1", Symbol: "A", At: time.Now()})

	snap := svc.Snapshot()
	snap.LastAnnouncement.Symbol = "mutated"
	snap.Activity[0].Message = "mutated"

	again := svc.Snapshot()
	if again.LastAnnouncement.Symbol == "mutated" {
		t.Error("announcement copy shares memory with service state")
	}
	if again.Activity[0].Message == "mutated" {
		t.Error("activity copy shares memory with service state")
	}
}
