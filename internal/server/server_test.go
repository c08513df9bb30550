package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokenherald/internal/services/status"
	"tokenherald/pkg/logx"
)

func newTestServer(t *testing.T) (*Service, *status.Service, *httptest.Server) {
	t.Helper()
	st := status.New(10, logx.Nop())
	svc := New(Config{Addr: "127.0.0.1:0"}, nil, st, logx.Nop())
	ts := httptest.NewServer(svc.routes())
	t.Cleanup(ts.Close)
	return svc, st, ts
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	_, st, ts := newTestServer(t)
	st.SetStoreConnected(true)
	st.SetTokenCount(7)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snap status.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.StoreConnected || snap.TokenCount != 7 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestStatusMethodGuard(t *testing.T) {
	t.Parallel()

	_, _, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHealthReflectsStore(t *testing.T) {
	t.Parallel()

	_, st, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status with store down = %d, want 503", resp.StatusCode)
	}

	st.SetStoreConnected(true)
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status with store up = %d, want 200", resp.StatusCode)
	}
}

func TestEventsStreamsSnapshots(t *testing.T) {
	t.Parallel()

	_, st, ts := newTestServer(t)
	st.SetTokenCount(1)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("first line = %q, want data: prefix", line)
	}

	var snap status.Snapshot
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.TokenCount != 1 {
		t.Errorf("token count = %d, want 1", snap.TokenCount)
	}

	// A later change produces another event on the open stream.
	st.SetTokenCount(2)
	deadline := time.After(3 * time.Second)
	got := make(chan status.Snapshot, 1)
	go func() {
		for {
			l, err := rd.ReadString('\n')
			if err != nil {
				return
			}
			l = strings.TrimSpace(l)
			if !strings.HasPrefix(l, "data: ") {
				continue
			}
			var s status.Snapshot
			if json.Unmarshal([]byte(strings.TrimPrefix(l, "data: ")), &s) == nil && s.TokenCount == 2 {
				got <- s
				return
			}
		}
	}()
	select {
	case <-got:
	case <-deadline:
		t.Fatal("no follow-up event received")
	}
}
