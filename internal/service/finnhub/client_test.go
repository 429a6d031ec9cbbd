package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "k", BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, nil)
}

func TestDailyBars(t *testing.T) {
	from := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/candle" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "AAPL" || q.Get("resolution") != "D" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("from") != "1719705600" || q.Get("to") != "1751241600" {
			t.Errorf("unexpected window %s..%s", q.Get("from"), q.Get("to"))
		}
		if r.Header.Get("X-Finnhub-Token") != "k" {
			t.Errorf("missing token header")
		}
		_, _ = w.Write([]byte(`{"s":"ok","t":[1719792000,1719878400],"o":[1,2],"h":[1.5,2.5],"l":[0.5,1.5],"c":[1.2,2.2],"v":[100,200]}`))
	})

	bars, err := c.DailyBars(context.Background(), "AAPL", from, to)
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Close != 2.2 || bars[1].Volume != 200 {
		t.Fatalf("unexpected bar %+v", bars[1])
	}
	if got := bars[0].Date.Format("2006-01-02"); got != "2024-07-01" {
		t.Fatalf("unexpected date %s", got)
	}
}

func TestDailyBarsNoData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	})
	bars, err := c.DailyBars(context.Background(), "ZZZZ", time.Now().AddDate(-1, 0, 0), time.Now())
	if err != nil {
		t.Fatalf("no_data should not be an error: %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected no bars, got %d", len(bars))
	}
}

func TestDailyBarsErrors(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		want string
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"limit"}`))
		}, "429"},
		{"ragged", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"s":"ok","t":[1,2],"o":[1],"h":[1],"l":[1],"c":[1],"v":[1]}`))
		}, "ragged"},
		{"unknown status", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"s":"weird"}`))
		}, "unexpected status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.DailyBars(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
