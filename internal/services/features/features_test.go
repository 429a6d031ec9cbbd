package features

import (
	"math"
	"testing"
	"time"

	"TradeSim/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func barsFrom(closes []float64) []models.PriceBar {
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Date: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func sampleStd(xs []float64) float64 {
	m := mean(xs)
	s := 0.0
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	return math.Sqrt(s / float64(len(xs)-1))
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestBuildTooFewBars(t *testing.T) {
	if got := Build(barsFrom(make([]float64, 20))); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if got := Build(nil); got != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestBuildMatchesRollingDefinitions(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + float64(i%4)
	}
	rows := Build(barsFrom(closes))
	if len(rows) != len(closes)-volWindow {
		t.Fatalf("expected %d rows, got %d", len(closes)-volWindow, len(rows))
	}

	for k, row := range rows {
		i := k + volWindow
		if !row.Date.Equal(day0.AddDate(0, 0, i)) {
			t.Fatalf("row %d: date %v does not line up with bar %d", k, row.Date, i)
		}
		if want := mean(closes[i-4 : i+1]); !near(row.MA5, want) {
			t.Fatalf("row %d: MA5 %v want %v", k, row.MA5, want)
		}
		if want := mean(closes[i-19 : i+1]); !near(row.MA20, want) {
			t.Fatalf("row %d: MA20 %v want %v", k, row.MA20, want)
		}

		rets := make([]float64, 0, volWindow)
		for j := i - volWindow + 1; j <= i; j++ {
			rets = append(rets, closes[j]/closes[j-1]-1)
		}
		if want := sampleStd(rets); math.Abs(row.Volatility-want) > 1e-7 {
			t.Fatalf("row %d: volatility %v want %v", k, row.Volatility, want)
		}

		var gain, loss float64
		for j := i - rsiWindow + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		want := 100 - 100/(1+gain/loss)
		if math.Abs(row.RSI-want) > 1e-7 {
			t.Fatalf("row %d: RSI %v want %v", k, row.RSI, want)
		}
	}
}

func TestBuildRSIWithoutLosses(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.01, float64(i))
	}
	rows := Build(barsFrom(closes))
	if len(rows) != 40 {
		t.Fatalf("expected 40 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.RSI != 100 {
			t.Fatalf("rising series should pin RSI at 100, got %v", r.RSI)
		}
		if r.Close <= r.MA20 {
			t.Fatalf("rising close should sit above MA20")
		}
	}
}

func TestBuildFlatSeriesHasNoDefinedRSI(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	if rows := Build(barsFrom(closes)); len(rows) != 0 {
		t.Fatalf("flat series should drop every row, got %d", len(rows))
	}
}

func TestNormalize(t *testing.T) {
	d := func(n int) time.Time { return day0.AddDate(0, 0, n) }
	in := []models.PriceBar{
		{Date: d(2), Close: 12},
		{Date: d(0), Close: 10},
		{Date: d(1), Close: 0},
		{Date: d(2), Close: 13},
		{Date: d(3), Close: math.NaN()},
		{Date: d(4), Close: 14},
	}
	got := Normalize(in)
	want := []float64{10, 13, 14}
	if len(got) != len(want) {
		t.Fatalf("expected %d bars, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Close != want[i] {
			t.Fatalf("bar %d: close %v want %v", i, got[i].Close, want[i])
		}
		if i > 0 && !got[i-1].Date.Before(got[i].Date) {
			t.Fatalf("bars not strictly increasing at %d", i)
		}
	}
	if in[0].Close != 12 {
		t.Fatalf("input slice was mutated")
	}
}
