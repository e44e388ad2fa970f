package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

func TestCandleFeedLastPrice(t *testing.T) {
	feed := newCandleFeed(minuteCandles(flatFigi, 3, func(i int) int64 { return 100 + int64(i) }))

	tests := []struct {
		name    string
		at      time.Time
		want    int64
		wantErr bool
	}{
		{name: "exact candle time", at: sessionStart, want: 100},
		{name: "between candles", at: sessionStart.Add(90 * time.Second), want: 101},
		{name: "after last candle", at: sessionStart.Add(time.Hour), want: 102},
		{name: "before first candle", at: sessionStart.Add(-time.Minute), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := feed.LastPrice(flatFigi, tc.at)
			if tc.wantErr {
				if !errors.Is(err, NoPriceErr) {
					t.Fatalf("expected NoPriceErr, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.NewFromInt(tc.want)) {
				t.Errorf("got %s, want %d", got, tc.want)
			}
		})
	}
}

func TestCandleFeedWindow(t *testing.T) {
	feed := newCandleFeed(minuteCandles(flatFigi, 5, func(i int) int64 { return int64(i) }))

	window := feed.window(sessionStart.Add(3*time.Minute), 2)
	if len(window) != 2 {
		t.Fatalf("got %d candles, want 2", len(window))
	}
	if !window[0].Timestamp.Equal(sessionStart.Add(2 * time.Minute)) {
		t.Errorf("window start: got %v", window[0].Timestamp)
	}
	if !window[1].Timestamp.Equal(sessionStart.Add(3 * time.Minute)) {
		t.Errorf("window end: got %v", window[1].Timestamp)
	}

	// fewer candles than requested are returned as-is
	if got := feed.window(sessionStart, 3); len(got) != 1 {
		t.Errorf("short window: got %d candles, want 1", len(got))
	}
	if got := feed.window(sessionStart.Add(-time.Hour), 3); len(got) != 0 {
		t.Errorf("empty window: got %d candles, want 0", len(got))
	}
}

func TestCandleFeedSortsInput(t *testing.T) {
	candles := minuteCandles(flatFigi, 3, func(i int) int64 { return 100 + int64(i) })
	shuffled := []types.Candle{candles[2], candles[0], candles[1]}

	feed := newCandleFeed(shuffled)
	got, err := feed.LastPrice(flatFigi, sessionStart.Add(time.Minute))
	if err != nil {
		t.Fatalf("last price: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(101)) {
		t.Errorf("got %s, want 101", got)
	}
}

func TestStaticInstrument(t *testing.T) {
	src := staticInstrument{inst: types.Instrument{Figi: flatFigi, Lot: 10}}

	inst, err := src.Instrument(flatFigi)
	if err != nil || inst.Lot != 10 {
		t.Errorf("got %+v (%v)", inst, err)
	}
	if _, err := src.Instrument("OTHER"); err == nil {
		t.Error("expected an error for an unknown figi")
	}
}
