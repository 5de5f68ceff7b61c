package models

import (
	"sort"
	"time"
)

// Snapshot is the view of market history handed to a strategy on one
// simulated date: for each ticker, all bars up to and including that date,
// ascending. A snapshot never contains data past its date; that is what
// makes strategy decisions free of look-ahead by construction.
type Snapshot struct {
	Date    time.Time
	History map[string][]Bar
}

// Tickers lists the snapshot's tickers in sorted order. Strategies should
// iterate this rather than the History map so runs stay deterministic.
func (s *Snapshot) Tickers() []string {
	out := make([]string, 0, len(s.History))
	for ticker := range s.History {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// Bar returns the ticker's bar for the snapshot date.
func (s *Snapshot) Bar(ticker string) (Bar, bool) {
	bars := s.History[ticker]
	if len(bars) == 0 {
		return Bar{}, false
	}
	last := bars[len(bars)-1]
	if !Day(last.Time()).Equal(Day(s.Date)) {
		return Bar{}, false
	}
	return last, true
}

// Close returns the ticker's closing price on the snapshot date.
func (s *Snapshot) Close(ticker string) (float64, bool) {
	bar, ok := s.Bar(ticker)
	if !ok {
		return 0, false
	}
	return bar.Close, true
}

// Closes returns the full ascending close series for a ticker.
func (s *Snapshot) Closes(ticker string) []float64 {
	bars := s.History[ticker]
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// AvgDailyVolume returns the mean volume over the trailing lookback bars,
// or 0 when no volume data is available. Callers treat 0 as "unknown".
func (s *Snapshot) AvgDailyVolume(ticker string, lookback int) float64 {
	bars := s.History[ticker]
	if len(bars) == 0 || lookback <= 0 {
		return 0
	}
	if len(bars) < lookback {
		lookback = len(bars)
	}
	var sum float64
	for _, b := range bars[len(bars)-lookback:] {
		sum += b.Volume
	}
	return sum / float64(lookback)
}
