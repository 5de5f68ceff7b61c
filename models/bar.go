package models

import "time"

// Bar is a single OHLCV row for one ticker. Timestamps are unix
// milliseconds so bars round-trip through CSV and SQL without a time
// format in every tag.
type Bar struct {
	Ticker    string  `csv:"ticker" db:"ticker"`
	Timestamp int64   `csv:"timestamp" db:"timestamp"`
	Open      float64 `csv:"open" db:"open"`
	High      float64 `csv:"high" db:"high"`
	Low       float64 `csv:"low" db:"low"`
	Close     float64 `csv:"close" db:"close"`
	Volume    float64 `csv:"volume" db:"volume"`
}

// Time returns the bar timestamp as UTC time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// ToTimestamp converts a time to the unix millisecond form used on Bar.
func ToTimestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// Day truncates a time to UTC midnight. Trading dates are compared at day
// granularity throughout the engine.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
