package sutra

import (
	"errors"
	"fmt"
	"time"
)

// ErrTrialTimeout marks a trial that exceeded its per-trial budget. It
// never propagates out of a sweep; the trial is recorded with the
// worst-case sentinel objective instead.
var ErrTrialTimeout = errors.New("trial timed out")

// InputError reports malformed configuration or order input and always
// surfaces synchronously to the caller, before any simulation starts.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...interface{}) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// StrategyError wraps a failure inside the strategy callback with the
// simulated date it happened on. It aborts only the run it occurred in.
type StrategyError struct {
	Date time.Time
	Err  error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy failed on %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// DataGapError reports a missing ticker/date row from the data provider.
type DataGapError struct {
	Ticker string
	Date   time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("no data for %s on %s", e.Ticker, e.Date.Format("2006-01-02"))
}
