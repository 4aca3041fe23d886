package utils

import (
	"time"

	"github.com/iov-one/htlc"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ htlc.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> error, success -> debug
func (r Logging) Check(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx, next htlc.Checker) (*htlc.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (r Logging) Deliver(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx, next htlc.Deliverer) (*htlc.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, false)
	return res, err
}

// logDuration writes information about the time and result to the logger
func logDuration(ctx htlc.Context, tx htlc.Tx, start time.Time, msg string, err error, lowPrio bool) {
	delta := time.Since(start)
	logger := htlc.GetLogger(ctx).With("duration", delta/time.Microsecond)
	if tx != nil {
		logger = logger.With("path", htlc.GetPath(tx))
	}

	// Message can be empty, but the entry still carries the duration
	// and the path.
	switch {
	case err != nil:
		logger.With("err", err).Error(msg)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
