package usecase

import "errors"

var (
	// ErrDataUnavailable means the symbol has too little usable price history.
	ErrDataUnavailable = errors.New("insufficient price data")
	// ErrUpstream means the price history provider failed.
	ErrUpstream = errors.New("price history provider failed")
	// ErrSimulationFault wraps an unexpected failure inside training or replay.
	ErrSimulationFault = errors.New("simulation fault")
	// ErrReportNotFound means no report was produced yet for the symbol.
	ErrReportNotFound = errors.New("no report for symbol")
)
