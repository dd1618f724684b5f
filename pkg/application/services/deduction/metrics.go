package deduction

import (
	"time"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
)

// Metrics receives commit telemetry
type Metrics interface {
	CommitFinished(outcome dto.CommitOutcome, duration time.Duration)
	CommitRetried()
	NegativeStock()
}

type nopMetrics struct{}

func (nopMetrics) CommitFinished(dto.CommitOutcome, time.Duration) {}
func (nopMetrics) CommitRetried()                                  {}
func (nopMetrics) NegativeStock()                                  {}
