package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// CommitOutcome tells the caller what happened to stock during a commit
type CommitOutcome int

const (
	// Committed means every supply was decremented.
	Committed CommitOutcome = iota
	// RolledBack means the commit failed and stock is unchanged.
	RolledBack
	// RollbackFailed means the commit failed and some compensations could not
	// be applied; Unrestored lists the affected supplies.
	RollbackFailed
	// Rejected means the commit was refused before any write: the plan was
	// stale or the caller cancelled. Stock is unchanged.
	Rejected
)

// String method for CommitOutcome enum
func (o CommitOutcome) String() string {
	switch o {
	case Committed:
		return "Committed"
	case RolledBack:
		return "RolledBack"
	case RollbackFailed:
		return "RollbackFailed"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// MarshalText renders the outcome for JSON output
func (o CommitOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// StockChange is the effect of a commit on one supply
type StockChange struct {
	SupplyID      entities.SupplyID `json:"supply_id"`
	Name          string            `json:"name"`
	Unit          string            `json:"unit"`
	Deducted      decimal.Decimal   `json:"deducted"`
	Before        decimal.Decimal   `json:"before"`
	After         decimal.Decimal   `json:"after"`
	NegativeStock bool              `json:"negative_stock,omitempty"`
}

// CommitResult reports the outcome of confirming a production plan
type CommitResult struct {
	CommitID      uuid.UUID           `json:"commit_id"`
	Outcome       CommitOutcome       `json:"outcome"`
	Changes       []StockChange       `json:"changes,omitempty"`
	Skipped       []entities.SupplyID `json:"skipped,omitempty"`
	Unrestored    []entities.SupplyID `json:"unrestored,omitempty"`
	NegativeStock bool                `json:"negative_stock,omitempty"`
	Attempts      int                 `json:"attempts"`
	Reason        string              `json:"reason,omitempty"`
}

// Succeeded reports whether stock was deducted
func (r *CommitResult) Succeeded() bool {
	return r.Outcome == Committed
}
