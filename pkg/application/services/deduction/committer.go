package deduction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/events"
)

// Config holds tuning for the committer
type Config struct {
	// MaxRetries bounds retries of a single store call that failed with a
	// transient error. Zero disables retrying.
	MaxRetries uint64
	// BackoffBase is the first retry delay; later delays grow exponentially
	BackoffBase time.Duration
	// BackoffMax caps a single retry delay
	BackoffMax time.Duration
	// Metrics receives commit telemetry (nil = discarded)
	Metrics Metrics
	// Events records commit outcomes and stock movements (nil = not recorded)
	Events events.EventStore
	// Now is the clock used for events (nil = time.Now)
	Now func() time.Time
}

// DefaultConfig returns the committer defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		BackoffBase: 100 * time.Millisecond,
		BackoffMax:  2 * time.Second,
	}
}

// Committer deducts a confirmed plan's requirements from stock, all or nothing
type Committer struct {
	supplies repositories.SupplyRepository
	config   Config
	metrics  Metrics
	now      func() time.Time

	// serializes commits so two plans never interleave their writes
	mu sync.Mutex
}

// NewCommitter creates a committer over the given stock store. Stores that
// implement repositories.StockTransactor get a single atomic write; others
// get sequential writes with compensating rollback.
func NewCommitter(supplies repositories.SupplyRepository, config Config) *Committer {
	defaults := DefaultConfig()
	if config.BackoffBase <= 0 {
		config.BackoffBase = defaults.BackoffBase
	}
	if config.BackoffMax <= 0 {
		config.BackoffMax = defaults.BackoffMax
	}
	c := &Committer{
		supplies: supplies,
		config:   config,
		metrics:  config.Metrics,
		now:      config.Now,
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// deduction is one supply's planned decrement
type deduction struct {
	supplyID entities.SupplyID
	name     string
	unit     string
	required decimal.Decimal
	expected decimal.Decimal
}

// applied is a decrement that reached the store
type applied struct {
	deduction
	after decimal.Decimal
}

// commitRun carries per-commit state
type commitRun struct {
	result  *dto.CommitResult
	started time.Time
}

// Commit applies every requirement of plan as a negative stock adjustment.
//
// Before any write the current stock is re-read; a supply that changed since
// the plan's snapshot fails the commit with ErrCommitConflict. Once the first
// write is issued the caller's cancellation is ignored so the commit always
// ends either fully applied or rolled back. The result reports which
// happened: Rejected when nothing was written, RolledBack or RollbackFailed
// when writes were undone. A non-nil error always accompanies a result that
// did not commit.
func (c *Committer) Commit(ctx context.Context, plan *dto.ProductionPlan) (*dto.CommitResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan to confirm", entities.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if plan.Confirmed() {
		return nil, fmt.Errorf("%w: plan has already been confirmed; plan again before confirming", entities.ErrInvalidInput)
	}

	run := &commitRun{
		result:  &dto.CommitResult{CommitID: uuid.New(), Outcome: dto.Rejected},
		started: time.Now(),
	}
	logger := log.With().
		Str("session_id", plan.SessionID.String()).
		Str("commit_id", run.result.CommitID.String()).
		Logger()

	deductions := c.collect(plan, run.result)

	if err := ctx.Err(); err != nil {
		return c.fail(plan, run, fmt.Errorf("commit cancelled before any write: %w", err))
	}
	if err := c.revalidate(ctx, deductions, run.result); err != nil {
		return c.fail(plan, run, err)
	}

	if len(deductions) == 0 {
		logger.Info().Int("skipped", len(run.result.Skipped)).Msg("nothing to deduct")
		return c.succeed(plan, run), nil
	}

	// from here on the commit runs to completion or rollback
	writeCtx := context.WithoutCancel(ctx)

	var err error
	if tx, ok := c.supplies.(repositories.StockTransactor); ok {
		err = c.commitAtomic(writeCtx, tx, deductions, run.result)
	} else {
		err = c.commitSequential(writeCtx, deductions, run.result)
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("outcome", run.result.Outcome.String()).
			Interface("unrestored", run.result.Unrestored).
			Msg("production commit failed")
		return c.fail(plan, run, err)
	}

	logger.Info().
		Int("supplies", len(run.result.Changes)).
		Int("attempts", run.result.Attempts).
		Bool("negative_stock", run.result.NegativeStock).
		Msg("production committed")
	return c.succeed(plan, run), nil
}

// collect turns the plan's ingredients into deductions, skipping supplies the
// store did not know about at planning time
func (c *Committer) collect(plan *dto.ProductionPlan, result *dto.CommitResult) []deduction {
	deductions := make([]deduction, 0, len(plan.Ingredients))
	for _, ing := range plan.Ingredients {
		if !ing.Required.IsPositive() {
			continue
		}
		supply, tracked := plan.Snapshot.Lookup(ing.SupplyID)
		if ing.Untracked || !tracked {
			result.Skipped = append(result.Skipped, ing.SupplyID)
			continue
		}
		deductions = append(deductions, deduction{
			supplyID: ing.SupplyID,
			name:     ing.Name,
			unit:     ing.Unit,
			required: ing.Required,
			expected: supply.CurrentStock,
		})
	}
	return deductions
}

// revalidate re-reads stock and fails if any deducted supply drifted from the
// plan's snapshot
func (c *Committer) revalidate(ctx context.Context, deductions []deduction, result *dto.CommitResult) error {
	if len(deductions) == 0 {
		return nil
	}

	var listed []*entities.Supply
	err := c.retry(ctx, result, func() error {
		var err error
		listed, err = c.supplies.ListSupplies(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to re-read stock before commit: %w", err)
	}

	current := make(map[entities.SupplyID]decimal.Decimal, len(listed))
	for _, s := range listed {
		if s != nil {
			current[s.ID] = s.CurrentStock
		}
	}

	for _, d := range deductions {
		stock, ok := current[d.supplyID]
		if !ok {
			return fmt.Errorf("supply %s was removed after planning: %w", d.supplyID, entities.ErrCommitConflict)
		}
		if !stock.Equal(d.expected) {
			return fmt.Errorf("supply %s stock changed from %s to %s after planning: %w",
				d.supplyID, d.expected, stock, entities.ErrCommitConflict)
		}
	}
	return nil
}

// commitAtomic writes every deduction in one store transaction
func (c *Committer) commitAtomic(ctx context.Context, tx repositories.StockTransactor, deductions []deduction, result *dto.CommitResult) error {
	adjustments := make([]entities.StockAdjustment, len(deductions))
	for i, d := range deductions {
		expected := d.expected
		adjustments[i] = entities.StockAdjustment{
			SupplyID: d.supplyID,
			Delta:    d.required.Neg(),
			Expected: &expected,
		}
	}

	var movements []entities.StockMovement
	err := c.retry(ctx, result, func() error {
		result.Attempts++
		var err error
		movements, err = tx.ApplyStockAdjustments(ctx, result.CommitID, adjustments)
		return err
	})
	if err != nil {
		result.Outcome = dto.RolledBack
		return fmt.Errorf("stock transaction failed: %w", err)
	}

	byID := make(map[entities.SupplyID]entities.StockMovement, len(movements))
	for _, m := range movements {
		byID[m.SupplyID] = m
	}
	for _, d := range deductions {
		m, ok := byID[d.supplyID]
		if !ok {
			c.record(result, d, d.expected, d.expected.Sub(d.required))
			continue
		}
		c.record(result, d, m.Before, m.After)
	}
	return nil
}

// commitSequential writes deductions one at a time, checking each write
// against the expected stock and undoing every applied write on failure
func (c *Committer) commitSequential(ctx context.Context, deductions []deduction, result *dto.CommitResult) error {
	done := make([]applied, 0, len(deductions))

	for _, d := range deductions {
		after, err := c.write(ctx, result, d.supplyID, d.expected, d.required.Neg(), true)
		if err != nil {
			if errors.Is(err, errWriteUnknown) {
				result.Unrestored = append(result.Unrestored, d.supplyID)
			}
			return c.rollback(ctx, done, result, fmt.Errorf("failed to deduct %s: %w", d.supplyID, err))
		}

		want := d.expected.Sub(d.required)
		done = append(done, applied{deduction: d, after: after})
		if !after.Equal(want) {
			return c.rollback(ctx, done, result, fmt.Errorf(
				"supply %s stock is %s after deduction, expected %s: %w",
				d.supplyID, after, want, entities.ErrCommitConflict))
		}
	}

	for _, a := range done {
		c.record(result, a.deduction, a.expected, a.after)
	}
	return nil
}

// rollback restores applied deductions in reverse order. It reports
// RollbackFailed with the supplies it could not restore.
func (c *Committer) rollback(ctx context.Context, done []applied, result *dto.CommitResult, cause error) error {
	for i := len(done) - 1; i >= 0; i-- {
		d := done[i]
		if _, err := c.write(ctx, result, d.supplyID, d.after, d.required, false); err != nil {
			log.Error().
				Str("commit_id", result.CommitID.String()).
				Str("supply_id", string(d.supplyID)).
				Str("amount", d.required.String()).
				Err(err).
				Msg("failed to restore stock during rollback")
			result.Unrestored = append(result.Unrestored, d.supplyID)
		}
	}

	if len(result.Unrestored) > 0 {
		result.Outcome = dto.RollbackFailed
		return fmt.Errorf("%w; rollback left %d supplies unrestored", cause, len(result.Unrestored))
	}
	result.Outcome = dto.RolledBack
	return cause
}

// errWriteUnknown marks a write whose effect on stock could not be determined
var errWriteUnknown = errors.New("write outcome unknown")

// write applies delta to a supply whose stock is expected to be before and
// returns the stock after the write. UpdateStock is not idempotent and a
// transient failure may arrive after the store applied it, so the supply is
// re-read before any resend: stock at before+delta means the write landed,
// stock at before means it is safe to resend, anything else is a conflict.
func (c *Committer) write(
	ctx context.Context,
	result *dto.CommitResult,
	id entities.SupplyID,
	before, delta decimal.Decimal,
	countAttempts bool,
) (decimal.Decimal, error) {
	target := before.Add(delta)
	var after decimal.Decimal
	uncertain := false

	settle := func() (bool, error) {
		stock, err := c.currentStock(ctx, id)
		if err != nil {
			return false, err
		}
		switch {
		case stock.Equal(target):
			after = stock
			return true, nil
		case stock.Equal(before):
			return false, nil
		default:
			return false, fmt.Errorf("supply %s stock is %s after an interrupted write, expected %s or %s: %w: %w",
				id, stock, before, target, errWriteUnknown, entities.ErrCommitConflict)
		}
	}

	err := c.retry(ctx, result, func() error {
		if uncertain {
			landed, err := settle()
			if err != nil || landed {
				return err
			}
			uncertain = false
		}
		if countAttempts {
			result.Attempts++
		}
		updated, err := c.supplies.UpdateStock(ctx, id, delta)
		if err != nil {
			uncertain = entities.IsTransient(err)
			return err
		}
		after = updated.CurrentStock
		return nil
	})
	if err != nil && uncertain {
		// retries ran out on a timeout; the last write may still have landed
		landed, settleErr := settle()
		if settleErr == nil && landed {
			return after, nil
		}
		if settleErr != nil {
			if !errors.Is(settleErr, errWriteUnknown) {
				settleErr = fmt.Errorf("supply %s: %w: %w", id, errWriteUnknown, settleErr)
			}
			return decimal.Decimal{}, settleErr
		}
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return after, nil
}

// currentStock reads one supply's stock through the store listing
func (c *Committer) currentStock(ctx context.Context, id entities.SupplyID) (decimal.Decimal, error) {
	listed, err := c.supplies.ListSupplies(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for _, s := range listed {
		if s != nil && s.ID == id {
			return s.CurrentStock, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("supply %s disappeared during commit: %w", id, entities.ErrCommitConflict)
}

// retry runs op, retrying transient failures with exponential backoff
func (c *Committer) retry(ctx context.Context, result *dto.CommitResult, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.BackoffBase
	b.MaxInterval = c.config.BackoffMax
	b.MaxElapsedTime = 0

	first := true
	return backoff.Retry(func() error {
		if !first {
			c.metrics.CommitRetried()
		}
		first = false

		err := op()
		if err != nil && !entities.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.config.MaxRetries), ctx))
}

func (c *Committer) record(result *dto.CommitResult, d deduction, before, after decimal.Decimal) {
	change := dto.StockChange{
		SupplyID:      d.supplyID,
		Name:          d.name,
		Unit:          d.unit,
		Deducted:      d.required,
		Before:        before,
		After:         after,
		NegativeStock: after.IsNegative(),
	}
	if change.NegativeStock {
		result.NegativeStock = true
		c.metrics.NegativeStock()
		log.Warn().
			Str("supply_id", string(d.supplyID)).
			Str("stock", after.String()).
			Msg("stock went negative; shortfall recorded")
	}
	result.Changes = append(result.Changes, change)
}

func (c *Committer) succeed(plan *dto.ProductionPlan, run *commitRun) *dto.CommitResult {
	result := run.result
	result.Outcome = dto.Committed
	plan.MarkConfirmed()

	now := c.now()
	for _, change := range result.Changes {
		events.Publish(c.config.Events, events.NewStockDeductedEvent(events.StockDeducted{
			CommitID: result.CommitID,
			SupplyID: change.SupplyID,
			Delta:    change.Deducted.Neg(),
			Before:   change.Before,
			After:    change.After,
		}, now))
	}
	events.Publish(c.config.Events, events.NewProductionCommittedEvent(events.ProductionCommitted{
		SessionID:     plan.SessionID,
		CommitID:      result.CommitID,
		Requests:      plan.Requests,
		Supplies:      len(result.Changes),
		NegativeStock: result.NegativeStock,
	}, now))

	c.metrics.CommitFinished(result.Outcome, time.Since(run.started))
	return result
}

func (c *Committer) fail(plan *dto.ProductionPlan, run *commitRun, err error) (*dto.CommitResult, error) {
	result := run.result
	result.Reason = err.Error()
	result.Changes = nil

	events.Publish(c.config.Events, events.NewProductionRolledBackEvent(events.ProductionRolledBack{
		SessionID:  plan.SessionID,
		CommitID:   result.CommitID,
		Reason:     result.Reason,
		Unrestored: result.Unrestored,
	}, c.now()))

	c.metrics.CommitFinished(result.Outcome, time.Since(run.started))
	if errors.Is(err, entities.ErrCommitConflict) {
		log.Warn().Str("commit_id", result.CommitID.String()).Err(err).Msg("commit rejected: stock changed since planning")
	}
	return result, err
}
