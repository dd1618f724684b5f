package deduction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/events"
	infratesting "github.com/vsinha/bakeryplan/pkg/infrastructure/testing"
)

func testConfig() Config {
	return Config{
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		Now:         fixtures.Now,
	}
}

func makePlan(t *testing.T, data *fixtures.BakeryData, supplies repositories.SupplyRepository, requests ...entities.ProductionRequest) *dto.ProductionPlan {
	t.Helper()
	planner := planning.NewPlannerWithConfig(data.Catalog, data.Catalog, supplies, planning.PlannerConfig{Now: fixtures.Now})
	ctx := context.Background()
	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)
	plan, err := planner.PlanProduction(ctx, sess, requests)
	require.NoError(t, err)
	require.Empty(t, plan.Issues)
	return plan
}

func stockOf(t *testing.T, data *fixtures.BakeryData, id entities.SupplyID) decimal.Decimal {
	t.Helper()
	supply, err := data.Supplies.GetSupply(id)
	require.NoError(t, err)
	return supply.CurrentStock
}

func assertStock(t *testing.T, data *fixtures.BakeryData, id entities.SupplyID, expected string) {
	t.Helper()
	actual := stockOf(t, data, id)
	assert.Truef(t, decimal.RequireFromString(expected).Equal(actual), "%s: expected %s, got %s", id, expected, actual)
}

func TestCommit_ShortPlanGoesNegative(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	store := events.NewInMemoryEventStore()
	config := testConfig()
	config.Events = store
	committer := NewCommitter(data.Supplies, config)

	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 50})
	require.True(t, plan.HasShortage())

	result, err := committer.Commit(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, dto.Committed, result.Outcome)
	assert.True(t, result.Succeeded())
	assert.True(t, result.NegativeStock)
	assert.Equal(t, 1, result.Attempts)
	require.Len(t, result.Changes, 2)
	assert.True(t, result.Changes[0].NegativeStock)
	assert.False(t, result.Changes[1].NegativeStock)

	assertStock(t, data, fixtures.Flour, "-2")
	assertStock(t, data, fixtures.Sugar, "2.5")
	assert.True(t, plan.Confirmed())

	movements := data.Supplies.GetMovements()
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, result.CommitID, m.CommitID)
		assert.Equal(t, entities.MovementReasonProduction, m.Reason)
	}

	recorded, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	require.Len(t, recorded, 3)
	assert.Equal(t, events.ProductionCommittedEvent, recorded[2].Type())
}

func TestCommit_PlanIsSingleUse(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	committer := NewCommitter(data.Supplies, testConfig())
	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 10})

	_, err := committer.Commit(context.Background(), plan)
	require.NoError(t, err)

	_, err = committer.Commit(context.Background(), plan)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assertStock(t, data, fixtures.Flour, "6")

	_, err = committer.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestCommit_FailureAfterKWritesRollsBackEverything(t *testing.T) {
	// pan de muerto deducts flour, butter and sugar
	for k := 0; k < 3; k++ {
		t.Run(fmt.Sprintf("fail after %d writes", k), func(t *testing.T) {
			data := fixtures.BuildBakeryTestData()
			faulty := infratesting.NewFaultyStore(data.Supplies).FailAfter(k, errors.New("disk full"))
			committer := NewCommitter(faulty, testConfig())
			plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

			result, err := committer.Commit(context.Background(), plan)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "disk full")
			assert.Equal(t, dto.RolledBack, result.Outcome)
			assert.Empty(t, result.Changes)
			assert.NotEmpty(t, result.Reason)
			assert.False(t, plan.Confirmed())

			assertStock(t, data, fixtures.Flour, "8")
			assertStock(t, data, fixtures.Butter, "1")
			assertStock(t, data, fixtures.Sugar, "5")
			// k deductions and k restorations reached the store
			assert.Len(t, faulty.Updates(), 2*k)
		})
	}
}

func TestCommit_RollbackFailureIsReported(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies).
		FailAfter(2, errors.New("disk full")).
		FailRestore(fixtures.Flour)
	committer := NewCommitter(faulty, testConfig())
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	require.Error(t, err)
	assert.Equal(t, dto.RollbackFailed, result.Outcome)
	assert.Equal(t, []entities.SupplyID{fixtures.Flour}, result.Unrestored)
	assertStock(t, data, fixtures.Flour, "7")
	assertStock(t, data, fixtures.Butter, "1")
	assertStock(t, data, fixtures.Sugar, "5")
}

func TestCommit_RetriesTransientFailures(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies).FailTransient(2)
	committer := NewCommitter(faulty, testConfig())
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	require.NoError(t, err)
	assert.Equal(t, dto.Committed, result.Outcome)
	assert.Equal(t, 5, result.Attempts)
	assertStock(t, data, fixtures.Flour, "7")
	assertStock(t, data, fixtures.Butter, "0.8")
	assertStock(t, data, fixtures.Sugar, "4.7")
}

func TestCommit_TimeoutAfterAppliedDeductionIsNotResent(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries uint64
	}{
		{name: "with retries", maxRetries: 3},
		{name: "retries disabled", maxRetries: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := fixtures.BuildSimpleTestData()
			faulty := infratesting.NewFaultyStore(data.Supplies).TimeoutAfterDeduct(1)
			config := testConfig()
			config.MaxRetries = tt.maxRetries
			committer := NewCommitter(faulty, config)
			plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 50})

			result, err := committer.Commit(context.Background(), plan)

			require.NoError(t, err)
			assert.Equal(t, dto.Committed, result.Outcome)
			assert.Equal(t, 2, faulty.Calls(), "the timed-out flour write must not be sent again")
			assertStock(t, data, fixtures.Flour, "-2")
			assertStock(t, data, fixtures.Sugar, "2.5")
			require.Len(t, result.Changes, 2)
			assert.True(t, result.Changes[0].After.Equal(decimal.NewFromInt(-2)))
		})
	}
}

func TestCommit_TimeoutAfterAppliedRestoreIsNotResent(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies).
		FailAfter(1, errors.New("disk full")).
		TimeoutAfterRestore(1)
	committer := NewCommitter(faulty, testConfig())
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	require.Error(t, err)
	assert.Equal(t, dto.RolledBack, result.Outcome)
	assert.Empty(t, result.Unrestored)
	assertStock(t, data, fixtures.Flour, "8")
	assertStock(t, data, fixtures.Butter, "1")
	assertStock(t, data, fixtures.Sugar, "5")

	updates := faulty.Updates()
	require.Len(t, updates, 2, "one deduction and exactly one restore")
	assert.True(t, updates[1].Delta.Equal(decimal.NewFromInt(1)))
}

func TestCommit_InterruptedWriteWithForeignChangeIsReported(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies).TimeoutAfterDeduct(1)
	faulty.BeforeUpdate(func(call int, id entities.SupplyID) {
		if call == 1 {
			// another writer restocks while our write is in flight
			_, _ = data.Supplies.UpdateStock(context.Background(), id, decimal.NewFromInt(4))
		}
	})
	committer := NewCommitter(faulty, testConfig())
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	assert.ErrorIs(t, err, entities.ErrCommitConflict)
	assert.Equal(t, dto.RollbackFailed, result.Outcome)
	assert.Equal(t, []entities.SupplyID{fixtures.Flour}, result.Unrestored)
	assert.Equal(t, 1, faulty.Calls(), "an unexplained stock value is never resent")
	// 8 + 4 restock - 2 landed deduction
	assertStock(t, data, fixtures.Flour, "10")
	assertStock(t, data, fixtures.Sugar, "5")
}

func TestCommit_GivesUpAfterMaxRetries(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies).FailTransient(10)
	config := testConfig()
	config.MaxRetries = 2
	committer := NewCommitter(faulty, config)
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	assert.ErrorIs(t, err, entities.ErrTransientIO)
	assert.Equal(t, dto.RolledBack, result.Outcome)
	assert.Equal(t, 3, faulty.Calls())
	assertStock(t, data, fixtures.Flour, "8")
}

func TestCommit_StockChangedSincePlanning(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	committer := NewCommitter(data.Supplies, testConfig())
	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 50})

	// restock between planning and confirmation
	_, err := data.Supplies.UpdateStock(context.Background(), fixtures.Flour, decimal.NewFromInt(5))
	require.NoError(t, err)

	result, err := committer.Commit(context.Background(), plan)

	assert.ErrorIs(t, err, entities.ErrCommitConflict)
	assert.Equal(t, dto.Rejected, result.Outcome)
	assert.False(t, plan.Confirmed())
	assertStock(t, data, fixtures.Flour, "13")
	assertStock(t, data, fixtures.Sugar, "5")
	for _, m := range data.Supplies.GetMovements() {
		assert.NotEqual(t, result.CommitID, m.CommitID, "a rejected commit writes nothing")
	}
}

func TestCommit_ConcurrentWriterDetectedMidCommit(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	faulty := infratesting.NewFaultyStore(data.Supplies)
	faulty.BeforeUpdate(func(call int, id entities.SupplyID) {
		if call == 2 {
			_, _ = data.Supplies.UpdateStock(context.Background(), id, decimal.NewFromInt(1))
		}
	})
	committer := NewCommitter(faulty, testConfig())
	plan := makePlan(t, data, faulty, entities.ProductionRequest{ProductID: fixtures.Pan, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	assert.ErrorIs(t, err, entities.ErrCommitConflict)
	assert.Equal(t, dto.RolledBack, result.Outcome)
	assertStock(t, data, fixtures.Flour, "8")
	// the other writer's restock survives; our deduction does not
	assertStock(t, data, fixtures.Butter, "2")
	assertStock(t, data, fixtures.Sugar, "5")
}

func TestCommit_TransactionalStoreRetriesTransientFailures(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	flaky := infratesting.NewFlakyTransactor(data.Supplies, 2)
	committer := NewCommitter(flaky, testConfig())
	plan := makePlan(t, data, flaky, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	require.NoError(t, err)
	assert.Equal(t, 3, flaky.Attempts())
	assert.Equal(t, 3, result.Attempts)
	assertStock(t, data, fixtures.Flour, "6")
	assertStock(t, data, fixtures.Sugar, "4.5")
}

func TestCommit_CancelledBeforeFirstWrite(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	committer := NewCommitter(data.Supplies, testConfig())
	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := committer.Commit(ctx, plan)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, dto.Rejected, result.Outcome)
	assertStock(t, data, fixtures.Flour, "8")
}

func TestCommit_SkipsUntrackedSupplies(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	data.Catalog.AddRecipeLine(*fixtures.MustCreateRecipeLine(fixtures.ConchaVainilla, "vanilla", "Vanilla", "0.001", "l"))
	committer := NewCommitter(data.Supplies, testConfig())
	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.ConchaVainilla, Quantity: 10})

	result, err := committer.Commit(context.Background(), plan)

	require.NoError(t, err)
	assert.Equal(t, []entities.SupplyID{"vanilla"}, result.Skipped)
	assert.Len(t, result.Changes, 2)
}

func TestCommit_NothingToDeduct(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	committer := NewCommitter(data.Supplies, testConfig())
	plan := makePlan(t, data, data.Supplies, entities.ProductionRequest{ProductID: fixtures.Galleta, Quantity: 12})

	result, err := committer.Commit(context.Background(), plan)

	require.NoError(t, err)
	assert.Equal(t, dto.Committed, result.Outcome)
	assert.Empty(t, result.Changes)
	assert.True(t, plan.Confirmed())
}
