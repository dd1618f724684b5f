package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/application/services/deduction"
	"github.com/vsinha/bakeryplan/pkg/application/services/orchestration"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/events"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// Create repositories
	catalog := memory.NewCatalogRepository(2, 4)
	supplies := memory.NewSupplyRepository()

	// Set up a small morning bake
	setupMorningBake(catalog, supplies)

	eventStore := events.NewInMemoryEventStore()
	planner := planning.NewPlanner(catalog, catalog, supplies)
	config := deduction.DefaultConfig()
	config.Events = eventStore
	committer := deduction.NewCommitter(supplies, config)
	orchestrator := orchestration.NewProductionOrchestrator(planner, committer, orchestration.Options{Events: eventStore})

	sess, err := orchestrator.StartSession(ctx)
	if err != nil {
		fmt.Printf("❌ Could not start session: %v\n", err)
		return
	}
	defer orchestrator.EndSession(sess)

	// Build the request set the way a UI would, one tap at a time
	_ = sess.SetQuantity("concha", 40)
	_, _ = sess.AdjustQuantity("concha", 10)
	_ = sess.SetQuantity("bolillo", 120)

	fmt.Println("🥐 Planning the morning bake...")
	plan, err := orchestrator.PlanSession(ctx, sess)
	if err != nil {
		fmt.Printf("❌ Planning failed: %v\n", err)
		return
	}
	fmt.Println(orchestrator.Present(plan))

	if list, err := orchestrator.ExportShoppingList(plan); err == nil {
		fmt.Println(list)
	}

	fmt.Println("✅ Confirming production...")
	result, err := orchestrator.ConfirmProduction(ctx, sess, plan)
	if err != nil {
		fmt.Printf("❌ Confirmation failed: %v\n", err)
		return
	}
	fmt.Printf("Outcome: %s\n", result.Outcome)
	for _, change := range result.Changes {
		fmt.Printf("  %-10s %8s -> %8s %s\n",
			change.Name,
			change.Before.StringFixed(planning.DisplayPrecision),
			change.After.StringFixed(planning.DisplayPrecision),
			change.Unit)
	}

	recorded, _ := eventStore.ReadAllEvents(0)
	fmt.Printf("\n📜 %d events recorded\n", len(recorded))
}

func setupMorningBake(catalog *memory.CatalogRepository, supplies *memory.SupplyRepository) {
	catalog.AddProduct(entities.Product{
		ID: "concha", Name: "Concha de vainilla",
		SalePrice: decimal.NewFromInt(14), ProductionCost: decimal.NewFromInt(5), Active: true,
	})
	catalog.AddProduct(entities.Product{
		ID: "bolillo", Name: "Bolillo",
		SalePrice: decimal.NewFromInt(3), ProductionCost: decimal.RequireFromString("1.2"), Active: true,
	})

	catalog.AddRecipeLine(entities.RecipeLine{ID: "r1", ProductID: "concha", SupplyID: "flour", SupplyName: "Harina", Quantity: decimal.RequireFromString("0.2"), Unit: "kg"})
	catalog.AddRecipeLine(entities.RecipeLine{ID: "r2", ProductID: "concha", SupplyID: "sugar", SupplyName: "Azúcar", Quantity: decimal.RequireFromString("0.05"), Unit: "kg"})
	catalog.AddRecipeLine(entities.RecipeLine{ID: "r3", ProductID: "bolillo", SupplyID: "flour", SupplyName: "Harina", Quantity: decimal.RequireFromString("0.06"), Unit: "kg"})
	catalog.AddRecipeLine(entities.RecipeLine{ID: "r4", ProductID: "bolillo", SupplyID: "yeast", SupplyName: "Levadura", Quantity: decimal.RequireFromString("0.002"), Unit: "kg"})

	supplies.AddSupply(entities.Supply{ID: "flour", Name: "Harina", CurrentStock: decimal.NewFromInt(15), Unit: "kg", UnitCost: decimal.RequireFromString("18.5")})
	supplies.AddSupply(entities.Supply{ID: "sugar", Name: "Azúcar", CurrentStock: decimal.NewFromInt(5), Unit: "kg", UnitCost: decimal.NewFromInt(22)})
	supplies.AddSupply(entities.Supply{ID: "yeast", Name: "Levadura", CurrentStock: decimal.RequireFromString("0.5"), Unit: "kg", UnitCost: decimal.NewFromInt(90)})
}
