package planning

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
)

// DisplayPrecision is the number of decimals quantities are rounded to for display
const DisplayPrecision = 3

// ErrNothingToBuy is returned by ExportShoppingList when stock covers every ingredient
var ErrNothingToBuy = errors.New("nothing to buy: every ingredient is covered")

// Present renders a plan as a human-readable summary
func Present(plan *dto.ProductionPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Production plan: %s\n", describeProducts(plan))

	for _, product := range plan.Products {
		if !product.HasRecipe {
			fmt.Fprintf(&b, "  %s: no recipe configured\n", product.Name)
		}
	}
	for _, issue := range plan.Issues {
		name := issue.Name
		if name == "" {
			name = string(issue.ProductID)
		}
		fmt.Fprintf(&b, "  ⚠️  %s could not be planned: %s\n", name, issue.Message)
	}

	if len(plan.Ingredients) == 0 {
		b.WriteString("\nNo ingredients required.\n")
		return b.String()
	}

	b.WriteString("\n")
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ingredient\tRequired\tIn stock\tMissing\tStatus")
	for _, ing := range plan.Ingredients {
		status := ing.Status.String()
		if ing.Untracked {
			status += " (untracked)"
		}
		if ing.UnitConflict {
			status += " (mixed units)"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s %s\t%s %s\t%s\n",
			ing.Name,
			ing.Required.StringFixed(DisplayPrecision), ing.Unit,
			ing.Stock.StringFixed(DisplayPrecision), ing.Unit,
			ing.Missing.StringFixed(DisplayPrecision), ing.Unit,
			status)
	}
	w.Flush()

	short := len(plan.ShortIngredients())
	fmt.Fprintf(&b, "\n%d of %d ingredients short\n", short, len(plan.Ingredients))
	return b.String()
}

// ExportShoppingList renders the short ingredients as a checklist ready to be
// shared. It returns ErrNothingToBuy instead of an empty list.
func ExportShoppingList(plan *dto.ProductionPlan, generatedOn time.Time) (string, error) {
	short := plan.ShortIngredients()
	if len(short) == 0 {
		return "", ErrNothingToBuy
	}

	var b strings.Builder
	b.WriteString("🛒 *Shopping List - BakeryOS*\n")
	fmt.Fprintf(&b, "To produce: %s\n\n", describeProducts(plan))
	for _, ing := range short {
		fmt.Fprintf(&b, "[ ] %s %s of %s\n", ing.Missing.StringFixed(DisplayPrecision), ing.Unit, ing.Name)
	}
	fmt.Fprintf(&b, "\nGenerated on %s\n", generatedOn.Format("2006-01-02"))
	return b.String(), nil
}

func describeProducts(plan *dto.ProductionPlan) string {
	if len(plan.Products) == 0 {
		return "nothing"
	}
	parts := make([]string, 0, len(plan.Products))
	for _, p := range plan.Products {
		parts = append(parts, fmt.Sprintf("%dx %s", p.Quantity, p.Name))
	}
	return strings.Join(parts, ", ")
}
