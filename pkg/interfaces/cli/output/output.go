package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	"github.com/vsinha/bakeryplan/pkg/domain/services"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ValidateFormat rejects formats the writers do not know
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatCSV:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WritePlan renders a production plan in the given format
func WritePlan(w io.Writer, plan *dto.ProductionPlan, format string) error {
	switch format {
	case FormatText:
		_, err := io.WriteString(w, planning.Present(plan))
		return err
	case FormatJSON:
		return writeJSON(w, plan)
	case FormatCSV:
		return writePlanCSV(w, plan)
	default:
		return ValidateFormat(format)
	}
}

// WriteCommit renders the outcome of a confirmed production
func WriteCommit(w io.Writer, result *dto.CommitResult, format string) error {
	switch format {
	case FormatText:
		return writeCommitText(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeCommitCSV(w, result)
	default:
		return ValidateFormat(format)
	}
}

// WriteSuggestion renders the request set proposed from pending orders
func WriteSuggestion(w io.Writer, suggestion *planning.Suggestion, format string) error {
	switch format {
	case FormatText:
		return writeSuggestionText(w, suggestion)
	case FormatJSON:
		return writeJSON(w, suggestion)
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"product_id", "quantity"})
		for _, req := range suggestion.Requests {
			_ = cw.Write([]string{string(req.ProductID), strconv.FormatInt(req.Quantity, 10)})
		}
		cw.Flush()
		return cw.Error()
	default:
		return ValidateFormat(format)
	}
}

func writeJSON(w io.Writer, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')
	_, err = w.Write(jsonData)
	return err
}

func writePlanCSV(w io.Writer, plan *dto.ProductionPlan) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"supply_id", "name", "unit", "required", "stock", "missing", "status", "untracked", "unit_conflict"})
	for _, ing := range plan.Ingredients {
		_ = cw.Write([]string{
			string(ing.SupplyID),
			ing.Name,
			ing.Unit,
			ing.Required.String(),
			ing.Stock.String(),
			ing.Missing.String(),
			ing.Status.String(),
			strconv.FormatBool(ing.Untracked),
			strconv.FormatBool(ing.UnitConflict),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write plan CSV: %w", err)
	}
	return nil
}

func writeCommitText(w io.Writer, result *dto.CommitResult) error {
	fmt.Fprintf(w, "Commit %s: %s (attempts: %d)\n", result.CommitID, result.Outcome, result.Attempts)
	if result.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", result.Reason)
	}

	if len(result.Changes) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Supply\tDeducted\tBefore\tAfter\t")
		for _, c := range result.Changes {
			flag := ""
			if c.NegativeStock {
				flag = "negative stock"
			}
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\n",
				c.Name,
				c.Deducted.StringFixed(planning.DisplayPrecision), c.Unit,
				c.Before.StringFixed(planning.DisplayPrecision),
				c.After.StringFixed(planning.DisplayPrecision),
				flag)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped untracked supplies: %s\n", joinIDs(result.Skipped))
	}
	if len(result.Unrestored) > 0 {
		fmt.Fprintf(w, "\n⚠️  Stock NOT restored for: %s\n", joinIDs(result.Unrestored))
	}
	return nil
}

func writeCommitCSV(w io.Writer, result *dto.CommitResult) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"commit_id", "outcome", "supply_id", "deducted", "before", "after", "negative_stock"})
	for _, c := range result.Changes {
		_ = cw.Write([]string{
			result.CommitID.String(),
			result.Outcome.String(),
			string(c.SupplyID),
			c.Deducted.String(),
			c.Before.String(),
			c.After.String(),
			strconv.FormatBool(c.NegativeStock),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write commit CSV: %w", err)
	}
	return nil
}

func writeSuggestionText(w io.Writer, suggestion *planning.Suggestion) error {
	fmt.Fprintf(w, "Pending orders: %d\n", suggestion.PendingOrders)
	if len(suggestion.Requests) == 0 {
		fmt.Fprintln(w, "Nothing to produce.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Product\tQuantity")
		for _, req := range suggestion.Requests {
			fmt.Fprintf(tw, "%s\t%d\n", req.ProductID, req.Quantity)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(suggestion.Unmatched) > 0 {
		fmt.Fprintf(w, "Not in catalog: %s\n", strings.Join(suggestion.Unmatched, ", "))
	}
	return nil
}

func joinIDs[T ~string](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// WriteValidation renders the findings of a recipe data check
func WriteValidation(w io.Writer, result *services.ValidationResult, format string) error {
	switch format {
	case FormatText:
		if len(result.Errors) == 0 && len(result.Warnings) == 0 {
			_, err := fmt.Fprintln(w, "✅ Recipe data is consistent")
			return err
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "❌ %s\n", msg)
		}
		for _, msg := range result.Warnings {
			fmt.Fprintf(w, "⚠️  %s\n", msg)
		}
		return nil
	case FormatJSON:
		return writeJSON(w, struct {
			Valid    bool     `json:"valid"`
			Errors   []string `json:"errors"`
			Warnings []string `json:"warnings"`
		}{result.IsValid(), result.Errors, result.Warnings})
	case FormatCSV:
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"severity", "message"})
		for _, msg := range result.Errors {
			_ = cw.Write([]string{"error", msg})
		}
		for _, msg := range result.Warnings {
			_ = cw.Write([]string{"warning", msg})
		}
		cw.Flush()
		return cw.Error()
	default:
		return ValidateFormat(format)
	}
}
