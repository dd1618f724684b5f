package planning

import (
	"sort"
	"strings"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Suggestion is a request set derived from pending customer orders
type Suggestion struct {
	Requests      []entities.ProductionRequest `json:"requests"`
	Unmatched     []string                     `json:"unmatched,omitempty"`
	PendingOrders int                          `json:"pending_orders"`
}

// SuggestFromOrders sums the items of pending orders per active product.
// Orders name products rather than reference them, so names are matched
// case-insensitively; names with no active product are reported as unmatched.
func SuggestFromOrders(sess *Session, orders []*entities.Order) *Suggestion {
	byName := make(map[string]entities.ProductID)
	for _, p := range sess.ActiveProducts() {
		key := normalizeName(p.Name)
		if _, taken := byName[key]; !taken {
			byName[key] = p.ID
		}
	}

	suggestion := &Suggestion{}
	totals := make(map[entities.ProductID]int64)
	var order []entities.ProductID
	unmatched := make(map[string]bool)

	for _, o := range orders {
		if o == nil || !o.IsPending() {
			continue
		}
		suggestion.PendingOrders++
		for _, item := range o.Items {
			id, ok := byName[normalizeName(item.ProductName)]
			if !ok {
				unmatched[strings.TrimSpace(item.ProductName)] = true
				continue
			}
			if _, seen := totals[id]; !seen {
				order = append(order, id)
			}
			totals[id] += item.Quantity
		}
	}

	for _, id := range order {
		suggestion.Requests = append(suggestion.Requests, entities.ProductionRequest{ProductID: id, Quantity: totals[id]})
	}
	for name := range unmatched {
		suggestion.Unmatched = append(suggestion.Unmatched, name)
	}
	sort.Strings(suggestion.Unmatched)
	return suggestion
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
