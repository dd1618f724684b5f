package planning

// Metrics receives planning telemetry
type Metrics interface {
	PlanComputed(products, ingredients, short int)
	ProductIssue()
}

type nopMetrics struct{}

func (nopMetrics) PlanComputed(int, int, int) {}
func (nopMetrics) ProductIssue()              {}
