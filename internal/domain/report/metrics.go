package report

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MRR sums the monthly-equivalent price of every Active subscription.
func MRR(rows []PlanBreakdownRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.MonthlyRevenue())
	}
	return total.Round(2)
}

// ChurnRate is cancelled / (active + cancelled) as a percentage with two
// decimals. An empty base yields zero.
func ChurnRate(active, cancelled int64) decimal.Decimal {
	base := active + cancelled
	if base <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(cancelled).
		Div(decimal.NewFromInt(base)).
		Mul(hundred).
		Round(2)
}

// GroupByPlan folds cycle-level rows into per-plan revenue and counts.
func GroupByPlan(rows []PlanBreakdownRow) ([]PlanRevenue, []PlanCustomers) {
	var order []int64
	revenue := map[int64]*PlanRevenue{}
	for _, r := range rows {
		pr, ok := revenue[r.PlanID]
		if !ok {
			pr = &PlanRevenue{PlanName: r.PlanName, MonthlyRevenue: decimal.Zero}
			revenue[r.PlanID] = pr
			order = append(order, r.PlanID)
		}
		pr.Subscriptions += r.Subscriptions
		pr.MonthlyRevenue = pr.MonthlyRevenue.Add(r.MonthlyRevenue())
	}

	byRevenue := make([]PlanRevenue, 0, len(order))
	byCustomers := make([]PlanCustomers, 0, len(order))
	for _, id := range order {
		pr := revenue[id]
		pr.MonthlyRevenue = pr.MonthlyRevenue.Round(2)
		byRevenue = append(byRevenue, *pr)
		// One Active subscription per customer, so the counts coincide.
		byCustomers = append(byCustomers, PlanCustomers{PlanName: pr.PlanName, Customers: pr.Subscriptions})
	}
	return byRevenue, byCustomers
}
