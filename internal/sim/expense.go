package sim

import "github.com/shopspring/decimal"

// TicketCost is the expected cost of honoring one issued promo ticket: the
// mean redeemed value over all tickets, busts included.
func TicketCost(s *BatchSummary) decimal.Decimal {
	return decimal.NewFromFloat(s.AverageRedeemed)
}

// AverageRedeemedGivenSurvival is the mean payout of tickets that reached
// their wagering requirement. Zero when nothing survived.
func AverageRedeemedGivenSurvival(s *BatchSummary) decimal.Decimal {
	if s.SurvivalRate <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(s.AverageRedeemed).
		Div(decimal.NewFromFloat(s.SurvivalRate))
}

// ExpenseScenario is one row of a promo budget plan.
type ExpenseScenario struct {
	Turnover      decimal.Decimal `json:"turnover"`
	TicketsIssued int64           `json:"tickets_issued"`
	PointsIssued  decimal.Decimal `json:"points_issued"`
}

// ExpenseRow is a scenario with its computed costs. Points carry their full
// value as cost; tickets cost their simulated expected redemption.
type ExpenseRow struct {
	ExpenseScenario
	TicketCost        decimal.Decimal `json:"ticket_cost"`
	PointsCost        decimal.Decimal `json:"points_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	CostPctOfTurnover decimal.Decimal `json:"cost_pct_of_turnover"`
	NetRevenue        decimal.Decimal `json:"net_revenue"`
}

// BuildExpenseTable prices each scenario against the batch results.
// pointCost is the unit cost of one promo point.
func BuildExpenseTable(s *BatchSummary, scenarios []ExpenseScenario, pointCost decimal.Decimal) []ExpenseRow {
	perTicket := TicketCost(s)
	hundred := decimal.NewFromInt(100)

	rows := make([]ExpenseRow, 0, len(scenarios))
	for _, sc := range scenarios {
		row := ExpenseRow{ExpenseScenario: sc}
		row.TicketCost = perTicket.Mul(decimal.NewFromInt(sc.TicketsIssued))
		row.PointsCost = pointCost.Mul(sc.PointsIssued)
		row.TotalCost = row.TicketCost.Add(row.PointsCost)
		if sc.Turnover.IsPositive() {
			row.CostPctOfTurnover = row.TotalCost.Mul(hundred).Div(sc.Turnover)
		}
		row.NetRevenue = sc.Turnover.Sub(row.TotalCost)
		rows = append(rows, row)
	}
	return rows
}
