package settlement

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// Ledger is the per-user settlement view: who owes them, who they owe, and
// running totals over settled history.
type Ledger struct {
	OwedToMe []CounterpartyGroup `json:"owed_to_me"`
	OwedByMe []CounterpartyGroup `json:"owed_by_me"`
	Summary  LedgerSummary       `json:"summary"`
}

// CounterpartyGroup folds the outstanding reimbursements shared with one
// other user into a single total plus its order-level line items.
type CounterpartyGroup struct {
	UserID uuid.UUID       `json:"user_id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
	Items  []LedgerLine    `json:"items"`
}

// LedgerLine is one outstanding reimbursement tied to an order.
type LedgerLine struct {
	ReimbursementID uuid.UUID       `json:"reimbursement_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	RestaurantName  string          `json:"restaurant_name"`
	OrderDate       time.Time       `json:"order_date"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerSummary carries the rolled-up balances, all rounded to two decimals.
// NetBalance > 0 means the user is a net creditor.
type LedgerSummary struct {
	TotalOwedToMe decimal.Decimal `json:"total_owed_to_me"`
	TotalOwedByMe decimal.Decimal `json:"total_owed_by_me"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	TotalPaidToMe decimal.Decimal `json:"total_paid_to_me"`
	TotalPaidByMe decimal.Decimal `json:"total_paid_by_me"`
}

func buildLedger(userID uuid.UUID, rows []models.Reimbursement) *Ledger {
	owedToMe := make(map[uuid.UUID]*CounterpartyGroup)
	owedByMe := make(map[uuid.UUID]*CounterpartyGroup)
	summary := LedgerSummary{
		TotalOwedToMe: decimal.Zero,
		TotalOwedByMe: decimal.Zero,
		NetBalance:    decimal.Zero,
		TotalPaidToMe: decimal.Zero,
		TotalPaidByMe: decimal.Zero,
	}

	for _, row := range rows {
		creditorSide := row.CreditorID == userID
		if row.Status.IsSettled() {
			if creditorSide {
				summary.TotalPaidToMe = summary.TotalPaidToMe.Add(row.Amount)
			} else {
				summary.TotalPaidByMe = summary.TotalPaidByMe.Add(row.Amount)
			}
			continue
		}

		var groups map[uuid.UUID]*CounterpartyGroup
		var counterpart *models.User
		var counterpartID uuid.UUID
		if creditorSide {
			groups = owedToMe
			counterpart = row.Debtor
			counterpartID = row.DebtorID
			summary.TotalOwedToMe = summary.TotalOwedToMe.Add(row.Amount)
		} else {
			groups = owedByMe
			counterpart = row.Creditor
			counterpartID = row.CreditorID
			summary.TotalOwedByMe = summary.TotalOwedByMe.Add(row.Amount)
		}

		group, ok := groups[counterpartID]
		if !ok {
			group = &CounterpartyGroup{UserID: counterpartID, Amount: decimal.Zero}
			if counterpart != nil {
				group.Name = counterpart.Name
				group.Email = counterpart.Email
			}
			groups[counterpartID] = group
		}
		group.Amount = group.Amount.Add(row.Amount)
		group.Items = append(group.Items, ledgerLine(row))
	}

	summary.TotalOwedToMe = summary.TotalOwedToMe.Round(2)
	summary.TotalOwedByMe = summary.TotalOwedByMe.Round(2)
	summary.TotalPaidToMe = summary.TotalPaidToMe.Round(2)
	summary.TotalPaidByMe = summary.TotalPaidByMe.Round(2)
	summary.NetBalance = summary.TotalOwedToMe.Sub(summary.TotalOwedByMe).Round(2)

	return &Ledger{
		OwedToMe: flattenGroups(owedToMe),
		OwedByMe: flattenGroups(owedByMe),
		Summary:  summary,
	}
}

func ledgerLine(row models.Reimbursement) LedgerLine {
	line := LedgerLine{
		ReimbursementID: row.ID,
		OrderID:         row.OrderID,
		Amount:          row.Amount,
		Status:          row.Status.String(),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.Order != nil {
		line.OrderDate = row.Order.OrderDate
		if row.Order.Restaurant != nil {
			line.RestaurantName = row.Order.Restaurant.Name
		}
	}
	return line
}

func flattenGroups(groups map[uuid.UUID]*CounterpartyGroup) []CounterpartyGroup {
	out := make([]CounterpartyGroup, 0, len(groups))
	for _, group := range groups {
		group.Amount = group.Amount.Round(2)
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}
