package settlement

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// noiseThreshold drops debt edges too small to be worth tracking. Amount
// deltas within the same tolerance are treated as unchanged on recompute.
var noiseThreshold = decimal.NewFromFloat(0.01)

// OrderSnapshot is the settlement input for a single order: the immutable
// item snapshot, the participants, and the payments recorded against it.
type OrderSnapshot struct {
	OrderID    uuid.UUID
	TotalPrice decimal.Decimal
	Items      []models.OrderItem
	Payments   []models.Payment
}

// DebtEdge is one computed directed debt: debtor owes creditor for the order.
type DebtEdge struct {
	DebtorID   uuid.UUID
	CreditorID uuid.UUID
	Amount     decimal.Decimal
}

// ComputeDebts derives the debt edges for one order. It is a pure function
// of the snapshot, so recomputation at any trigger point yields the same
// result. Orders with fewer than two contributing users, or with no valid
// payment, produce no edges.
func ComputeDebts(snap OrderSnapshot) ([]DebtEdge, error) {
	shares := consumerShares(snap.Items)
	if len(shares) < 2 {
		return nil, nil
	}

	total := decimal.Zero
	for _, share := range shares {
		total = total.Add(share)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	if total.Sub(snap.TotalPrice).Abs().GreaterThan(noiseThreshold) {
		return nil, fmt.Errorf("order %s item shares (%s) do not reconcile with total price (%s)",
			snap.OrderID, total.StringFixed(2), snap.TotalPrice.StringFixed(2))
	}

	paid := payerAmounts(snap.Payments)
	if len(paid) == 0 {
		return nil, nil
	}

	edges := make([]DebtEdge, 0, len(shares)*len(paid))
	for _, consumer := range sortedKeys(shares) {
		for _, payer := range sortedKeys(paid) {
			if consumer == payer {
				continue
			}
			owed := shares[consumer].Div(total).Mul(paid[payer]).Round(2)
			if owed.LessThanOrEqual(noiseThreshold) {
				continue
			}
			edges = append(edges, DebtEdge{
				DebtorID:   consumer,
				CreditorID: payer,
				Amount:     owed,
			})
		}
	}
	return edges, nil
}

// consumerShares groups the item snapshot by contributing user and sums
// price-at-order times quantity per user.
func consumerShares(items []models.OrderItem) map[uuid.UUID]decimal.Decimal {
	shares := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		line := item.PriceAtOrder.Mul(decimal.NewFromInt(int64(qty)))
		shares[item.UserID] = shares[item.UserID].Add(line)
	}
	return shares
}

// payerAmounts sums valid payment amounts per payer. Pending and failed
// payments never count toward settlement.
func payerAmounts(payments []models.Payment) map[uuid.UUID]decimal.Decimal {
	paid := make(map[uuid.UUID]decimal.Decimal)
	for _, payment := range payments {
		if !payment.Status.CountsTowardSettlement() {
			continue
		}
		paid[payment.UserID] = paid[payment.UserID].Add(payment.Amount)
	}
	return paid
}

func sortedKeys(m map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
