package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
)

func money(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func item(userID uuid.UUID, price string, qty int) models.OrderItem {
	return models.OrderItem{
		UserID:       userID,
		PriceAtOrder: money(price),
		Quantity:     qty,
	}
}

func payment(userID uuid.UUID, amount string, status enums.PaymentStatus) models.Payment {
	return models.Payment{
		UserID: userID,
		Amount: money(amount),
		Status: status,
	}
}

func TestComputeDebts_EvenSplitSinglePayer(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()

	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("30.00"),
		Items: []models.OrderItem{
			item(payer, "15.00", 1),
			item(other, "15.00", 1),
		},
		Payments: []models.Payment{
			payment(payer, "30.00", enums.PaymentStatusPaid),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected exactly one edge, got %d", len(edges))
	}
	edge := edges[0]
	if edge.DebtorID != other || edge.CreditorID != payer {
		t.Fatalf("unexpected edge direction: %+v", edge)
	}
	if !edge.Amount.Equal(money("15.00")) {
		t.Fatalf("expected 15.00 owed, got %s", edge.Amount)
	}
}

func TestComputeDebts_ShareConservation(t *testing.T) {
	payer := uuid.New()
	second := uuid.New()
	third := uuid.New()

	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("60.00"),
		Items: []models.OrderItem{
			item(payer, "10.00", 1),
			item(second, "20.00", 1),
			item(third, "15.00", 2),
		},
		Payments: []models.Payment{
			payment(payer, "60.00", enums.PaymentStatusCompleted),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}

	owedToPayer := decimal.Zero
	for _, edge := range edges {
		if edge.DebtorID == edge.CreditorID {
			t.Fatalf("self-debt edge produced: %+v", edge)
		}
		if edge.CreditorID != payer {
			t.Fatalf("unexpected creditor %s", edge.CreditorID)
		}
		owedToPayer = owedToPayer.Add(edge.Amount)
	}
	// Everyone else's shares plus the payer's own share must reconstruct
	// what the payer paid.
	payerShare := money("10.00")
	if !owedToPayer.Add(payerShare).Equal(money("60.00")) {
		t.Fatalf("share conservation violated: %s owed + %s own share != 60.00", owedToPayer, payerShare)
	}
}

func TestComputeDebts_SingleParticipantProducesNothing(t *testing.T) {
	solo := uuid.New()
	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("25.00"),
		Items: []models.OrderItem{
			item(solo, "25.00", 1),
		},
		Payments: []models.Payment{
			payment(solo, "25.00", enums.PaymentStatusPaid),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no edges for a solo order, got %d", len(edges))
	}
}

func TestComputeDebts_InvalidPaymentsIgnored(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()

	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("20.00"),
		Items: []models.OrderItem{
			item(payer, "10.00", 1),
			item(other, "10.00", 1),
		},
		Payments: []models.Payment{
			payment(payer, "20.00", enums.PaymentStatusPending),
			payment(payer, "20.00", enums.PaymentStatusFailed),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("pending/failed payments must not settle, got %d edges", len(edges))
	}
}

func TestComputeDebts_ThresholdDrop(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()

	// The non-payer's share of the tiny payment computes to under a cent.
	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("100.00"),
		Items: []models.OrderItem{
			item(payer, "99.50", 1),
			item(other, "0.50", 1),
		},
		Payments: []models.Payment{
			payment(payer, "1.00", enums.PaymentStatusPaid),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("amounts at or below the noise threshold must be dropped, got %+v", edges)
	}
}

func TestComputeDebts_ConsumerWhoAlsoPaidIsExcluded(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("40.00"),
		Items: []models.OrderItem{
			item(alice, "25.00", 1),
			item(bob, "15.00", 1),
		},
		Payments: []models.Payment{
			payment(alice, "20.00", enums.PaymentStatusPaid),
			payment(bob, "20.00", enums.PaymentStatusPaid),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	for _, edge := range edges {
		if edge.DebtorID == edge.CreditorID {
			t.Fatalf("self-debt edge produced: %+v", edge)
		}
	}
	// alice owes bob 25/40*20 = 12.50, bob owes alice 15/40*20 = 7.50
	if len(edges) != 2 {
		t.Fatalf("expected two cross edges, got %d", len(edges))
	}
	for _, edge := range edges {
		switch {
		case edge.DebtorID == alice && edge.CreditorID == bob:
			if !edge.Amount.Equal(money("12.50")) {
				t.Fatalf("alice should owe bob 12.50, got %s", edge.Amount)
			}
		case edge.DebtorID == bob && edge.CreditorID == alice:
			if !edge.Amount.Equal(money("7.50")) {
				t.Fatalf("bob should owe alice 7.50, got %s", edge.Amount)
			}
		default:
			t.Fatalf("unexpected edge %+v", edge)
		}
	}
}

func TestComputeDebts_TotalMismatchRejected(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()

	_, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("50.00"),
		Items: []models.OrderItem{
			item(payer, "15.00", 1),
			item(other, "15.00", 1),
		},
		Payments: []models.Payment{
			payment(payer, "30.00", enums.PaymentStatusPaid),
		},
	})
	if err == nil {
		t.Fatal("expected reconciliation error when shares do not sum to total price")
	}
}

func TestComputeDebts_RoundingIsTwoDecimals(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()

	edges, err := ComputeDebts(OrderSnapshot{
		OrderID:    uuid.New(),
		TotalPrice: money("10.00"),
		Items: []models.OrderItem{
			item(payer, "6.67", 1),
			item(other, "3.33", 1),
		},
		Payments: []models.Payment{
			payment(payer, "10.00", enums.PaymentStatusPaid),
		},
	})
	if err != nil {
		t.Fatalf("ComputeDebts error: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected one edge, got %d", len(edges))
	}
	if edges[0].Amount.Exponent() < -2 {
		t.Fatalf("amount not rounded to cents: %s", edges[0].Amount)
	}
	if !edges[0].Amount.Equal(money("3.33")) {
		t.Fatalf("expected 3.33, got %s", edges[0].Amount)
	}
}
