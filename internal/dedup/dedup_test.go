package dedup

import (
	"testing"
	"time"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/parser"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestSignature_Stable(t *testing.T) {
	a := Signature(day, -45.5, "CARTE CARREFOUR")
	b := Signature(day, -45.5, "CARTE CARREFOUR")
	if a != b {
		t.Error("identical inputs produced different signatures")
	}
}

func TestSignature_Collisions(t *testing.T) {
	base := Signature(day, -45.5, "CARTE CARREFOUR")

	tests := []struct {
		name        string
		date        time.Time
		amount      float64
		description string
		wantEqual   bool
	}{
		{
			name:        "case variant collides",
			date:        day,
			amount:      -45.5,
			description: "carte carrefour",
			wantEqual:   true,
		},
		{
			name:        "surrounding whitespace collides",
			date:        day,
			amount:      -45.5,
			description: "  CARTE CARREFOUR  ",
			wantEqual:   true,
		},
		{
			name:        "sub-cent difference collides",
			date:        day,
			amount:      -45.5004,
			description: "CARTE CARREFOUR",
			wantEqual:   true,
		},
		{
			name:        "different amount differs",
			date:        day,
			amount:      -45.51,
			description: "CARTE CARREFOUR",
			wantEqual:   false,
		},
		{
			name:        "different day differs",
			date:        day.AddDate(0, 0, 1),
			amount:      -45.5,
			description: "CARTE CARREFOUR",
			wantEqual:   false,
		},
		{
			name:        "different sign differs",
			date:        day,
			amount:      45.5,
			description: "CARTE CARREFOUR",
			wantEqual:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Signature(tt.date, tt.amount, tt.description)
			if (got == base) != tt.wantEqual {
				t.Errorf("signature equality = %v, want %v", got == base, tt.wantEqual)
			}
		})
	}
}

func TestInvestmentSignature(t *testing.T) {
	base := InvestmentSignature(day, "BTC", domain.InvestmentBuy, 0.00235, 100)

	if got := InvestmentSignature(day, "btc", domain.InvestmentBuy, 0.00235, 100); got != base {
		t.Error("symbol case should not change the signature")
	}
	if got := InvestmentSignature(day, "BTC", domain.InvestmentSell, 0.00235, 100); got == base {
		t.Error("buy and sell with same fields must differ")
	}
	if got := InvestmentSignature(day, "BTC", domain.InvestmentBuy, 0.00236, 100); got == base {
		t.Error("different quantity must differ")
	}
}

func TestIndexTransactions_ReconstructsSign(t *testing.T) {
	// Persisted expenses store a positive magnitude; the index must hash
	// the reconstructed negative amount so reimports of the same file
	// are recognized.
	persisted := domain.Transaction{
		Type:        domain.TypeExpense,
		Amount:      domain.Money{Amount: 45.5, Currency: "EUR"},
		Description: "CARTE CARREFOUR",
		Date:        day,
	}
	idx := IndexTransactions([]domain.Transaction{persisted})

	parsedAgain := Signature(day, -45.5, "CARTE CARREFOUR")
	if !idx.Contains(parsedAgain) {
		t.Error("index must contain the signed-amount signature of a persisted expense")
	}
}

func TestFilterTransactions_Idempotent(t *testing.T) {
	parsed := []parser.ParsedTransaction{
		{Date: day, Amount: -45.5, Description: "CARTE CARREFOUR"},
		{Date: day, Amount: 2500, Description: "VIR SALAIRE"},
	}

	idx := NewIndex()
	accepted, skipped := idx.FilterTransactions(parsed)
	if len(accepted) != 2 || skipped != 0 {
		t.Fatalf("first pass: accepted=%d skipped=%d, want 2/0", len(accepted), skipped)
	}

	// Importing the same file again skips everything.
	accepted, skipped = idx.FilterTransactions(parsed)
	if len(accepted) != 0 || skipped != 2 {
		t.Errorf("second pass: accepted=%d skipped=%d, want 0/2", len(accepted), skipped)
	}
}

func TestFilterTransactions_IntraBatchDuplicates(t *testing.T) {
	parsed := []parser.ParsedTransaction{
		{Date: day, Amount: -45.5, Description: "CARTE CARREFOUR"},
		{Date: day, Amount: -45.5, Description: "CARTE CARREFOUR"},
	}

	accepted, skipped := NewIndex().FilterTransactions(parsed)
	if len(accepted) != 1 || skipped != 1 {
		t.Errorf("accepted=%d skipped=%d, want 1/1", len(accepted), skipped)
	}
}

func TestFilterInvestmentTransactions(t *testing.T) {
	parsed := []parser.ParsedInvestmentTransaction{
		{Date: day, Symbol: "BTC", Type: domain.InvestmentBuy, Quantity: 0.00235, TotalAmount: 100},
		{Date: day, Symbol: "BTC", Type: domain.InvestmentBuy, Quantity: 0.00235, TotalAmount: 100},
		{Date: day, Symbol: "ETH", Type: domain.InvestmentBuy, Quantity: 0.5, TotalAmount: 1200},
	}

	accepted, skipped := NewIndex().FilterInvestmentTransactions(parsed)
	if len(accepted) != 2 || skipped != 1 {
		t.Errorf("accepted=%d skipped=%d, want 2/1", len(accepted), skipped)
	}
}
