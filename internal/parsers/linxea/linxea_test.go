package linxea

import (
	"math"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/finflow/internal/domain"
)

// buildExport writes rows into an in-memory XLSX workbook.
func buildExport(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write row %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func TestKeyAndKind(t *testing.T) {
	p := New()
	if got := p.Key(); got != "linxea" {
		t.Errorf("Key() = %q, want %q", got, "linxea")
	}
	if got := p.Kind(); got != domain.KindSnapshot {
		t.Errorf("Kind() = %q, want %q", got, domain.KindSnapshot)
	}
}

func TestParsePositions(t *testing.T) {
	content := buildExport(t, [][]any{
		{"Contrat", "Linxea Spirit 2"},
		{},
		{"Support", "ISIN", "Nbre de parts", "Dernière cotation", "PRU (EUR)"},
		{"Fonds Euro Nouvelle Generation", "FR0000000001", "100", "1.05", "1.00"},
		{"Amundi MSCI World", "LU0996182563", "25.5", "450.20", "380.00"},
		{"Total", "", "", "", ""},
	})

	positions, err := New().ParsePositions(content)
	if err != nil {
		t.Fatalf("ParsePositions() error = %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	fund := positions[1]
	if fund.Symbol != "Amundi MSCI World" {
		t.Errorf("Symbol = %q", fund.Symbol)
	}
	if fund.ISIN != "LU0996182563" {
		t.Errorf("ISIN = %q", fund.ISIN)
	}
	if fund.Quantity != 25.5 {
		t.Errorf("Quantity = %v, want 25.5", fund.Quantity)
	}
	if fund.AvgBuyPrice != 380 {
		t.Errorf("AvgBuyPrice = %v, want 380", fund.AvgBuyPrice)
	}
	if fund.CurrentPrice != 450.2 {
		t.Errorf("CurrentPrice = %v, want 450.2", fund.CurrentPrice)
	}

	wantValue := 25.5 * 450.2
	if math.Abs(fund.CurrentValue-wantValue) > 0.001 {
		t.Errorf("CurrentValue = %v, want %v", fund.CurrentValue, wantValue)
	}
	wantGain := wantValue - 25.5*380
	if math.Abs(fund.GainLoss-wantGain) > 0.001 {
		t.Errorf("GainLoss = %v, want %v", fund.GainLoss, wantGain)
	}
	wantPercent := wantGain / (25.5 * 380) * 100
	if math.Abs(fund.GainLossPercent-wantPercent) > 0.001 {
		t.Errorf("GainLossPercent = %v, want %v", fund.GainLossPercent, wantPercent)
	}
}

func TestParsePositions_NoHeader(t *testing.T) {
	content := buildExport(t, [][]any{
		{"Some", "Other", "Sheet"},
		{"Without", "The", "Expected", "Columns"},
	})
	if _, err := New().ParsePositions(content); err == nil {
		t.Error("ParsePositions() expected error for missing header, got nil")
	}
}

func TestParseTransactions_NotSupported(t *testing.T) {
	if _, err := New().ParseTransactions(nil); err == nil {
		t.Error("ParseTransactions() expected error, got nil")
	}
}
