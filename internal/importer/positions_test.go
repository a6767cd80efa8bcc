package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/finflow/internal/domain"
	"github.com/rumor-ml/finflow/internal/registry"
)

func newPositionImporter(f *fakeStore) *PositionImporter {
	return NewPositionImporter(registry.New(), f, f, zerolog.Nop())
}

func seedSnapshotSource(f *fakeStore) {
	f.investmentSources["src-lx"] = domain.InvestmentSource{
		ID: "src-lx", Name: "Linxea", ParserKey: "linxea",
		Kind: domain.KindSnapshot, Currency: "EUR",
	}
}

func linxeaExport(t *testing.T) []byte {
	return buildBinanceExport(t, [][]any{
		{"Support", "ISIN", "Nbre de parts", "Dernière cotation", "PRU (EUR)"},
		{"Fonds Euro", "FR0000000001", "100", "1.05", "1.00"},
		{"Amundi MSCI World", "LU0996182563", "25.5", "450.20", "380.00"},
	})
}

func TestPositionImport_ReplacesAll(t *testing.T) {
	f := newFakeStore()
	seedSnapshotSource(f)
	// A stale position from an earlier import.
	f.positions = append(f.positions, domain.InvestmentPosition{ID: "old", SourceID: "src-lx", Symbol: "GONE"})
	imp := newPositionImporter(f)

	result := imp.Import(context.Background(), "src-lx", linxeaExport(t))
	if result.Imported != 2 || len(result.Errors) != 0 {
		t.Fatalf("Imported=%d Errors=%v, want 2 and none", result.Imported, result.Errors)
	}

	positions, _ := f.FindPositionsBySourceID(context.Background(), "src-lx")
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2 (stale position replaced)", len(positions))
	}
	for _, p := range positions {
		if p.Symbol == "GONE" {
			t.Error("stale position survived the import")
		}
		if p.Currency != "EUR" {
			t.Errorf("Currency = %q, want source default EUR", p.Currency)
		}
	}

	if _, ok := f.syncedAt["src-lx"]; !ok {
		t.Error("source not marked synced")
	}
}

func TestPositionImport_EmptyFileKeepsExisting(t *testing.T) {
	f := newFakeStore()
	seedSnapshotSource(f)
	f.positions = append(f.positions, domain.InvestmentPosition{ID: "keep", SourceID: "src-lx", Symbol: "KEPT"})
	imp := newPositionImporter(f)

	empty := buildBinanceExport(t, [][]any{
		{"Support", "ISIN", "Nbre de parts", "Dernière cotation", "PRU (EUR)"},
	})
	result := imp.Import(context.Background(), "src-lx", empty)
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "No positions found") {
		t.Fatalf("Errors = %v, want empty-file rejection", result.Errors)
	}

	// Fail-fast before the delete: existing positions untouched.
	positions, _ := f.FindPositionsBySourceID(context.Background(), "src-lx")
	if len(positions) != 1 || positions[0].Symbol != "KEPT" {
		t.Errorf("positions = %+v, want the existing one kept", positions)
	}
}

func TestPositionImport_WrongKindRejected(t *testing.T) {
	f := newFakeStore()
	f.investmentSources["src-cr"] = domain.InvestmentSource{
		ID: "src-cr", Name: "Binance", ParserKey: "binance", Kind: domain.KindLedger,
	}
	imp := newPositionImporter(f)

	result := imp.Import(context.Background(), "src-cr", []byte("irrelevant"))
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "not a snapshot parser") {
		t.Errorf("Errors = %v, want kind mismatch", result.Errors)
	}
}

func TestPositionImport_UnknownSource(t *testing.T) {
	f := newFakeStore()
	imp := newPositionImporter(f)

	result := imp.Import(context.Background(), "src-missing", []byte("irrelevant"))
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "not found") {
		t.Errorf("Errors = %v, want source lookup failure", result.Errors)
	}
}
