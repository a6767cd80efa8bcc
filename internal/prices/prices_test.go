package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFetch_BatchesKnownSymbols(t *testing.T) {
	var requests int
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"eur":40123.45},"ethereum":{"eur":2100.5}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	quotes, err := client.Fetch(context.Background(), []string{"btc", " ETH ", "BTC"}, "EUR")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("Fetch() made %d requests, want 1", requests)
	}
	if got := gotQuery.Get("ids"); got != "bitcoin,ethereum" {
		t.Errorf("ids query = %q, want %q", got, "bitcoin,ethereum")
	}
	if got := gotQuery.Get("vs_currencies"); got != "eur" {
		t.Errorf("vs_currencies query = %q, want %q", got, "eur")
	}
	if len(quotes) != 2 {
		t.Fatalf("Fetch() returned %d quotes, want 2", len(quotes))
	}
	if quotes["BTC"] != 40123.45 {
		t.Errorf("BTC quote = %v, want 40123.45", quotes["BTC"])
	}
	if quotes["ETH"] != 2100.5 {
		t.Errorf("ETH quote = %v, want 2100.5", quotes["ETH"])
	}
}

func TestFetch_UnknownSymbolsGetNoEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"eur":40000}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	quotes, err := client.Fetch(context.Background(), []string{"BTC", "NOTACOIN"}, "eur")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, ok := quotes["NOTACOIN"]; ok {
		t.Error("Fetch() returned a quote for an unmapped symbol")
	}
	if quotes["BTC"] != 40000 {
		t.Errorf("BTC quote = %v, want 40000", quotes["BTC"])
	}
}

func TestFetch_OnlyUnknownSymbolsSkipsRequest(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewClient(server.URL)
	quotes, err := client.Fetch(context.Background(), []string{"NOTACOIN"}, "eur")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("Fetch() returned %d quotes, want 0", len(quotes))
	}
	if requests != 0 {
		t.Errorf("Fetch() made %d requests, want 0", requests)
	}
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Fetch(context.Background(), []string{"BTC"}, "eur"); err == nil {
		t.Fatal("Fetch() expected error on non-200 status, got nil")
	}
}

func TestFetch_EmptyCurrencyDefaultsToEUR(t *testing.T) {
	var gotCurrency string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCurrency = r.URL.Query().Get("vs_currencies")
		w.Write([]byte(`{"bitcoin":{"eur":1}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Fetch(context.Background(), []string{"BTC"}, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotCurrency != "eur" {
		t.Errorf("vs_currencies = %q, want %q", gotCurrency, "eur")
	}
}

func TestKnownSymbols(t *testing.T) {
	symbols := KnownSymbols()
	if len(symbols) == 0 {
		t.Fatal("KnownSymbols() returned no symbols")
	}
	for i := 1; i < len(symbols); i++ {
		if symbols[i-1] >= symbols[i] {
			t.Fatalf("KnownSymbols() not sorted: %q before %q", symbols[i-1], symbols[i])
		}
	}
	found := false
	for _, s := range symbols {
		if s == "BTC" {
			found = true
		}
	}
	if !found {
		t.Error("KnownSymbols() missing BTC")
	}
}
