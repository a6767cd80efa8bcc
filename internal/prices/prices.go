// Package prices fetches current quotes for crypto symbols from the quote
// service, batched per distinct symbol set to bound external call volume.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL is the public quote endpoint queried when no override is
// configured.
const DefaultBaseURL = "https://api.coingecko.com/api/v3/simple/price"

const requestTimeout = 30 * time.Second

// symbolToID is the fixed mapping from exchange symbols to the quote
// service's asset identifiers. Symbols missing here simply get no quote,
// which the caller degrades to a zero price.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"XRP":   "ripple",
	"LTC":   "litecoin",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"ATOM":  "cosmos",
	"DOGE":  "dogecoin",
	"BNB":   "binancecoin",
	"UNI":   "uniswap",
	"XLM":   "stellar",
}

// Client queries the quote service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a quote client. An empty baseURL selects the default
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Fetch returns a symbol→price map for the requested symbols in the given
// quote currency, in a single batched call. Unknown symbols produce no map
// entry; that is not an error. The error return covers transport and
// decoding failures only; the caller decides how to degrade.
func (c *Client) Fetch(ctx context.Context, symbols []string, currency string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		id, ok := symbolToID[upper]
		if !ok {
			continue
		}
		if _, dup := idToSymbol[id]; dup {
			continue
		}
		ids = append(ids, id)
		idToSymbol[id] = upper
	}

	result := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	sort.Strings(ids)

	vsCurrency := strings.ToLower(currency)
	if vsCurrency == "" {
		vsCurrency = "eur"
	}

	endpoint := fmt.Sprintf("%s?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")), url.QueryEscape(vsCurrency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	// Response: {"bitcoin": {"eur": 40123.45}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	for id, quotes := range payload {
		symbol, ok := idToSymbol[id]
		if !ok {
			continue
		}
		if price, ok := quotes[vsCurrency]; ok {
			result[symbol] = price
		}
	}

	return result, nil
}

// KnownSymbols returns the symbols the fixed mapping covers, sorted.
func KnownSymbols() []string {
	symbols := make([]string, 0, len(symbolToID))
	for s := range symbolToID {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
