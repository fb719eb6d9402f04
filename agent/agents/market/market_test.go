package market

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "tokenpilot/agent/contract"
	dexscreenerx "tokenpilot/pkg/dexscreener"
)

type fakeClient struct {
	tokenPairs  []dexscreenerx.Pair
	searchPairs []dexscreenerx.Pair
	tokenErr    error
	searchErr   error

	tokenCalls  []string
	searchCalls []string
}

func (f *fakeClient) Token(ctx context.Context, address string) ([]dexscreenerx.Pair, error) {
	f.tokenCalls = append(f.tokenCalls, address)
	return f.tokenPairs, f.tokenErr
}

func (f *fakeClient) Search(ctx context.Context, query string) ([]dexscreenerx.Pair, error) {
	f.searchCalls = append(f.searchCalls, query)
	return f.searchPairs, f.searchErr
}

func ptr(v float64) *float64 { return &v }

func testPair(symbol string, liquidity float64) dexscreenerx.Pair {
	return dexscreenerx.Pair{
		ChainID:     "ethereum",
		DexID:       "uniswap",
		PairAddress: "0xpair-" + symbol,
		BaseToken:   dexscreenerx.Token{Name: symbol + " Coin", Symbol: symbol},
		PriceUSD:    "1.23",
		PriceChange: dexscreenerx.PriceChange{H24: ptr(-4.2)},
		Liquidity:   dexscreenerx.Liquidity{USD: liquidity},
		Volume:      dexscreenerx.Volume{H24: 42_000},
		MarketCap:   9_000_000,
	}
}

const testAddress = "0x1111111111111111111111111111111111111111"

func TestProcessQueryAddressTriggersTokenLookup(t *testing.T) {
	t.Parallel()

	client := &fakeClient{tokenPairs: []dexscreenerx.Pair{testPair("ABC", 100), testPair("ABC", 900)}}
	agent, err := New(client)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := agent.ProcessQuery(context.Background(), "price of "+testAddress, nil)
	if resp.Status != contractx.StatusSuccess {
		t.Fatalf("ProcessQuery() status = %q, want success: %s", resp.Status, resp.Message)
	}
	if len(client.tokenCalls) != 1 || client.tokenCalls[0] != testAddress {
		t.Fatalf("token calls = %v, want [%s]", client.tokenCalls, testAddress)
	}
	if len(client.searchCalls) != 0 {
		t.Fatalf("search called %d times, want 0", len(client.searchCalls))
	}

	// Data comes from the most liquid pair.
	if got := resp.Data["pair_address"]; got != "0xpair-ABC" {
		t.Fatalf("data[pair_address] = %v", got)
	}
	if got := resp.Data["symbol"]; got != "ABC" {
		t.Fatalf("data[symbol] = %v, want ABC", got)
	}
	if got := resp.Data["price"]; got != "$1.23" {
		t.Fatalf("data[price] = %v, want $1.23", got)
	}
}

func TestProcessQueryWithoutAddressSearches(t *testing.T) {
	t.Parallel()

	pairs := []dexscreenerx.Pair{
		testPair("AAA", 10),
		testPair("BBB", 500),
		testPair("CCC", 50),
		testPair("DDD", 5),
		testPair("EEE", 400),
		testPair("FFF", 1),
	}
	client := &fakeClient{searchPairs: pairs}
	agent, err := New(client)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := agent.ProcessQuery(context.Background(), "pepe token", nil)
	if resp.Status != contractx.StatusSuccess {
		t.Fatalf("ProcessQuery() status = %q, want success: %s", resp.Status, resp.Message)
	}
	if len(client.searchCalls) != 1 {
		t.Fatalf("search calls = %v, want 1 call", client.searchCalls)
	}

	// Message lists at most five results; data carries only the top one.
	if strings.Contains(resp.Message, "FFF") {
		t.Fatalf("message includes sixth result:\n%s", resp.Message)
	}
	if got := resp.Data["symbol"]; got != "BBB" {
		t.Fatalf("data[symbol] = %v, want most liquid BBB", got)
	}
}

func TestProcessQueryClientErrorBecomesErrorResponse(t *testing.T) {
	t.Parallel()

	agent, err := New(&fakeClient{searchErr: errors.New("connection refused")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp := agent.ProcessQuery(context.Background(), "pepe token", nil)
	if !resp.IsError() {
		t.Fatalf("ProcessQuery() status = %q, want error", resp.Status)
	}
	if !strings.Contains(resp.Message, "connection refused") {
		t.Fatalf("ProcessQuery() message = %q, want cause included", resp.Message)
	}
	if resp.Data != nil {
		t.Fatalf("ProcessQuery() data = %v, want nil on error", resp.Data)
	}
}

func TestProcessQueryNoPairsIsErrorResponse(t *testing.T) {
	t.Parallel()

	agent, err := New(&fakeClient{searchErr: dexscreenerx.ErrNoPairs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if resp := agent.ProcessQuery(context.Background(), "ghostcoin", nil); !resp.IsError() {
		t.Fatalf("ProcessQuery() status = %q, want error when nothing matches", resp.Status)
	}
}

func TestFindHexAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
	}{
		{"price of " + testAddress + " please", testAddress},
		{"price of 0x1234", ""},
		{"no address here", ""},
	}
	for _, tt := range tests {
		if got := findHexAddress(tt.query); got != tt.want {
			t.Fatalf("findHexAddress(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value float64
		want  string
	}{
		{2_500_000_000, "$2.50B"},
		{9_000_000, "$9.00M"},
		{42_000, "$42.00K"},
		{12.3, "$12.30"},
	}
	for _, tt := range tests {
		if got := formatCurrency(tt.value); got != tt.want {
			t.Fatalf("formatCurrency(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatPriceUSD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"1.23", "$1.23"},
		{"0.00000123", "$0.00000123"},
		{"", "N/A"},
		{"not-a-number", "N/A"},
	}
	for _, tt := range tests {
		if got := formatPriceUSD(tt.raw); got != tt.want {
			t.Fatalf("formatPriceUSD(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	if got := formatPercent(nil); got != "N/A" {
		t.Fatalf("formatPercent(nil) = %q, want N/A", got)
	}
	if got := formatPercent(ptr(4.2)); got != "+4.20%" {
		t.Fatalf("formatPercent(4.2) = %q, want +4.20%%", got)
	}
	if got := formatPercent(ptr(-4.2)); got != "-4.20%" {
		t.Fatalf("formatPercent(-4.2) = %q, want -4.20%%", got)
	}
}
