// Package market implements the on-chain market-data agent backed by the
// Dexscreener API.
package market

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	contractx "tokenpilot/agent/contract"
	dexscreenerx "tokenpilot/pkg/dexscreener"
)

const AgentID = "market"

const maxSearchResults = 5

var hexAddressPattern = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// Client is the slice of the Dexscreener client this agent consumes.
type Client interface {
	Token(ctx context.Context, address string) ([]dexscreenerx.Pair, error)
	Search(ctx context.Context, query string) ([]dexscreenerx.Pair, error)
}

type Agent struct {
	client Client
}

var _ contractx.Agent = (*Agent)(nil)

func New(client Client) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: dexscreener client is required", contractx.ErrValidation)
	}
	return &Agent{client: client}, nil
}

func (a *Agent) Description() string {
	return strings.TrimSpace(`
Handles queries about:
- Token and pair prices, liquidity, and trading volume
- Market cap and price changes over 5m/1h/24h windows
- Lookups by token contract address (0x...)
- Token search by name or symbol across DEXes and chains
`)
}

// ProcessQuery resolves the query to a token lookup when it carries a
// contract address, and to a free-text search otherwise. The response data
// always describes a single pair (the most liquid one), so the derived
// metadata stays unambiguous.
func (a *Agent) ProcessQuery(ctx context.Context, query string, shared contractx.Metadata) contractx.Response {
	if addr := findHexAddress(query); addr != "" {
		return a.lookupToken(ctx, addr)
	}
	return a.searchTokens(ctx, query)
}

func (a *Agent) Reset() {}

func (a *Agent) lookupToken(ctx context.Context, address string) contractx.Response {
	pairs, err := a.client.Token(ctx, address)
	if err != nil {
		return contractx.ErrorResponse(AgentID, err, fmt.Sprintf("fetch token data for %s", address))
	}

	best := dexscreenerx.MostLiquid(pairs)
	return contractx.SuccessResponse(AgentID, summarizePair(best), pairData(best))
}

func (a *Agent) searchTokens(ctx context.Context, query string) contractx.Response {
	pairs, err := a.client.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return contractx.ErrorResponse(AgentID, err, fmt.Sprintf("search tokens matching %q", strings.TrimSpace(query)))
	}

	ranked := dexscreenerx.SortByLiquidity(pairs)
	if len(ranked) > maxSearchResults {
		ranked = ranked[:maxSearchResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", strings.TrimSpace(query))
	for i, pair := range ranked {
		fmt.Fprintf(&b, "\n%d. %s (%s)\n   Price: %s\n   Liquidity: %s\n   %s - %s\n",
			i+1,
			orUnknown(pair.BaseToken.Name),
			orUnknown(pair.BaseToken.Symbol),
			formatPriceUSD(pair.PriceUSD),
			formatCurrency(pair.Liquidity.USD),
			orUnknown(pair.ChainID),
			orUnknown(pair.DexID),
		)
	}

	// Only the top result feeds the shared metadata.
	return contractx.SuccessResponse(AgentID, b.String(), pairData(ranked[0]))
}

/* ------------------------------ formatting ------------------------------ */

func summarizePair(pair dexscreenerx.Pair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", orUnknown(pair.BaseToken.Name), orUnknown(pair.BaseToken.Symbol))
	fmt.Fprintf(&b, "Price: %s\n", formatPriceUSD(pair.PriceUSD))
	fmt.Fprintf(&b, "Price changes: 5m %s | 1h %s | 24h %s\n",
		formatPercent(pair.PriceChange.M5),
		formatPercent(pair.PriceChange.H1),
		formatPercent(pair.PriceChange.H24),
	)
	fmt.Fprintf(&b, "Market cap: %s\n", formatOptionalCurrency(pair.MarketCap))
	fmt.Fprintf(&b, "Liquidity: %s\n", formatCurrency(pair.Liquidity.USD))
	fmt.Fprintf(&b, "24h volume: %s\n\n", formatCurrency(pair.Volume.H24))
	fmt.Fprintf(&b, "Chain: %s\nDEX: %s\n", orUnknown(pair.ChainID), orUnknown(pair.DexID))
	return b.String()
}

func pairData(pair dexscreenerx.Pair) contractx.Metadata {
	return contractx.Metadata{
		"name":             orUnknown(pair.BaseToken.Name),
		"symbol":           orUnknown(pair.BaseToken.Symbol),
		"price":            formatPriceUSD(pair.PriceUSD),
		"price_change_24h": formatPercent(pair.PriceChange.H24),
		"liquidity":        formatCurrency(pair.Liquidity.USD),
		"volume_24h":       formatCurrency(pair.Volume.H24),
		"market_cap":       formatOptionalCurrency(pair.MarketCap),
		"chain":            orUnknown(pair.ChainID),
		"dex":              orUnknown(pair.DexID),
		"pair_address":     orUnknown(pair.PairAddress),
	}
}

// formatCurrency renders a USD amount with K/M/B suffixes.
func formatCurrency(value float64) string {
	switch {
	case value >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", value/1_000_000_000)
	case value >= 1_000_000:
		return fmt.Sprintf("$%.2fM", value/1_000_000)
	case value >= 1_000:
		return fmt.Sprintf("$%.2fK", value/1_000)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}

func formatOptionalCurrency(value float64) string {
	if value <= 0 {
		return "N/A"
	}
	return formatCurrency(value)
}

func formatPriceUSD(raw string) string {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "N/A"
	}
	if value != 0 && value < 0.01 {
		// Sub-cent tokens need the extra digits to be meaningful.
		return fmt.Sprintf("$%.8f", value)
	}
	return fmt.Sprintf("$%.2f", value)
}

func formatPercent(value *float64) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", *value)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func findHexAddress(query string) string {
	candidate := hexAddressPattern.FindString(query)
	if candidate == "" || !common.IsHexAddress(candidate) {
		return ""
	}
	return candidate
}
