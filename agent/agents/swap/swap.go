// Package swap implements the token-swap agent. It turns trade requests into
// quote previews; execution against a real DEX is out of scope, matching the
// original product behavior.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

const AgentID = "swap"

// ChainReader provides the live chain facts embedded into quotes. It may be
// absent; quotes then omit gas data.
type ChainReader interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Quote is a preview of a trade the user asked for.
type Quote struct {
	ID          string
	SwapType    string
	TokenIn     string
	TokenOut    string
	Amount      string
	Chain       string
	Dex         string
	Slippage    float64
	GasPriceWei *big.Int
	ChainID     *big.Int
}

type Agent struct {
	chain ChainReader

	mu        sync.Mutex
	lastQuote *Quote
}

var _ contractx.Agent = (*Agent)(nil)

// New builds the swap agent. chain may be nil when no RPC endpoint is
// configured.
func New(chain ChainReader) *Agent {
	return &Agent{chain: chain}
}

func (a *Agent) Description() string {
	return strings.TrimSpace(`
Handles queries about:
- Buying and selling tokens and cryptocurrencies
- Token swaps, conversions, and exchanges
- Trade routing across DEXes and chains
- Slippage settings and gas cost estimates for trades
`)
}

func (a *Agent) ProcessQuery(ctx context.Context, query string, shared contractx.Metadata) contractx.Response {
	req, err := parseQuery(query)
	if err != nil {
		if errors.Is(err, ErrUnknownIntent) {
			return contractx.Response{
				Message: "I couldn't determine what kind of swap operation you want to perform. " +
					"Please specify whether you want to buy, sell, or swap tokens.",
				Status:   contractx.StatusError,
				AgentTag: AgentID,
			}
		}
		return contractx.ErrorResponse(AgentID, err, "parse swap request")
	}

	quote := a.buildQuote(ctx, req)

	a.mu.Lock()
	a.lastQuote = &quote
	a.mu.Unlock()

	return contractx.SuccessResponse(AgentID, formatQuote(quote), quoteData(quote))
}

// Reset drops the agent-local quote history.
func (a *Agent) Reset() {
	a.mu.Lock()
	a.lastQuote = nil
	a.mu.Unlock()
}

// LastQuote returns the most recent quote, if any.
func (a *Agent) LastQuote() *Quote {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastQuote == nil {
		return nil
	}
	q := *a.lastQuote
	return &q
}

func (a *Agent) buildQuote(ctx context.Context, req request) Quote {
	quote := Quote{
		ID:       uuid.NewString(),
		SwapType: string(req.Intent),
		TokenIn:  req.TokenIn,
		TokenOut: req.TokenOut,
		Amount:   req.Amount,
		Chain:    req.Chain,
		Dex:      req.Dex,
		Slippage: req.Slippage,
	}

	// Live gas data only makes sense on the chain the reader is dialed into.
	if a.chain != nil && req.Chain == "ethereum" {
		if price, err := a.chain.GasPrice(ctx); err != nil {
			log.Warn().Err(err).Msg("gas price unavailable, quoting without it")
		} else {
			quote.GasPriceWei = price
		}
		if id, err := a.chain.ChainID(ctx); err != nil {
			log.Warn().Err(err).Msg("chain id unavailable, quoting without it")
		} else {
			quote.ChainID = id
		}
	}

	return quote
}

func formatQuote(q Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Swap quote %s\n\n", q.ID)
	fmt.Fprintf(&b, "Operation: %s\n", q.SwapType)
	if q.Amount != "" {
		fmt.Fprintf(&b, "Amount: %s %s\n", q.Amount, q.TokenIn)
	}
	fmt.Fprintf(&b, "Route: %s -> %s via %s on %s\n", q.TokenIn, q.TokenOut, q.Dex, q.Chain)
	fmt.Fprintf(&b, "Max slippage: %.2f%%\n", q.Slippage)
	if q.GasPriceWei != nil {
		fmt.Fprintf(&b, "Current gas price: %s gwei\n", weiToGwei(q.GasPriceWei))
	}
	if q.ChainID != nil {
		fmt.Fprintf(&b, "Chain id: %s\n", q.ChainID.String())
	}
	b.WriteString("\nThis is a quote preview; execution is not enabled.")
	return b.String()
}

func quoteData(q Quote) contractx.Metadata {
	data := contractx.Metadata{
		"quote_id":  q.ID,
		"swap_type": q.SwapType,
		"token_in":  q.TokenIn,
		"token_out": q.TokenOut,
		"chain":     q.Chain,
		"dex":       q.Dex,
		"slippage":  fmt.Sprintf("%.2f%%", q.Slippage),
	}
	if q.Amount != "" {
		data["amount"] = q.Amount
	}
	if q.GasPriceWei != nil {
		data["gas_price_gwei"] = weiToGwei(q.GasPriceWei)
	}
	return data
}

func weiToGwei(wei *big.Int) string {
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	return gwei.Text('f', 2)
}
