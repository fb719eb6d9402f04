package swap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownIntent = errors.New("could not determine swap intent")
	ErrMissingToken  = errors.New("could not determine which token to trade")
)

type intent string

const (
	intentBuy  intent = "buy"
	intentSell intent = "sell"
	intentSwap intent = "swap"
)

// request is the structured form of a swap query.
type request struct {
	Intent   intent
	Amount   string
	TokenIn  string
	TokenOut string
	Chain    string
	Dex      string
	Slippage float64
}

const defaultSlippagePercent = 0.5

var intentWords = map[string]intent{
	"buy":      intentBuy,
	"purchase": intentBuy,
	"sell":     intentSell,
	"dump":     intentSell,
	"swap":     intentSwap,
	"exchange": intentSwap,
	"convert":  intentSwap,
	"trade":    intentSwap,
}

var knownSymbols = map[string]struct{}{
	"eth": {}, "weth": {}, "btc": {}, "wbtc": {}, "sol": {},
	"usdc": {}, "usdt": {}, "dai": {}, "bnb": {}, "matic": {},
	"pepe": {}, "doge": {}, "link": {}, "uni": {}, "arb": {}, "op": {},
}

var knownDexes = map[string]struct{}{
	"uniswap": {}, "sushiswap": {}, "1inch": {},
	"raydium": {}, "orca": {}, "baseswap": {},
}

var chainDefaults = map[string]string{
	"ethereum": "uniswap",
	"solana":   "raydium",
	"base":     "baseswap",
}

var nativeAssets = map[string]string{
	"ethereum": "ETH",
	"solana":   "SOL",
	"base":     "ETH",
}

var (
	amountPattern   = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	slippagePattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)
)

// parseQuery extracts a trade request from free text. It is deliberately
// permissive: only the intent and at least one token are required, everything
// else falls back to chain defaults.
func parseQuery(query string) (request, error) {
	tokens := normalize(query)
	if len(tokens) == 0 {
		return request{}, ErrUnknownIntent
	}

	req := request{
		Chain:    "ethereum",
		Slippage: defaultSlippagePercent,
	}

	var refs []string
	for _, tok := range tokens {
		if req.Intent == "" {
			if in, ok := intentWords[tok]; ok {
				req.Intent = in
				continue
			}
		}
		if _, ok := chainDefaults[tok]; ok {
			req.Chain = tok
			continue
		}
		if _, ok := knownDexes[tok]; ok {
			req.Dex = tok
			continue
		}
		if req.Amount == "" && amountPattern.MatchString(tok) {
			req.Amount = tok
			continue
		}
		if common.IsHexAddress(tok) {
			refs = append(refs, tok)
			continue
		}
		if _, ok := knownSymbols[tok]; ok {
			refs = append(refs, strings.ToUpper(tok))
		}
	}

	if req.Intent == "" {
		return request{}, ErrUnknownIntent
	}
	if len(refs) == 0 {
		return request{}, ErrMissingToken
	}

	if m := slippagePattern.FindStringSubmatch(query); m != nil {
		fmt.Sscanf(m[1], "%f", &req.Slippage)
	}

	if req.Dex == "" {
		req.Dex = chainDefaults[req.Chain]
	}

	native := nativeAssets[req.Chain]
	switch req.Intent {
	case intentBuy:
		req.TokenOut = refs[0]
		if len(refs) > 1 {
			req.TokenIn = refs[1]
		} else {
			req.TokenIn = native
		}
	case intentSell:
		req.TokenIn = refs[0]
		if len(refs) > 1 {
			req.TokenOut = refs[1]
		} else {
			req.TokenOut = "USDC"
		}
	case intentSwap:
		if len(refs) < 2 {
			return request{}, fmt.Errorf("%w: a swap needs both an input and an output token", ErrMissingToken)
		}
		req.TokenIn = refs[0]
		req.TokenOut = refs[1]
	}

	return req, nil
}

func normalize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
