// Package dexscreener is a small REST client for the public Dexscreener API.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	defaultBaseURL       = "https://api.dexscreener.com/latest/dex"
	defaultTimeout       = 10 * time.Second
	maxResponseSizeBytes = 2 << 20
)

var ErrNoPairs = errors.New("no pairs found")

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.dexscreener.com/latest/dex"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid dexscreener base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

/* ------------------------------ wire types ------------------------------ */

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	USD float64 `json:"usd"`
}

type PriceChange struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H24 *float64 `json:"h24"`
}

type Volume struct {
	H24 float64 `json:"h24"`
}

type Pair struct {
	ChainID     string      `json:"chainId"`
	DexID       string      `json:"dexId"`
	PairAddress string      `json:"pairAddress"`
	BaseToken   Token       `json:"baseToken"`
	QuoteToken  Token       `json:"quoteToken"`
	PriceUSD    string      `json:"priceUsd"`
	PriceChange PriceChange `json:"priceChange"`
	Liquidity   Liquidity   `json:"liquidity"`
	Volume      Volume      `json:"volume"`
	MarketCap   float64     `json:"marketCap"`
}

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

/* ------------------------------ operations ------------------------------ */

// Token returns every indexed pair for a token contract address.
func (c *Client) Token(ctx context.Context, address string) ([]Pair, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("token address is required")
	}
	return c.getPairs(ctx, "/tokens/"+url.PathEscape(address), nil)
}

// Pairs returns details for one trading pair contract address.
func (c *Client) Pairs(ctx context.Context, pairAddress string) ([]Pair, error) {
	pairAddress = strings.TrimSpace(pairAddress)
	if pairAddress == "" {
		return nil, errors.New("pair address is required")
	}
	return c.getPairs(ctx, "/pairs/"+url.PathEscape(pairAddress), nil)
}

// Search looks up pairs by free-text token name or symbol.
func (c *Client) Search(ctx context.Context, query string) ([]Pair, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	return c.getPairs(ctx, "/search", url.Values{"q": []string{query}})
}

func (c *Client) getPairs(ctx context.Context, path string, params url.Values) ([]Pair, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build dexscreener request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read dexscreener response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded pairsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode dexscreener response: %w", err)
	}
	if len(decoded.Pairs) == 0 {
		return nil, ErrNoPairs
	}
	return decoded.Pairs, nil
}

/* ------------------------------- helpers -------------------------------- */

// MostLiquid returns the pair with the highest USD liquidity. Ties keep the
// earlier pair, matching the API's own ordering.
func MostLiquid(pairs []Pair) Pair {
	if len(pairs) == 0 {
		return Pair{}
	}
	best := pairs[0]
	for _, p := range pairs[1:] {
		if p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	return best
}

// SortByLiquidity returns a copy sorted by USD liquidity, highest first.
func SortByLiquidity(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Liquidity.USD > out[j].Liquidity.USD
	})
	return out
}
