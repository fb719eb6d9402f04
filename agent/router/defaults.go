package router

// Default keyword tables for the stock agent lineup. Weights favor terms that
// almost always mean a live data lookup or a trade over generally chatty ones.

func DefaultProfiles(marketID, swapID string) []KeywordProfile {
	return []KeywordProfile{
		{
			AgentID: marketID,
			Weights: map[string]float64{
				"price":     0.8,
				"token":     0.6,
				"pair":      0.6,
				"liquidity": 0.8,
				"volume":    0.8,
				"chart":     0.6,
				"market":    0.5,
				"cap":       0.4,
				"dex":       0.5,
				"crypto":    0.4,
				"eth":       0.5,
				"btc":       0.5,
				"sol":       0.5,
			},
		},
		{
			AgentID: swapID,
			Weights: map[string]float64{
				"swap":     0.9,
				"buy":      0.8,
				"sell":     0.8,
				"trade":    0.7,
				"exchange": 0.6,
				"convert":  0.6,
				"slippage": 0.8,
				"gas":      0.6,
				"route":    0.5,
			},
		},
	}
}

func DefaultAssetTokens() []string {
	return []string{
		"btc", "bitcoin",
		"eth", "ethereum",
		"sol", "solana",
		"bnb", "doge", "dogecoin",
		"usdc", "usdt", "pepe",
	}
}

func DefaultPriceIntentTokens() []string {
	return []string{"price", "worth", "cost", "value"}
}
