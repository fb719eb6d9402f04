package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	assistantx "tokenpilot/agent/agents/assistant"
	marketx "tokenpilot/agent/agents/market"
	swapx "tokenpilot/agent/agents/swap"
	contractx "tokenpilot/agent/contract"
	conversationx "tokenpilot/agent/conversation"
	orchestratorx "tokenpilot/agent/orchestrator"
	promptx "tokenpilot/agent/prompt"
	routerx "tokenpilot/agent/router"
	configx "tokenpilot/pkg/config"
	dexscreenerx "tokenpilot/pkg/dexscreener"
	ethchainx "tokenpilot/pkg/ethchain"
	_ "tokenpilot/pkg/logger/autoload"
	openaichatx "tokenpilot/pkg/openaichat"
	serverx "tokenpilot/server"
)

type AppConfig struct {
	Strategy      string  `envconfig:"STRATEGY" split_words:"true" default:"keyword"`
	Threshold     float64 `envconfig:"THRESHOLD" split_words:"true" default:"0.5"`
	ContextWindow int     `envconfig:"CONTEXT_WINDOW" split_words:"true" default:"10"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("ROUTER")

	openAICfg := configx.MustNew[openaichatx.Config]("OPENAI")
	completer := openaichatx.MustNew(*openAICfg)

	dexCfg := configx.MustNew[dexscreenerx.Config]("DEXSCREENER")
	dexClient, err := dexscreenerx.NewClient(*dexCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dexscreener client")
	}

	prompts := promptx.LoadPromptSet()

	assistantAgent, err := assistantx.New(completer, prompts.Assistant)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize assistant agent")
	}
	marketAgent, err := marketx.New(dexClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize market agent")
	}
	swapAgent := swapx.New(dialChain())

	agents := map[string]contractx.Agent{
		assistantx.AgentID: assistantAgent,
		marketx.AgentID:    marketAgent,
		swapx.AgentID:      swapAgent,
	}

	strategy, err := buildStrategy(*appCfg, agents, completer, prompts.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize routing strategy")
	}

	agentIDs := make([]string, 0, len(agents))
	for id := range agents {
		agentIDs = append(agentIDs, id)
	}
	router, err := routerx.New(strategy, agentIDs, assistantx.AgentID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	store := conversationx.NewStore(conversationx.WithCapacity(appCfg.ContextWindow))
	orch, err := orchestratorx.New(agents, router, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize orchestrator")
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv := serverx.New(orch, *serverCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown failed")
		}
	}
}

// dialChain connects the optional EVM RPC endpoint. The swap agent works
// without it; quotes just omit gas data.
func dialChain() swapx.ChainReader {
	ethCfg := configx.MustNew[ethchainx.Config]("ETH")
	if strings.TrimSpace(ethCfg.RPCURL) == "" {
		log.Warn().Msg("no ethereum rpc url configured, swap quotes will omit gas data")
		return nil
	}

	chain, err := ethchainx.Dial(context.Background(), *ethCfg)
	if err != nil {
		log.Warn().Err(err).Msg("ethereum rpc dial failed, swap quotes will omit gas data")
		return nil
	}
	return chain
}

func buildStrategy(cfg AppConfig, agents map[string]contractx.Agent, completer contractx.Completer, classifierPreamble string) (contractx.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case "keyword", "":
		return routerx.NewKeywordStrategy(
			routerx.DefaultProfiles(marketx.AgentID, swapx.AgentID),
			assistantx.AgentID,
			routerx.WithThreshold(cfg.Threshold),
			routerx.WithPriceShortcut(marketx.AgentID, routerx.DefaultAssetTokens(), routerx.DefaultPriceIntentTokens()),
		), nil
	case "classifier":
		descriptors := make([]routerx.AgentDescriptor, 0, len(agents))
		for id, agent := range agents {
			descriptors = append(descriptors, routerx.AgentDescriptor{ID: id, Description: agent.Description()})
		}
		return routerx.NewClassifierStrategy(completer, classifierPreamble, descriptors, assistantx.AgentID)
	default:
		return nil, errors.New("unknown routing strategy: " + cfg.Strategy)
	}
}
