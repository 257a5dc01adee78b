package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chainsight/internal/agents"
	"chainsight/internal/analytics"
	"chainsight/internal/cli"
	"chainsight/internal/config"
	"chainsight/internal/llm_client"
	"chainsight/internal/logger"
	"chainsight/internal/planner"
	"chainsight/internal/session"
	"chainsight/internal/supervisor"
	"chainsight/internal/tools"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Configuration error:", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}

	if err := llm_client.Init(llm_client.Config{
		Backend:    cfg.LLMBackend,
		Model:      cfg.LLMModel,
		OllamaHost: cfg.OllamaHost,
	}); err != nil {
		// Not fatal: the front doors report the missing backend per request.
		fmt.Println("Warning:", err)
		logger.Log.Printf("[Main] llm init: %v", err)
	} else {
		logger.Log.Printf("[Main] completion backend: %s", llm_client.ActiveBackend())
	}

	var store session.Store
	if cfg.SessionDB != "" {
		s, err := session.NewSQLiteStore(cfg.SessionDB)
		if err != nil {
			fmt.Println("Failed to open session database:", err)
			os.Exit(1)
		}
		store = s
	} else {
		store = session.NewMemoryStore()
	}
	defer store.Close()

	engine := analytics.NewClient(cfg.AnalyticsURL)
	registry := tools.NewRegistry(engine)

	defs := agents.StockDefinitions()
	providers := make([]agents.CapabilityProvider, 0, len(defs))
	capabilities := make([]planner.Capability, 0, len(defs))
	for _, def := range defs {
		for _, tool := range def.Tools {
			if !registry.Has(tool) {
				fmt.Printf("Warning: agent %s references unknown tool %s\n", def.Name, tool)
				logger.Log.Printf("[Main] agent %s references unknown tool %s", def.Name, tool)
			}
		}
		providers = append(providers, agents.NewWorker(def, agents.LLMGenerator{Model: cfg.LLMModel}, registry))
		capabilities = append(capabilities, planner.Capability{Name: def.Name, Description: def.Description})
	}

	pl := planner.NewLLMPlanner(planner.LLMGenerator{Model: cfg.LLMModel}, capabilities)

	sup := supervisor.New(store, pl, providers, supervisor.Options{
		HistoryWindow: cfg.HistoryWin,
		StepTimeout:   cfg.StepTimeout,
		PlanTimeout:   cfg.PlanTimeout,
	})

	cli.Execute(&cli.App{
		Runner:     sup,
		Store:      store,
		Ready:      llm_client.Ready,
		ListenAddr: ":" + cfg.Port,
	})
}
