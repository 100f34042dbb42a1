package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minhdn/towerdesk/internal/agent"
	"github.com/minhdn/towerdesk/internal/auth"
	"github.com/minhdn/towerdesk/internal/catalog"
	"github.com/minhdn/towerdesk/internal/gateway"
	"github.com/minhdn/towerdesk/internal/llm"
	"github.com/minhdn/towerdesk/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			verifier, err := auth.NewVerifier(cfg.Auth, log)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Database.DataDir, log)
			if err != nil {
				return err
			}
			defer st.Close()

			client, err := modelClient(cfg.Model.Provider, cfg.Model.APIKey, cfg.Model.Model)
			if err != nil {
				return err
			}
			log.Info().Str("provider", client.Name()).Str("model", cfg.Model.Model).Msg("model client ready")

			registry := agent.NewRegistry(log)
			runner := agent.NewRunner(agent.RunnerConfig{
				MaxDispatches: cfg.Model.MaxDispatches,
				CallTimeout:   time.Duration(cfg.Model.CallTimeoutSec) * time.Second,
			}, client, catalog.New(st), registry, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, verifier, registry, runner, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind address")

	return cmd
}

// modelClient builds the configured reasoning-model client.
func modelClient(provider, apiKey, model string) (llm.Client, error) {
	switch provider {
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("model.apiKey is required for the gemini provider")
		}
		return llm.NewGeminiClient(apiKey, model), nil
	case "mock":
		return &llm.MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", provider)
	}
}
