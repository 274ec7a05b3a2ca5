package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aiexpress/campaignctl/internal/agent"
	"github.com/aiexpress/campaignctl/internal/api"
	"github.com/aiexpress/campaignctl/internal/campaign"
	"github.com/aiexpress/campaignctl/internal/chat"
	"github.com/aiexpress/campaignctl/internal/console"
	"github.com/aiexpress/campaignctl/internal/models"
	"github.com/aiexpress/campaignctl/pkg/config"
)

var (
	flagConfig  string
	flagAPIURL  string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "campaignctl",
		Short: "Terminal front-end for the AI Express campaign agent",
		Long: `campaignctl talks to the campaign agent service: submit a product and
target audience, poll the generated social-media copy and browse past
campaigns. Run it without arguments for an interactive session.`,
		SilenceUsage: true,
		RunE: runChat,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "base URL of the agent service")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newChatCmd())
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newLatestCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newAgentCmd())

	return root
}

type app struct {
	cfg    *config.Config
	client *api.Client
	logger *zap.Logger
}

func bootstrap() (*app, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err), zap.String("path", flagConfig))
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
	}

	return &app{
		cfg:    cfg,
		client: api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger),
		logger: logger,
	}, nil
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := console.New(
		chat.NewStore(a.client, a.logger),
		campaign.NewTracker(a.client, a.logger),
		campaign.NewHistory(a.client, a.cfg.History.Limit, a.logger),
		os.Stdin,
		os.Stdout,
		a.logger,
	)
	return session.Run(ctx)
}

func newSubmitCmd() *cobra.Command {
	var producto, publico string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			tracker := campaign.NewTracker(a.client, a.logger)
			record, err := tracker.Submit(cmd.Context(), models.CampaignPayload{
				Producto:        producto,
				PublicoObjetivo: publico,
			})
			if err != nil {
				return fmt.Errorf("%s", tracker.State().Err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Campana enviada (id: %s, estado: %s).\nConsulta el resultado con: campaignctl latest --status completed\n",
				record.ID, record.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&producto, "producto", "", "product or service to promote")
	cmd.Flags().StringVar(&publico, "publico", "", "target audience")
	cmd.MarkFlagRequired("producto")
	cmd.MarkFlagRequired("publico")
	return cmd
}

func newLatestCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			record, err := a.client.LatestCampaign(cmd.Context(), status)
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Todavia no se guardo ninguna campana.")
				return nil
			}
			console.RenderRecord(cmd.OutOrStdout(), record)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, completed, failed)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past campaigns, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			records, err := a.client.ListCampaigns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			console.RenderList(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of campaigns to list")
	return cmd
}

func newAgentCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run a local stand-in for the agent service",
		Long: `Runs a local HTTP server that speaks the agent service's contract and
answers with templated copy, so the front-end can be used without the real
agent. Campaigns are kept in memory unless a database is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			var store agent.Store
			if a.cfg.Agent.Database.UseInMemory {
				a.logger.Info("using in-memory campaign store")
				store = agent.NewMemoryStore()
			} else {
				a.logger.Info("using PostgreSQL campaign store")
				db := a.cfg.Agent.Database
				store, err = agent.NewPostgresStore(agent.DatabaseConfig{
					Host:     db.Host,
					Port:     db.Port,
					User:     db.User,
					Password: db.Password,
					DBName:   db.DBName,
					SSLMode:  db.SSLMode,
				})
				if err != nil {
					a.logger.Error("failed to initialize campaign store", zap.Error(err))
					return err
				}
			}
			defer store.Close()

			if addr == "" {
				addr = a.cfg.Agent.Addr
			}
			server := agent.NewServer(store, a.cfg.Agent.CompletionDelay, a.logger)
			return server.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
