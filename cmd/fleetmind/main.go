package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"fleetmind/internal/authz"
	"fleetmind/internal/config"
	"fleetmind/internal/llm"
	"fleetmind/internal/logging"
	"fleetmind/internal/pipeline"
	"fleetmind/internal/session"
	"fleetmind/internal/store"
	"fleetmind/internal/transport/web"
	"fleetmind/internal/transport/whatsapp"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fleetmind",
	Short: "fleetmind - conversational logistics agent",
	Long: `fleetmind turns free-form logistics requests (English, Hindi, or
Hinglish) into fleet database operations: registering owners and
drivers, adding vehicles, trips, loads and expenses, and answering
roll-up queries about them.

It serves a web chat API and a WhatsApp webhook, both backed by the
same turn pipeline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web chat API and WhatsApp webhook servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var whatsappCmd = &cobra.Command{
	Use:   "whatsapp",
	Short: "Run only the WhatsApp webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := whatsapp.New(app.cfg.WhatsApp.Addr, app.pipe, app.sessions, app.cfg.WhatsApp.MaxIterations, logger)
		return srv.Run(ctx)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat on the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		return runChat(cmd.Context(), role)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fleetmind %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fleetmind.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	chatCmd.Flags().String("role", "owner", "actor role (customer / driver / owner)")
	rootCmd.AddCommand(serveCmd, whatsappCmd, chatCmd, versionCmd)
}

// app bundles the wired components shared by every command.
type app struct {
	cfg      *config.Config
	store    *store.Store
	pipe     *pipeline.Pipeline
	sessions *session.Store
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(logging.Settings{
		DebugMode:  cfg.Logging.DebugMode,
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewFromConfig(cfg.LLM, cfg.GetLLMTimeout())
	if err != nil {
		if err == llm.ErrNoAPIKey {
			logger.Warn("no LLM provider configured; planner falls back to fast paths and chat")
			client = nil
		} else {
			st.Close()
			return nil, err
		}
	}

	pipe := pipeline.New(st, client, pipeline.Options{
		AutoLoop:       cfg.Pipeline.AutoLoop,
		MaxIterations:  cfg.Pipeline.MaxIterations,
		StructuredJSON: cfg.Pipeline.StructuredOutput,
	})

	logger.Info("fleetmind ready",
		zap.String("db", cfg.Store.DatabasePath),
		zap.Bool("llm", client != nil),
	)
	return &app{
		cfg:      cfg,
		store:    st,
		pipe:     pipe,
		sessions: session.NewStore(),
	}, nil
}

func runServe(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	webSrv := web.New(a.cfg.Server.Addr, a.pipe, a.sessions, logger)
	waSrv := whatsapp.New(a.cfg.WhatsApp.Addr, a.pipe, a.sessions, a.cfg.WhatsApp.MaxIterations, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return webSrv.Run(gctx) })
	g.Go(func() error { return waSrv.Run(gctx) })
	return g.Wait()
}

func runChat(ctx context.Context, role string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actorRole := authz.Normalize(role)
	fmt.Printf("fleetmind %s (role: %s). Type 'exit' to quit.\n", version, actorRole)

	st := pipeline.NewTurnState("", actorRole)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		st.UserInput = line
		reply := a.pipe.ProcessTurn(ctx, st)
		fmt.Println(reply)
	}
	return scanner.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
