package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/alertbridge/internal/alertlog"
	"github.com/good-yellow-bee/alertbridge/internal/analysis"
	"github.com/good-yellow-bee/alertbridge/internal/api"
	"github.com/good-yellow-bee/alertbridge/internal/directory"
	"github.com/good-yellow-bee/alertbridge/internal/gateway"
	"github.com/good-yellow-bee/alertbridge/internal/metrics"
	"github.com/good-yellow-bee/alertbridge/internal/monitoring"
	"github.com/good-yellow-bee/alertbridge/internal/pipeline"
	"github.com/good-yellow-bee/alertbridge/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "alertbridge-server",
	Short: "AlertBridge Server - Zabbix alert to WhatsApp notification bridge",
	Long: `AlertBridge Server receives monitoring alerts, classifies them by
severity, optionally enriches them with an AI diagnostic analysis, and
fans the notification out to WhatsApp recipients.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("alertbridge-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	// Recipient directory
	dir, err := directory.Open(cfg.Recipients.Path)
	if err != nil {
		return fmt.Errorf("open recipient directory: %w", err)
	}
	defer dir.Close()

	if cfg.Recipients.Watch {
		if err := dir.Watch(); err != nil {
			return fmt.Errorf("watch recipient directory: %w", err)
		}
	}

	log.Printf("recipient directory at %s", cfg.Recipients.Path)

	// Alert log
	alertLog := alertlog.New(cfg.AlertLog.Capacity)

	// Messaging gateway client
	gw, err := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.WhatsApp.BaseURL,
		SecretKey: cfg.WhatsApp.SecretKey,
		Session:   cfg.WhatsApp.Session,
		Timeout:   cfg.WhatsApp.Timeout,
		SendRate:  cfg.WhatsApp.SendRate,
		SendBurst: cfg.WhatsApp.SendBurst,
	})
	if err != nil {
		return fmt.Errorf("create gateway client: %w", err)
	}
	gw.OnStateChange(func(s gateway.SessionState) {
		metrics.GatewaySessionState.Set(float64(s))
	})

	// Monitoring client (optional)
	var mon pipeline.MonitoringClient
	if cfg.Zabbix.URL != "" {
		zbx, err := monitoring.NewClient(monitoring.Config{
			URL:      cfg.Zabbix.URL,
			Username: cfg.Zabbix.Username,
			Password: cfg.Zabbix.Password,
			Timeout:  cfg.Zabbix.Timeout,
		})
		if err != nil {
			return fmt.Errorf("create monitoring client: %w", err)
		}
		mon = zbx
		log.Printf("monitoring enrichment enabled (%s)", cfg.Zabbix.URL)
	} else {
		log.Printf("monitoring enrichment disabled (no zabbix.url)")
	}

	// AI summarizer (optional)
	var analyzer pipeline.Analyzer
	if summarizer := analysis.NewSummarizer(analysis.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}); summarizer != nil {
		analyzer = summarizer
		log.Printf("AI analysis enabled (model %s)", summarizer.Model())
	} else {
		log.Printf("AI analysis disabled (no OPENAI_API_KEY)")
	}

	// Pipeline
	pipe, err := pipeline.New(mon, analyzer, gw, dir, alertLog)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	// API server
	apiServer, err := api.New(&api.Config{
		Address:        cfg.Server.Address,
		JWTSecret:      []byte(cfg.Dashboard.JWTSecret),
		AccessTokenTTL: cfg.Dashboard.AccessTokenTTL,
		Username:       cfg.Dashboard.Username,
		Password:       cfg.Dashboard.Password,
		Development:    cfg.Server.Development,
		Verbose:        cfg.Verbose,
	}, pipe, alertLog, gw, dir)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting alertbridge-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Run(gctx)
	})
	g.Go(func() error {
		return metricsServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
