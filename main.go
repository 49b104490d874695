package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"themedmark/api"
	"themedmark/config"
	"themedmark/highlighter"
	"themedmark/logging"
	"themedmark/mode"
	"themedmark/scheme"
	"themedmark/storage"
	"themedmark/watcher"
)

var (
	dataDir      string
	listen       string
	listenPort   int
	storeKind    string
	pollInterval time.Duration
	logLevel     string
	themeClass   string
	appVersion   = "0.2.0"
)

var rootCmd = &cobra.Command{
	Use:   "themedmark",
	Short: "themedmark – theme-aware highlight colors for documents",
	Long: "themedmark keeps <mark> highlight colors in your documents in step with the light or dark\n" +
		"display mode, using named color schemes that carry one color per mode.",
	SilenceUsage: true,
	RunE:         runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Manage themedmark configuration files.",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a default configuration file",
	Long:  "Generate a default themedmark.config file in the specified data directory (or current directory if not specified).",
	RunE:  runConfigGenerate,
}

func init() {
	wd, _ := os.Getwd()
	rootCmd.Version = appVersion
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", wd, "Data directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&listen, "listen", "all", "IP address to listen on (default: all)")
	rootCmd.Flags().IntVar(&listenPort, "listen-port", 8080, "Port to listen on (default: 8080)")
	rootCmd.Flags().StringVar(&storeKind, "store", string(storage.KindFS), "Document store: fs or sqlite")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "How often the display mode is sampled")
	rootCmd.Flags().StringVar(&themeClass, "theme-class", mode.LightClass, "Initial host theme class list")

	configCmd.AddCommand(configGenerateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(rewriteCmd, highlightCmd, watchCmd, schemesCmd)
}

// loadConfig reads the config from --data-dir and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg, err := config.Load(dataDirAbs)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.DataDir = dataDirAbs

	flags := cmd.Flags()
	if flags.Changed("listen") || flags.Changed("listen-port") {
		if listen != "" && listen != "all" {
			cfg.ListenAddr = fmt.Sprintf("%s:%d", listen, listenPort)
		} else {
			cfg.ListenAddr = fmt.Sprintf(":%d", listenPort)
		}
	}
	if flags.Changed("store") {
		cfg.Store = storage.Kind(storeKind)
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval.String()
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*log.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, level)
	log.SetDefault(logger)
	return logger, nil
}

// newRegistry loads the configured schemes and persists every later change.
func newRegistry(cfg config.Config, logger *log.Logger) (*scheme.Registry, *config.Persister) {
	registry := scheme.NewRegistry(cfg.Schemes)
	persister := config.NewPersister(cfg, logger)
	registry.SetOnUpdate(persister.Save)
	return registry, persister
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Store, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer store.Close()

	registry, _ := newRegistry(cfg, logger)
	ui := mode.NewStaticState(themeClass)
	detector := mode.NewDetector(ui)
	hub := api.NewNotificationHub()

	hl := highlighter.New(registry, store, detector.Mode, hub, logging.Component(logger, "rewrite"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := watcher.New(detector.Mode, hl.ModeChanged,
		watcher.WithInterval(interval),
		watcher.WithLogger(logging.Component(logger, "watcher")),
	)
	w.Start(ctx)
	defer w.Stop()

	mux := http.NewServeMux()
	api.NewServer(hl, store, ui, registry, hub, logging.Component(logger, "api")).Register(mux)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	printListeningAddresses(logger, cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	return nil
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := config.Default()
	cfg.DataDir = dataDirAbs

	cfgPath := config.Path(dataDirAbs)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file already exists: %s", cfgPath)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated default config file: %s\n", cfgPath)
	return nil
}

func printListeningAddresses(logger *log.Logger, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		logger.Infof("listening on http://%s", addr)
		return
	}

	if host != "" && host != "0.0.0.0" && host != "::" {
		logger.Infof("listening on http://%s:%s", host, port)
		return
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logger.Infof("listening on http://0.0.0.0:%s", port)
		return
	}
	logger.Info("listening on:")
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			logger.Infof("  http://%s:%s", ipnet.IP.String(), port)
		}
	}
	logger.Infof("  http://localhost:%s", port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
