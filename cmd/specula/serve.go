// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/specula/internal/api"
	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/netinf"
	"github.com/tomtom215/specula/internal/settings"
	"github.com/tomtom215/specula/internal/supervisor"
	"github.com/tomtom215/specula/internal/supervisor/services"
	"github.com/tomtom215/specula/internal/updates"
	"github.com/tomtom215/specula/internal/watch"
	ws "github.com/tomtom215/specula/internal/websocket"
)

var (
	serveConfigPath   string
	serveSettingsPath string
	serveInteractive  bool
	serveLogLevel     string
	serveLogFile      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	Long: `Loads configuration, builds the demo value group and its route
table, and serves the dashboard under process supervision until SIGINT,
SIGTERM or (with --interactive) q + Enter on the console.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to configuration file")
	serveCmd.Flags().StringVarP(&serveSettingsPath, "settings", "s", "", "path to settings file, overrides the configured one")
	serveCmd.Flags().BoolVarP(&serveInteractive, "interactive", "i", false, "read the console while serving: q + Enter stops the server")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "log level, overrides the configured one (trace, debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "append logs to this file instead of stderr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveConfigPath != "" {
		os.Setenv(config.ConfigPathEnvVar, serveConfigPath)
	}
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if serveSettingsPath != "" {
		cfg.Settings.Path = serveSettingsPath
	}

	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}
	if serveLogFile != "" {
		f, err := os.OpenFile(serveLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		// File logs stay machine-readable whatever the configured format
		logCfg.Format = "json"
		logCfg.Output = f
	}
	logging.Init(logCfg)
	logging.Info().Msg("Starting Specula with supervisor tree")
	logging.Info().
		Str("settings_path", cfg.Settings.Path).
		Str("static_root", cfg.Server.StaticRoot).
		Bool("auth_enabled", cfg.Auth.Enabled).
		Msg("Configuration loaded")

	startTime := time.Now()

	// Saved settings feed the group construction; a missing file is just
	// first run.
	store := settings.NewStore(&cfg.Settings)
	saved, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if len(saved) > 0 {
		logging.Info().Int("count", len(saved)).Str("path", store.Path()).Msg("Saved settings loaded")
	}

	app := watch.NewApp([]watch.Agent{watch.AgentApp, watch.AgentUser}, logging.Logger())
	group := watch.NewGroup(app, saved, demoDefs(cfg))

	registry := updates.NewRegistry(cfg.Updates.PageExpiry)
	wsHub := ws.NewHub()

	// Every value change reaches connected dashboards, whichever code
	// path made it.
	bridge := ws.NewBridge(wsHub)
	if err := bridge.WatchGroup("", group); err != nil {
		logging.Warn().Err(err).Msg("Some values are not visible over the WebSocket")
	}
	defer bridge.Close()

	table := demoTable(cfg, group, registry)
	if err := table.Validate(); err != nil {
		return fmt.Errorf("route table: %w", err)
	}

	authMw, err := auth.NewMiddleware(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}
	if authMw.Enabled() {
		logging.Info().Msg("JWT authentication enabled for the JSON API")
	}

	handler, err := api.NewHandler(cfg, table, registry, wsHub, store, api.WatchStore(group))
	if err != nil {
		return fmt.Errorf("building handler: %w", err)
	}
	router := api.NewRouter(handler, authMw)

	// Write timeout stays unset: update and camera streams are long-lived
	// by design.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return fmt.Errorf("building supervisor tree: %w", err)
	}

	tree.AddPageService(services.NewReaperService(registry, cfg.Updates.ReaperInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewUptimeService(startTime, 0))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ips, err := netinf.AllIPv4(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Could not list network interfaces")
	}
	banner := startBanner(ips, cfg.Server.Port)
	fmt.Println(banner)
	logging.Info().Msg(banner)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if serveInteractive {
		fmt.Println("interactive mode: q + Enter stops the server")
		go watchConsole(cancel)
	}

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Specula stopped")
	return nil
}

// startBanner phrases the reachable-address announcement. Wording is a
// frontend-visible contract; scripts grep the log for it.
func startBanner(ips []string, port int) string {
	switch len(ips) {
	case 0:
		return fmt.Sprintf("starting webserver on internal IP only (no external IP addresses found), port %d", port)
	case 1:
		return fmt.Sprintf("Starting webserver on %s:%d", ips[0], port)
	default:
		return fmt.Sprintf("Starting webserver on multiple ip addresses (%s), port:%d", strings.Join(ips, ", "), port)
	}
}

// watchConsole reads lines from stdin until q quits the server or input
// ends. Runs as a goroutine; it leaks blocked on a silent console, which
// is fine for a process-lifetime helper.
func watchConsole(cancel context.CancelFunc) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "q" {
			logging.Info().Msg("Quit requested from console")
			cancel()
			return
		}
	}
}
