package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/swiftbase/swiftbase/internal/config"
	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket server",
	Long: `Start the SwiftBase server.

Opens the configured SQLite database (running any pending system
migrations), wires every domain service, and serves the HTTP/WS API
until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	srv, err := server.New(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutdown signal received")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	log.Info().Str("addr", "http://"+cfg.Server.Address()).Msg("server starting")
	log.Info().Str("ws", "ws://"+cfg.Server.Address()+"/api/realtime").Msg("realtime endpoint")

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-ctx.Done()
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		log.Warn().Err(err).Msg("no config file found, using defaults")
		cfg = config.Default()
	}
	return cfg, nil
}
