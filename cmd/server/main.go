package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ISMendys/alexa-gemini/calendar"
	"github.com/ISMendys/alexa-gemini/credentials"
	"github.com/ISMendys/alexa-gemini/dates"
	"github.com/ISMendys/alexa-gemini/gemini"
	"github.com/ISMendys/alexa-gemini/intents"
	"github.com/ISMendys/alexa-gemini/internal/config"
	"github.com/ISMendys/alexa-gemini/internal/logger"
	"github.com/ISMendys/alexa-gemini/oauthflow"
	"github.com/ISMendys/alexa-gemini/server"
	"github.com/ISMendys/alexa-gemini/speech"
	"github.com/ISMendys/alexa-gemini/token"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "alexa-gemini",
	Short: "Voice skill webhook bridging Gemini and Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(&cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP server (default)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	rootCmd.AddCommand(tokensCmd(), adminTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.GetAppName(), cfg.GetEnv(), cfg.GetLogLevel())
	return cfg, nil
}

func serve() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Str("stack", string(debug.Stack())).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	displayAppname(cfg.GetAppName())

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("failed to close credential store")
		}
	}()

	handler, err := buildServer(cfg, store)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// buildServer wires every collaborator behind the HTTP surface.
func buildServer(cfg config.Config, store credentials.Store) (*server.Server, error) {
	timeout := cfg.GetUpstreamTimeout()
	upstreamClient := &http.Client{Timeout: timeout}

	opts := []oauthflow.ManagerOption{
		oauthflow.WithTimeout(timeout),
		oauthflow.WithHTTPClient(upstreamClient),
	}
	if cfg.GetVerifyIDToken() {
		opts = append(opts, oauthflow.WithIdentityVerifier(
			oauthflow.NewGoogleIdentityVerifier(cfg.GetGoogleClientID(), upstreamClient)))
	}
	manager, err := oauthflow.NewManager(cfg, store, opts...)
	if err != nil {
		return nil, err
	}

	phrases, err := speech.NewPhrasebook(cfg.GetDefaultLocale())
	if err != nil {
		return nil, fmt.Errorf("failed to build phrasebook: %w", err)
	}

	router, err := intents.NewRouter(
		manager,
		gemini.NewClient(cfg),
		calendar.NewGoogleConnector(cfg.GetLocation(), timeout),
		dates.NewResolver(cfg.GetLocation()),
		phrases,
		intents.WithSkillID(cfg.GetSkillID()),
	)
	if err != nil {
		return nil, err
	}

	return server.New(cfg, manager, router, token.NewAdminIssuer(cfg))
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
