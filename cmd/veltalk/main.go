package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/VeltaLabs/veltalk-client/pkg/api"
	"github.com/VeltaLabs/veltalk-client/pkg/network"
	"github.com/VeltaLabs/veltalk-client/pkg/session"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	endpoints  = flag.String("endpoints", "", "Comma-separated WebSocket endpoint URIs (overrides config)")
	dataDir    = flag.String("data", "./data", "Session storage directory")
	sqlitePath = flag.String("sqlite", "", "Store the session in this SQLite database instead of a JSON file")
	apiPort    = flag.Int("api-port", 0, "Serve the diagnostics API on this port (0 disables)")
	logout     = flag.Bool("logout", false, "Clear the persisted session and exit")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	store, closeStore, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("session store error")
	}
	defer closeStore()

	supervisor, err := network.NewSupervisor(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("supervisor error")
	}

	if *logout {
		if err := supervisor.Logout(); err != nil {
			log.Fatal().Err(err).Msg("logout failed")
		}
		log.Info().Msg("session cleared")
		return
	}

	unsubscribe := supervisor.Subscribe(func(ev network.Event) {
		switch ev.Type {
		case network.EventQR:
			fmt.Println("Scan to pair:")
			fmt.Println(ev.QR)
		case network.EventReady:
			log.Info().Msg("connection ready")
		case network.EventMessage:
			log.Info().Str("tag", ev.Node.Tag).Msg("message received")
		case network.EventConnectionLost:
			log.Warn().Err(ev.Err).Int("attempt", ev.Attempt).Msg("connection lost")
		case network.EventConnectionFailed:
			log.Error().Err(ev.Err).Msg("giving up on reconnection")
		case network.EventAuthFailure:
			log.Error().Err(ev.Err).Msg("authentication failed")
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *apiPort > 0 {
		apiCfg := api.DefaultConfig()
		apiCfg.Port = *apiPort
		diag, err := api.NewServer(supervisor, apiCfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("diagnostics server error")
		}
		go func() {
			if err := diag.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("diagnostics server stopped")
			}
		}()
	}

	if err := supervisor.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("initial connect failed")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	cancel()
	if err := supervisor.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("disconnect error")
	}
}

func loadConfig() (network.Config, error) {
	var cfg network.Config
	if *configPath != "" {
		loaded, err := network.LoadConfig(*configPath)
		if err != nil {
			return network.Config{}, err
		}
		cfg = loaded
	} else {
		cfg = network.DefaultConfig()
	}

	if *endpoints != "" {
		cfg.Endpoints = nil
		for _, e := range strings.Split(*endpoints, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.Endpoints = append(cfg.Endpoints, e)
			}
		}
	}
	return cfg, nil
}

func openStore() (session.Store, func(), error) {
	if *sqlitePath != "" {
		store, err := session.NewSQLiteStore(*sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	store, err := session.NewFileStore(*dataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
