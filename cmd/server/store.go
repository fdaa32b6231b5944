package main

import (
	"fmt"

	"github.com/ISMendys/alexa-gemini/credentials"
	"github.com/ISMendys/alexa-gemini/credentials/sqlitestore"
	"github.com/ISMendys/alexa-gemini/internal/config"
	"github.com/rs/zerolog/log"
)

// openStore opens the backend named by TOKEN_STORE. The returned func
// releases it.
func openStore(cfg config.EnvConfig) (credentials.Store, func() error, error) {
	switch cfg.GetTokenStore() {
	case "sqlite":
		store, err := sqlitestore.Open(cfg.GetTokenDB())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.GetTokenDB()).Msg("using sqlite credential store")
		return store, store.Close, nil

	case "", "file":
		store := credentials.NewFileStore(cfg.GetTokenFile())
		// A corrupt file starts the service with no credentials rather than
		// refusing to boot; users link again.
		if err := store.Load(cfg.GetTokenFile()); err != nil {
			log.Error().Err(err).Msg("token file unreadable, starting with no credentials")
		}
		return store, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown TOKEN_STORE %q (want file or sqlite)", cfg.GetTokenStore())
	}
}
