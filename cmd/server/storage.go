package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/config"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

const uploadsPrefix = "/uploads"

// InitStorage selects and returns the configured storage backend
func InitStorage(cfg *config.Config) storage.Storage {
	if cfg.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(storage.SpacesConfig{
			Endpoint:  cfg.SpacesEndpoint,
			Region:    cfg.SpacesRegion,
			Bucket:    cfg.SpacesBucket,
			CDNURL:    cfg.SpacesCDNURL,
			AccessKey: cfg.SpacesAccessKey,
			SecretKey: cfg.SpacesSecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
		log.Info().Str("cdn", cfg.SpacesCDNURL).Msg("using DigitalOcean Spaces storage")
		return spacesStorage
	}

	local := storage.NewLocalStorage(cfg.UploadDir, uploadsPrefix)
	log.Info().Str("dir", local.Dir()).Msg("using local file storage")
	return local
}
