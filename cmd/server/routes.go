package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signage/internal/config"
	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	controlapi "github.com/Nixie-Tech-LLC/signage/internal/http/api/control/endpoints"
	deviceapi "github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/signage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signage/internal/refresher"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
	"github.com/Nixie-Tech-LLC/signage/internal/weather"
)

// Services are the wired dependencies the HTTP modules need.
type Services struct {
	Store     db.Store
	Devices   *registration.Service
	Refresher *refresher.Refresher
	Weather   *weather.Client
	Storage   storage.Storage
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(cfg *config.Config, svc Services) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// displays call these before they hold any credentials
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		deviceapi.RegistrationModule(svc.Devices),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     svc.Store,
	},
		controlapi.DeviceModule(svc.Devices),
		controlapi.ContentModule(svc.Store, svc.Storage),
		controlapi.ScheduleModule(svc.Store),
		controlapi.DynamicContentModule(svc.Store, svc.Refresher),
		controlapi.DynamicDataModule(svc.Weather),
	)

	if local, ok := svc.Storage.(*storage.LocalStorage); ok {
		r.Static(uploadsPrefix, local.Dir())
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			middleware.RequestIDHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			middleware.RequestIDHeader,
		},
		AllowCredentials: false,
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
