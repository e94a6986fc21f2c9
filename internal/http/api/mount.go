package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/http/middleware"
)

// Module is a pluggable feature that attaches its endpoints to a Controller (a gin group).
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets you define a Module with a simple function.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig tells the api package how to mount a group.
type GroupConfig struct {
	Prefix     string
	Auth       bool
	SecretKey  string                // required if Auth == true
	Users      middleware.UserLoader // required if Auth == true
	Middleware []gin.HandlerFunc     // optional additional middleware
}

// MountGroup mounts one or more Modules under a prefix with optional auth.
func MountGroup(parent gin.IRoutes, cfg GroupConfig, modules ...Module) {
	var grp *gin.RouterGroup

	switch v := parent.(type) {
	case *gin.Engine:
		grp = v.Group(cfg.Prefix)
	case *gin.RouterGroup:
		if cfg.Prefix != "" {
			grp = v.Group(cfg.Prefix)
		} else {
			grp = v
		}
	default:
		log.Fatal().Str("type", fmt.Sprintf("%T", parent)).Msg("api.MountGroup: unsupported router type")
	}

	// Apply middleware in a deterministic order.
	for _, mw := range cfg.Middleware {
		grp.Use(mw)
	}
	if cfg.Auth {
		if cfg.SecretKey == "" || cfg.Users == nil {
			log.Fatal().Msg("api.MountGroup: Auth enabled but SecretKey or Users is missing")
		}
		grp.Use(middleware.JWTMiddleware(cfg.SecretKey, cfg.Users))
	}

	controller := &Controller{Group: grp}

	for _, m := range modules {
		m.Mount(controller)
	}
}

// Controller registers handlers on a group. Authenticated handlers may list
// the roles allowed to call them; no roles means any authenticated user.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) handle(method, path string, h HandlerFuncWithAuth, roles []string) {
	chain := make([]gin.HandlerFunc, 0, 2)
	if len(roles) > 0 {
		chain = append(chain, middleware.RequireRole(roles...))
	}
	chain = append(chain, ResolveEndpointWithAuth(h))
	c.Group.Handle(method, path, chain...)
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth, roles ...string) {
	c.handle("GET", path, h, roles)
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth, roles ...string) {
	c.handle("POST", path, h, roles)
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth, roles ...string) {
	c.handle("PUT", path, h, roles)
}

func (c *Controller) PATCH(path string, h HandlerFuncWithAuth, roles ...string) {
	c.handle("PATCH", path, h, roles)
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth, roles ...string) {
	c.handle("DELETE", path, h, roles)
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

// RAW_GET registers a plain gin handler for responses that are not JSON.
func (c *Controller) RAW_GET(path string, h gin.HandlerFunc) {
	c.Group.GET(path, h)
}
