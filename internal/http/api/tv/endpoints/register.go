package endpoints

import (
	"encoding/xml"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
)

type RegistrationController struct {
	devices *registration.Service
}

func NewRegistrationController(devices *registration.Service) *RegistrationController {
	return &RegistrationController{devices: devices}
}

// RegistrationModule mounts the unauthenticated endpoints displays call
// before they are approved.
func RegistrationModule(devices *registration.Service) api.Module {
	ctl := NewRegistrationController(devices)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/devices/register", ctl.register)
		c.RAW_GET("/devices/register/sssp_config.xml", ctl.ssspConfig)
		c.PUBLIC_GET("/devices/status/:identifier", ctl.status)
	})
}

// register allocates an identifier and one-time approval code for the
// calling display.
func (r *RegistrationController) register(ctx *gin.Context) (any, *api.APIError) {
	var req packets.RegisterRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		return nil, api.BindError(err)
	}

	res, err := r.devices.Register(ctx.Request.Context(), req.ClientID)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.RegisterResponse{Identifier: res.Identifier, Code: res.Code}, nil
}

func (r *RegistrationController) status(ctx *gin.Context) (any, *api.APIError) {
	device, err := r.devices.Lookup(ctx.Request.Context(), ctx.Param("identifier"))
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.DeviceStatusResponse{
		Identifier: device.Identifier,
		Name:       device.Name,
		Approved:   device.Approved,
		LocationID: device.LocationID,
	}, nil
}

func (r *RegistrationController) ssspConfig(ctx *gin.Context) {
	zerolog.Ctx(ctx.Request.Context()).Debug().Msg("sssp config requested")

	body, err := xml.MarshalIndent(packets.SSSPConfig{
		Device: packets.SSSPConfigDevice{Name: model.DefaultDeviceName, Identifier: "Display"},
	}, "", "  ")
	if err != nil {
		ctx.String(http.StatusInternalServerError, "Server error")
		return
	}
	ctx.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
