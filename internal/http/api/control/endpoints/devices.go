package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
)

type DeviceController struct {
	devices *registration.Service
}

func newDeviceController(devices *registration.Service) *DeviceController {
	return &DeviceController{devices: devices}
}

// DeviceModule mounts the authenticated /devices endpoints.
func DeviceModule(devices *registration.Service) api.Module {
	ctl := newDeviceController(devices)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/devices", ctl.listDevices, model.RoleAdmin, model.RoleContentManager)
		c.GET("/devices/unapproved", ctl.listUnapproved, model.RoleAdmin, model.RoleContentManager)
		c.PATCH("/devices/:id/approve", ctl.approveDevice, model.RoleAdmin)
		c.PATCH("/devices/:id/details", ctl.updateDetails, model.RoleAdmin)
		c.DELETE("/devices/:id", ctl.deleteDevice, model.RoleAdmin)
	})
}

func (d *DeviceController) listDevices(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	devices, err := d.devices.List(ctx.Request.Context(), nil)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return devices, nil
}

func (d *DeviceController) listUnapproved(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	approved := false
	devices, err := d.devices.List(ctx.Request.Context(), &approved)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return devices, nil
}

func (d *DeviceController) approveDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.ApproveDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}

	device, err := d.devices.Approve(ctx.Request.Context(), ctx.Param("id"), registration.ApproveInput{
		Code:       req.Code,
		Name:       req.Name,
		LocationID: req.LocationID,
		ClientID:   req.ClientID,
		Metadata:   req.Metadata(),
	})
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return device, nil
}

func (d *DeviceController) updateDetails(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.DeviceDetailsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}

	device, err := d.devices.UpdateDetails(ctx.Request.Context(), ctx.Param("id"), registration.DetailsInput{
		Name:       req.Name,
		LocationID: req.LocationID,
		Metadata:   req.Metadata(),
	})
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return device, nil
}

func (d *DeviceController) deleteDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := d.devices.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.MessageResponse{Msg: "Device removed"}, nil
}
