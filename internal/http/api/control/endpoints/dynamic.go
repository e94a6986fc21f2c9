package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/refresher"
	"github.com/Nixie-Tech-LLC/signage/internal/weather"
)

// DynamicContentController exposes dynamic content as its own resource. The
// items live alongside all other content with type "dynamic".
type DynamicContentController struct {
	store     db.Store
	refresher *refresher.Refresher
}

func newDynamicContentController(store db.Store, r *refresher.Refresher) *DynamicContentController {
	return &DynamicContentController{store: store, refresher: r}
}

func DynamicContentModule(store db.Store, r *refresher.Refresher) api.Module {
	ctl := newDynamicContentController(store, r)
	editors := []string{model.RoleAdmin, model.RoleContentManager}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/dynamic-content", ctl.list)
		c.GET("/dynamic-content/:id", ctl.get)
		c.POST("/dynamic-content", ctl.create, editors...)
		c.PUT("/dynamic-content/:id", ctl.update, editors...)
		c.DELETE("/dynamic-content/:id", ctl.remove, editors...)
		c.POST("/dynamic-content/:id/refresh", ctl.refresh, editors...)
	})
}

const msgNotDynamic = "Dynamic content not found"

func (d *DynamicContentController) load(ctx *gin.Context) (*model.Content, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	c, err := d.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	if c.Type != model.ContentDynamic {
		return nil, api.NotFound(msgNotDynamic)
	}
	return c, nil
}

func (d *DynamicContentController) list(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	items, err := d.store.ListContent(ctx.Request.Context(), db.ContentFilter{Type: model.ContentDynamic})
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return items, nil
}

func (d *DynamicContentController) get(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	return d.load(ctx)
}

func bindDynamic(ctx *gin.Context) (*model.Content, *api.APIError) {
	var req packets.DynamicContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}
	c := &model.Content{
		Title:          req.Title,
		Type:           model.ContentDynamic,
		APIURL:         &req.APIURL,
		UpdateInterval: &req.UpdateInterval,
	}
	if err := c.Validate(); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return c, nil
}

func (d *DynamicContentController) create(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	c, apiErr := bindDynamic(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	c.UserID = user.ID
	if err := d.store.CreateContent(ctx.Request.Context(), c); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return c, nil
}

func (d *DynamicContentController) update(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	existing, apiErr := d.load(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if !canModify(user, existing) {
		return nil, api.Forbidden("User not authorized")
	}
	c, apiErr := bindDynamic(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	c.ID = existing.ID
	if err := d.store.UpdateContent(ctx.Request.Context(), c); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return c, nil
}

func (d *DynamicContentController) remove(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	existing, apiErr := d.load(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if !canModify(user, existing) {
		return nil, api.Forbidden("User not authorized")
	}
	if err := d.store.DeleteContent(ctx.Request.Context(), existing.ID); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.MessageResponse{Msg: "Dynamic content deleted"}, nil
}

func (d *DynamicContentController) refresh(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	existing, apiErr := d.load(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	c, err := d.refresher.RefreshOne(ctx.Request.Context(), existing.ID)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return c, nil
}

type DynamicDataController struct {
	weather *weather.Client
}

// DynamicDataModule proxies live data providers for display widgets.
func DynamicDataModule(w *weather.Client) api.Module {
	ctl := &DynamicDataController{weather: w}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/dynamic-data/:type", ctl.fetch)
	})
}

func (d *DynamicDataController) fetch(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	switch ctx.Param("type") {
	case "weather":
		body, err := d.weather.Current(ctx.Request.Context(), ctx.Query("city"))
		if err != nil {
			return nil, api.FromError(ctx, err)
		}
		return body, nil
	default:
		return nil, api.BadRequest("Invalid data type")
	}
}
