package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/storage"
)

const maxUploadBytes = 512 << 20

type ContentController struct {
	store   db.Store
	storage storage.Storage
}

func newContentController(store db.Store, storage storage.Storage) *ContentController {
	return &ContentController{store: store, storage: storage}
}

// ContentModule mounts all authenticated /content endpoints
func ContentModule(store db.Store, storage storage.Storage) api.Module {
	ctl := newContentController(store, storage)
	editors := []string{model.RoleAdmin, model.RoleContentManager}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content", ctl.listContent)
		c.GET("/content/:id", ctl.getContent)
		c.POST("/content", ctl.createContent, editors...)
		c.PUT("/content/delete", ctl.deleteContents, editors...)
		c.PUT("/content/:id", ctl.updateContent, editors...)
		c.DELETE("/content/:id", ctl.deleteContent, editors...)
	})
}

func parseID(ctx *gin.Context) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, api.BadRequest("invalid id")
	}
	return id, nil
}

// canModify reports whether user may change or remove c.
func canModify(user *model.User, c *model.Content) bool {
	return user.Role == model.RoleAdmin || c.UserID == user.ID
}

func (c *ContentController) listContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	filter := db.ContentFilter{Type: model.ContentType(ctx.Query("type"))}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, api.Invalid(model.FieldError{Field: "type", Msg: "unknown content type"})
	}

	all, err := c.store.ListContent(ctx.Request.Context(), filter)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return all, nil
}

func (c *ContentController) getContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	x, err := c.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return x, nil
}

func (c *ContentController) createContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	content, apiErr := c.bindContent(ctx, nil)
	if apiErr != nil {
		return nil, apiErr
	}
	content.UserID = user.ID

	if err := c.store.CreateContent(ctx.Request.Context(), content); err != nil {
		return nil, api.FromError(ctx, err)
	}

	zerolog.Ctx(ctx.Request.Context()).Info().Int("content_id", content.ID).Str("type", string(content.Type)).
		Int("user_id", user.ID).Msg("content created")
	return content, nil
}

func (c *ContentController) updateContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	existing, err := c.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	if !canModify(user, existing) {
		zerolog.Ctx(ctx.Request.Context()).Warn().Int("owner", existing.UserID).Int("user", user.ID).
			Msg("[content] forbidden updateContent")
		return nil, api.Forbidden("User not authorized")
	}

	content, apiErr := c.bindContent(ctx, existing)
	if apiErr != nil {
		return nil, apiErr
	}
	content.ID = id

	if err := c.store.UpdateContent(ctx.Request.Context(), content); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return content, nil
}

func (c *ContentController) deleteContent(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	existing, err := c.store.GetContentByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	if !canModify(user, existing) {
		return nil, api.Forbidden("User not authorized")
	}

	if err := c.store.DeleteContent(ctx.Request.Context(), id); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.MessageResponse{Msg: "Content removed"}, nil
}

func (c *ContentController) deleteContents(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.DeleteContentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}

	if user.Role != model.RoleAdmin {
		owned, err := c.store.GetContentsByIDs(ctx.Request.Context(), req.IDs)
		if err != nil {
			return nil, api.FromError(ctx, err)
		}
		for i := range owned {
			if !canModify(user, &owned[i]) {
				return nil, api.Forbidden("User not authorized")
			}
		}
	}

	n, err := c.store.DeleteContents(ctx.Request.Context(), req.IDs)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.DeleteContentsResponse{Msg: "Contents deleted", Deleted: n}, nil
}

// bindContent reads a JSON body or a multipart form with an optional "file"
// part. On update, a file-backed item keeps its stored file unless a new file
// or url is supplied.
func (c *ContentController) bindContent(ctx *gin.Context, existing *model.Content) (*model.Content, *api.APIError) {
	var req packets.ContentRequest
	multipart := strings.HasPrefix(ctx.ContentType(), "multipart/form-data")

	if multipart {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadBytes)
		var apiErr *api.APIError
		if req, apiErr = contentRequestFromForm(ctx); apiErr != nil {
			return nil, apiErr
		}
	} else if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}

	content := req.Content()

	if multipart && content.Type.IsFileBacked() {
		if fileHeader, err := ctx.FormFile("file"); err == nil {
			url, err := c.storage.Save(ctx.Request.Context(), fileHeader)
			if err != nil {
				return nil, api.FromError(ctx, err)
			}
			content.File = &url
			content.URL = nil
		}
	}

	if existing != nil && content.Type == existing.Type && content.Type.IsFileBacked() &&
		content.File == nil && content.URL == nil {
		content.File = existing.File
		content.URL = existing.URL
	}

	content.Normalize()
	if err := content.Validate(); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return &content, nil
}

func contentRequestFromForm(ctx *gin.Context) (packets.ContentRequest, *api.APIError) {
	req := packets.ContentRequest{
		Title:       ctx.PostForm("title"),
		ContentType: model.ContentType(ctx.PostForm("contentType")),
	}
	optional := func(key string) *string {
		if v, ok := ctx.GetPostForm(key); ok && v != "" {
			return &v
		}
		return nil
	}
	req.URL = optional("url")
	req.SSSPURL = optional("ssspUrl")
	req.StreamingURL = optional("streamingUrl")
	req.APIURL = optional("apiUrl")
	req.AIGeneratedContent = optional("aiGeneratedContent")

	if v := optional("updateInterval"); v != nil {
		n, err := strconv.Atoi(*v)
		if err != nil {
			return req, api.Invalid(model.FieldError{Field: "updateInterval", Msg: "Update Interval must be a number"})
		}
		req.UpdateInterval = &n
	}
	for key, dst := range map[string]**model.RemoteShare{"ftpDetails": &req.FTPDetails, "cifsDetails": &req.CIFSDetails} {
		if v := optional(key); v != nil {
			var share model.RemoteShare
			if err := json.Unmarshal([]byte(*v), &share); err != nil {
				return req, api.Invalid(model.FieldError{Field: key, Msg: "must be a JSON object"})
			}
			*dst = &share
		}
	}
	return req, nil
}
