package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/refresher"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
	"github.com/Nixie-Tech-LLC/signage/internal/weather"
)

// APIError is the error half of every handler result. Fields carries
// per-field validation failures.
type APIError struct {
	Code    int
	Message string
	Fields  []model.FieldError
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(msg string) *APIError { return &APIError{Code: http.StatusBadRequest, Message: msg} }

func NotFound(msg string) *APIError { return &APIError{Code: http.StatusNotFound, Message: msg} }

func Forbidden(msg string) *APIError { return &APIError{Code: http.StatusForbidden, Message: msg} }

func Invalid(fields ...model.FieldError) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

// BindError turns a gin binding failure into a field-level 400.
func BindError(err error) *APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]model.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, model.FieldError{Field: fe.Field(), Msg: bindMessage(fe)})
		}
		return Invalid(fields...)
	}
	return BadRequest("malformed request body")
}

func bindMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "url":
		return fe.Field() + " must be a valid URL"
	default:
		return fe.Field() + " is invalid"
	}
}

// Report validation failures under the json field names clients send.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// FromError maps a service or store error onto a status code. Unknown errors
// become a 500 whose cause is logged but not returned.
func FromError(ctx *gin.Context, err error) *APIError {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return Invalid(verr.Fields...)
	case errors.Is(err, registration.ErrInvalidClient),
		errors.Is(err, registration.ErrCodeMismatch),
		errors.Is(err, refresher.ErrNotDynamic):
		return BadRequest(err.Error())
	case errors.Is(err, registration.ErrDeviceNotFound):
		return NotFound("Device not found")
	case errors.Is(err, db.ErrNotFound):
		return NotFound("not found")
	case errors.Is(err, registration.ErrLicenseLimitReached):
		return Forbidden(err.Error())
	case errors.Is(err, registration.ErrRateLimited):
		return &APIError{Code: http.StatusTooManyRequests, Message: err.Error()}
	case errors.Is(err, registration.ErrAlreadyApproved),
		errors.Is(err, registration.ErrIdentifierConflict),
		errors.Is(err, db.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, refresher.ErrUpstreamFetch),
		errors.Is(err, weather.ErrUpstream):
		zerolog.Ctx(ctx.Request.Context()).Warn().Err(err).Msg("upstream request failed")
		return &APIError{Code: http.StatusBadGateway, Message: "Error fetching data"}
	case errors.Is(err, weather.ErrNotConfigured):
		return &APIError{Code: http.StatusServiceUnavailable, Message: "weather provider is not configured"}
	default:
		zerolog.Ctx(ctx.Request.Context()).Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
		return &APIError{Code: http.StatusInternalServerError, Message: "Server error"}
	}
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func writeError(ctx *gin.Context, e *APIError) {
	if len(e.Fields) > 0 {
		ctx.AbortWithStatusJSON(e.Code, gin.H{"errors": e.Fields})
		return
	}
	ctx.AbortWithStatusJSON(e.Code, gin.H{"error": e.Message})
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			writeError(ctx, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}
