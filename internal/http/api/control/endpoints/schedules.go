package endpoints

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api"
	"github.com/Nixie-Tech-LLC/signage/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

type ScheduleController struct {
	store db.Store
}

func newScheduleController(store db.Store) *ScheduleController {
	return &ScheduleController{store: store}
}

// ScheduleModule mounts the /schedule endpoints.
func ScheduleModule(store db.Store) api.Module {
	ctl := newScheduleController(store)
	editors := []string{model.RoleAdmin, model.RoleContentManager}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedule", ctl.listSchedules)
		c.GET("/schedule/:id", ctl.getSchedule)
		c.POST("/schedule", ctl.createSchedule, editors...)
		c.PUT("/schedule/:id", ctl.updateSchedule, editors...)
		c.DELETE("/schedule/:id", ctl.deleteSchedule, editors...)
	})
}

// populate resolves content references in order, skipping deleted items.
func (s *ScheduleController) populate(ctx context.Context, sc *model.Schedule) error {
	contents, err := s.store.GetContentsByIDs(ctx, sc.ContentIDs)
	if err != nil {
		return err
	}
	sc.Contents = contents
	return nil
}

func (s *ScheduleController) bindSchedule(ctx *gin.Context) (*model.Schedule, *api.APIError) {
	var req packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BindError(err)
	}

	sc := &model.Schedule{Name: req.Name, ContentIDs: pq.Int64Array(req.ContentIDs), Rule: req.Rule}
	if err := sc.Validate(); err != nil {
		return nil, api.FromError(ctx, err)
	}

	found, err := s.store.GetContentsByIDs(ctx.Request.Context(), sc.ContentIDs)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	known := make(map[int]bool, len(found))
	for _, c := range found {
		known[c.ID] = true
	}
	for _, id := range sc.ContentIDs {
		if !known[int(id)] {
			return nil, api.Invalid(model.FieldError{Field: "contentIds", Msg: fmt.Sprintf("content %d does not exist", id)})
		}
	}
	return sc, nil
}

func (s *ScheduleController) listSchedules(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	schedules, err := s.store.ListSchedules(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	for i := range schedules {
		if err := s.populate(ctx.Request.Context(), &schedules[i]); err != nil {
			return nil, api.FromError(ctx, err)
		}
	}
	return schedules, nil
}

func (s *ScheduleController) getSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sc, err := s.store.GetScheduleByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(ctx, err)
	}
	if err := s.populate(ctx.Request.Context(), sc); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return sc, nil
}

func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	sc, apiErr := s.bindSchedule(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sc.UserID = user.ID

	if err := s.store.CreateSchedule(ctx.Request.Context(), sc); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return sc, nil
}

func (s *ScheduleController) updateSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sc, apiErr := s.bindSchedule(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sc.ID = id

	if err := s.store.UpdateSchedule(ctx.Request.Context(), sc); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return sc, nil
}

func (s *ScheduleController) deleteSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, apiErr := parseID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.store.DeleteSchedule(ctx.Request.Context(), id); err != nil {
		return nil, api.FromError(ctx, err)
	}
	return packets.MessageResponse{Msg: "Schedule removed"}, nil
}
