package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const scheduleColumns = `id, name, content_ids, rule, user_id, created_at`

func (s *pgStore) CreateSchedule(ctx context.Context, sc *model.Schedule) error {
	err := s.db.GetContext(ctx, sc, `
		INSERT INTO schedules (name, content_ids, rule, user_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+scheduleColumns,
		sc.Name, sc.ContentIDs, sc.Rule, sc.UserID)
	if err != nil {
		log.Error().Err(err).Str("name", sc.Name).Msg("failed to create schedule")
		return translate(err)
	}
	return nil
}

func (s *pgStore) GetScheduleByID(ctx context.Context, id int) (*model.Schedule, error) {
	var sc model.Schedule
	err := s.db.GetContext(ctx, &sc, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &sc, nil
}

func (s *pgStore) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	schedules := []model.Schedule{}
	err := s.db.SelectContext(ctx, &schedules, `
		SELECT `+scheduleColumns+`
		FROM schedules
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list schedules")
		return nil, err
	}
	return schedules, nil
}

func (s *pgStore) UpdateSchedule(ctx context.Context, sc *model.Schedule) error {
	err := s.db.GetContext(ctx, sc, `
		UPDATE schedules
		SET name = $2,
		content_ids = $3,
		rule = $4
		WHERE id = $1
		RETURNING `+scheduleColumns,
		sc.ID, sc.Name, sc.ContentIDs, sc.Rule)
	if err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error().Err(err).Int("schedule_id", sc.ID).Msg("failed to update schedule")
		}
		return err
	}
	return nil
}

func (s *pgStore) DeleteSchedule(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to delete schedule")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
