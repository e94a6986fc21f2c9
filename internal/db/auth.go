package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// GetUserByID fetches the principal referenced by a token subject.
func (s *pgStore) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `
	SELECT id, email, name, role, created_at, updated_at
	FROM users
	WHERE id = $1;`, id)
	if err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error().Err(err).Int("user_id", id).Msg("failed to get user by id")
		}
		return nil, err
	}
	return &u, nil
}
