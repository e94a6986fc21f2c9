package db

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const contentColumns = `id, title, type, url, file, ftp_details, cifs_details, streaming_url,
	api_url, update_interval, ai_generated_content, last_fetched, data, user_id, created_at`

func (s *pgStore) CreateContent(ctx context.Context, c *model.Content) error {
	query := `
	INSERT INTO content
	(title, type, url, file, ftp_details, cifs_details, streaming_url,
	 api_url, update_interval, ai_generated_content, user_id, created_at)
	VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	RETURNING ` + contentColumns + `;`

	if err := s.db.GetContext(ctx, c, query,
		c.Title,
		c.Type,
		c.URL,
		c.File,
		c.FTPDetails,
		c.CIFSDetails,
		c.StreamingURL,
		c.APIURL,
		c.UpdateInterval,
		c.AIGeneratedContent,
		c.UserID,
	); err != nil {
		log.Error().Err(err).Str("title", c.Title).Msg("failed to create content")
		return translate(err)
	}
	return nil
}

func (s *pgStore) GetContentByID(ctx context.Context, id int) (*model.Content, error) {
	var c model.Content
	err := s.db.GetContext(ctx, &c, `SELECT `+contentColumns+` FROM content WHERE id = $1;`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// GetContentsByIDs returns the rows for ids in the order given; unknown ids are skipped.
func (s *pgStore) GetContentsByIDs(ctx context.Context, ids []int64) ([]model.Content, error) {
	if len(ids) == 0 {
		return []model.Content{}, nil
	}
	var rows []model.Content
	err := s.db.SelectContext(ctx, &rows, `SELECT `+contentColumns+` FROM content WHERE id = ANY($1);`, pq.Array(ids))
	if err != nil {
		log.Error().Err(err).Msg("failed to load contents by ids")
		return nil, err
	}
	byID := make(map[int64]model.Content, len(rows))
	for _, r := range rows {
		byID[int64(r.ID)] = r
	}
	out := make([]model.Content, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *pgStore) ListContent(ctx context.Context, filter ContentFilter) ([]model.Content, error) {
	all := []model.Content{}
	query := `SELECT ` + contentColumns + ` FROM content WHERE 1=1`

	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		query += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC;`

	if err := s.db.SelectContext(ctx, &all, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list content")
		return nil, err
	}
	return all, nil
}

// UpdateContent rewrites the editable fields. Fetched data survives only while
// the item stays dynamic.
func (s *pgStore) UpdateContent(ctx context.Context, c *model.Content) error {
	err := s.db.GetContext(ctx, c, `
		UPDATE content
		SET
		title                = $2,
		type                 = $3,
		url                  = $4,
		file                 = $5,
		ftp_details          = $6,
		cifs_details         = $7,
		streaming_url        = $8,
		api_url              = $9,
		update_interval      = $10,
		ai_generated_content = $11,
		last_fetched         = CASE WHEN $3::text = 'dynamic' THEN last_fetched END,
		data                 = CASE WHEN $3::text = 'dynamic' THEN data END
		WHERE id = $1
		RETURNING `+contentColumns+`;`,
		c.ID, c.Title, c.Type, c.URL, c.File, c.FTPDetails, c.CIFSDetails,
		c.StreamingURL, c.APIURL, c.UpdateInterval, c.AIGeneratedContent,
	)
	if err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error().Err(err).Int("content_id", c.ID).Msg("failed to update content")
		}
		return err
	}
	return nil
}

// UpdateContentData writes only the fetched payload and its timestamp, so a
// concurrent admin edit of other columns is never overwritten.
func (s *pgStore) UpdateContentData(ctx context.Context, id int, data json.RawMessage, fetchedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE content
		SET data = $2, last_fetched = $3
		WHERE id = $1 AND type = 'dynamic';`,
		id, string(data), fetchedAt)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("failed to store fetched content data")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) DeleteContent(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("content_id", id).Msg("failed to delete content")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) DeleteContents(ctx context.Context, ids []int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ANY($1);`, pq.Array(ids))
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("failed to delete contents")
		return 0, err
	}
	return res.RowsAffected()
}
