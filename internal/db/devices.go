package db

import (
	"context"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// AllocatableIdentifier matches the identifiers HighestDeviceIdentifier
// considers. Eighteen digits always fit a BIGINT.
var AllocatableIdentifier = regexp.MustCompile(`^Display[0-9]{1,18}$`)

const deviceColumns = `id, identifier, client_id, name, approved, code_hash, location_id, metadata, created_at, approved_at`

func (s *pgStore) CreateDevice(ctx context.Context, d *model.Device) error {
	q := `
	INSERT INTO devices (identifier, client_id, name, approved, code_hash, location_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	RETURNING ` + deviceColumns + `;`
	err := s.db.GetContext(ctx, d, q,
		d.Identifier, d.ClientID, d.Name, d.Approved, d.CodeHash, d.LocationID, d.Metadata)
	if err != nil {
		log.Error().Err(err).Str("identifier", d.Identifier).Msg("failed to create device")
		return translate(err)
	}
	return nil
}

func (s *pgStore) GetDeviceByID(ctx context.Context, id int) (*model.Device, error) {
	var d model.Device
	err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *pgStore) GetDeviceByIdentifier(ctx context.Context, identifier string) (*model.Device, error) {
	var d model.Device
	err := s.db.GetContext(ctx, &d, `SELECT `+deviceColumns+` FROM devices WHERE identifier = $1`, identifier)
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// ListDevices returns all devices, or only those matching approved when it is set.
func (s *pgStore) ListDevices(ctx context.Context, approved *bool) ([]model.Device, error) {
	devices := []model.Device{}
	q := `SELECT ` + deviceColumns + ` FROM devices`
	args := []any{}
	if approved != nil {
		q += ` WHERE approved = $1`
		args = append(args, *approved)
	}
	q += ` ORDER BY id`
	if err := s.db.SelectContext(ctx, &devices, q, args...); err != nil {
		log.Error().Err(err).Msg("failed to list devices")
		return nil, err
	}
	return devices, nil
}

// HighestDeviceIdentifier returns the identifier with the largest numeric
// suffix, or "" when no device has been registered.
func (s *pgStore) HighestDeviceIdentifier(ctx context.Context) (string, error) {
	var identifier string
	err := s.db.GetContext(ctx, &identifier, `
		SELECT identifier
		FROM devices
		WHERE identifier ~ $1
		ORDER BY CAST(substring(identifier FROM 8) AS BIGINT) DESC
		LIMIT 1`, AllocatableIdentifier.String())
	if err != nil {
		err = translate(err)
		if err == ErrNotFound {
			return "", nil
		}
		log.Error().Err(err).Msg("failed to read highest device identifier")
		return "", err
	}
	return identifier, nil
}

func (s *pgStore) CountApprovedDevices(ctx context.Context, clientID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT count(*)
		FROM devices
		WHERE client_id = $1 AND approved`, clientID)
	if err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("failed to count approved devices")
		return 0, err
	}
	return n, nil
}

// ApproveDevice flips an unapproved device to approved, clearing its code and
// writing the merged details. A device that is already approved yields ErrConflict.
func (s *pgStore) ApproveDevice(ctx context.Context, d *model.Device) error {
	err := s.db.GetContext(ctx, d, `
		UPDATE devices
		SET approved = TRUE,
		code_hash = NULL,
		approved_at = now(),
		name = $2,
		client_id = $3,
		location_id = $4,
		metadata = $5
		WHERE id = $1 AND approved = FALSE
		RETURNING `+deviceColumns,
		d.ID, d.Name, d.ClientID, d.LocationID, d.Metadata)
	if err != nil {
		err = translate(err)
		if err == ErrNotFound {
			return ErrConflict
		}
		log.Error().Err(err).Int("device_id", d.ID).Msg("failed to approve device")
		return err
	}
	return nil
}

func (s *pgStore) UpdateDeviceDetails(ctx context.Context, d *model.Device) error {
	err := s.db.GetContext(ctx, d, `
		UPDATE devices
		SET name = $2,
		location_id = $3,
		metadata = $4
		WHERE id = $1
		RETURNING `+deviceColumns,
		d.ID, d.Name, d.LocationID, d.Metadata)
	if err != nil {
		err = translate(err)
		if err != ErrNotFound {
			log.Error().Err(err).Int("device_id", d.ID).Msg("failed to update device details")
		}
		return err
	}
	return nil
}

func (s *pgStore) DeleteDevice(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("failed to delete device")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
