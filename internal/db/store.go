// exposes a Store interface that is passed to API calls and background workers
package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// ContentFilter narrows ListContent. Zero fields match everything.
type ContentFilter struct {
	Type   model.ContentType
	UserID int
}

type Store interface {
	// user functions
	GetUserByID(ctx context.Context, id int) (*model.User, error)

	// device functions
	CreateDevice(ctx context.Context, d *model.Device) error
	GetDeviceByID(ctx context.Context, id int) (*model.Device, error)
	GetDeviceByIdentifier(ctx context.Context, identifier string) (*model.Device, error)
	ListDevices(ctx context.Context, approved *bool) ([]model.Device, error)
	HighestDeviceIdentifier(ctx context.Context) (string, error)
	CountApprovedDevices(ctx context.Context, clientID string) (int, error)
	ApproveDevice(ctx context.Context, d *model.Device) error
	UpdateDeviceDetails(ctx context.Context, d *model.Device) error
	DeleteDevice(ctx context.Context, id int) error

	// content functions
	CreateContent(ctx context.Context, c *model.Content) error
	GetContentByID(ctx context.Context, id int) (*model.Content, error)
	GetContentsByIDs(ctx context.Context, ids []int64) ([]model.Content, error)
	ListContent(ctx context.Context, filter ContentFilter) ([]model.Content, error)
	UpdateContent(ctx context.Context, c *model.Content) error
	UpdateContentData(ctx context.Context, id int, data json.RawMessage, fetchedAt time.Time) error
	DeleteContent(ctx context.Context, id int) error
	DeleteContents(ctx context.Context, ids []int64) (int64, error)

	// schedule functions
	CreateSchedule(ctx context.Context, s *model.Schedule) error
	GetScheduleByID(ctx context.Context, id int) (*model.Schedule, error)
	ListSchedules(ctx context.Context) ([]model.Schedule, error)
	UpdateSchedule(ctx context.Context, s *model.Schedule) error
	DeleteSchedule(ctx context.Context, id int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}
