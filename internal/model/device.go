package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DefaultDeviceName is given to devices at self-registration.
const DefaultDeviceName = "Unnamed Device"

// Device represents a display that registered itself with the CMS.
type Device struct {
	ID         int            `db:"id"          json:"id"`
	Identifier string         `db:"identifier"  json:"identifier"`
	ClientID   string         `db:"client_id"   json:"clientId"`
	Name       string         `db:"name"        json:"name"`
	Approved   bool           `db:"approved"    json:"approved"`
	CodeHash   *string        `db:"code_hash"   json:"-"`
	LocationID *string        `db:"location_id" json:"locationId,omitempty"`
	Metadata   DeviceMetadata `db:"metadata"    json:"metadata"`
	CreatedAt  time.Time      `db:"created_at"  json:"createdAt"`
	ApprovedAt *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
}

// DeviceMetadata is free-form hardware information reported for a display.
type DeviceMetadata struct {
	Brand        string `json:"brand,omitempty"`
	Model        string `json:"model,omitempty"`
	Capacity     string `json:"capacity,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	MACAddress   string `json:"macAddress,omitempty"`
	IPAddress    string `json:"ipAddress,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// Merge overlays every non-empty field of other onto m.
func (m DeviceMetadata) Merge(other DeviceMetadata) DeviceMetadata {
	pick := func(cur, next string) string {
		if next != "" {
			return next
		}
		return cur
	}
	return DeviceMetadata{
		Brand:        pick(m.Brand, other.Brand),
		Model:        pick(m.Model, other.Model),
		Capacity:     pick(m.Capacity, other.Capacity),
		Firmware:     pick(m.Firmware, other.Firmware),
		MACAddress:   pick(m.MACAddress, other.MACAddress),
		IPAddress:    pick(m.IPAddress, other.IPAddress),
		SerialNumber: pick(m.SerialNumber, other.SerialNumber),
	}
}

// Value stores metadata as a jsonb document.
func (m DeviceMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a jsonb document into m.
func (m *DeviceMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = DeviceMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("model: unsupported metadata column type")
	}
}
