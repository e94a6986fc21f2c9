package packets

import "encoding/xml"

// RESPONSES FOR /api/devices/*

type RegisterResponse struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

// DeviceStatusResponse is what a display polls while it waits for approval.
type DeviceStatusResponse struct {
	Identifier string  `json:"identifier"`
	Name       string  `json:"name"`
	Approved   bool    `json:"approved"`
	LocationID *string `json:"locationId,omitempty"`
}

// SSSPConfig is the bootstrap document Samsung Smart Signage Platform
// players request before launching the registration URL.
type SSSPConfig struct {
	XMLName xml.Name         `xml:"SamsungSmartSignagePlatform"`
	Device  SSSPConfigDevice `xml:"device"`
}

type SSSPConfigDevice struct {
	Name       string `xml:"name"`
	Identifier string `xml:"identifier"`
	Approved   bool   `xml:"approved"`
}
