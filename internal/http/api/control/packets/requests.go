package packets

import "github.com/Nixie-Tech-LLC/signage/internal/model"

// DeviceMetadataFields are the optional hardware details accepted when a
// device is approved or edited.
type DeviceMetadataFields struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Capacity     string `json:"capacity"`
	Firmware     string `json:"firmware"`
	MACAddress   string `json:"macAddress"`
	IPAddress    string `json:"ipAddress"`
	SerialNumber string `json:"serialNumber"`
}

func (f DeviceMetadataFields) Metadata() model.DeviceMetadata {
	return model.DeviceMetadata{
		Brand:        f.Brand,
		Model:        f.Model,
		Capacity:     f.Capacity,
		Firmware:     f.Firmware,
		MACAddress:   f.MACAddress,
		IPAddress:    f.IPAddress,
		SerialNumber: f.SerialNumber,
	}
}

type ApproveDeviceRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name"`
	LocationID string `json:"locationId"`
	ClientID   string `json:"clientId"`
	DeviceMetadataFields
}

type DeviceDetailsRequest struct {
	Name       string  `json:"name"`
	LocationID *string `json:"locationId"`
	DeviceMetadataFields
}

// ContentRequest is the JSON body for creating or replacing content. The
// same fields are accepted as multipart form values alongside a "file" part.
type ContentRequest struct {
	Title              string             `json:"title"`
	ContentType        model.ContentType  `json:"contentType"`
	URL                *string            `json:"url"`
	SSSPURL            *string            `json:"ssspUrl"`
	FTPDetails         *model.RemoteShare `json:"ftpDetails"`
	CIFSDetails        *model.RemoteShare `json:"cifsDetails"`
	StreamingURL       *string            `json:"streamingUrl"`
	APIURL             *string            `json:"apiUrl"`
	UpdateInterval     *int               `json:"updateInterval"`
	AIGeneratedContent *string            `json:"aiGeneratedContent"`
}

// Content builds the model value. Fields that do not belong to the content
// type are dropped.
func (r ContentRequest) Content() model.Content {
	url := r.URL
	if r.ContentType == model.ContentSSSPWebApp && r.SSSPURL != nil {
		url = r.SSSPURL
	}
	c := model.Content{
		Title:              r.Title,
		Type:               r.ContentType,
		URL:                url,
		FTPDetails:         r.FTPDetails,
		CIFSDetails:        r.CIFSDetails,
		StreamingURL:       r.StreamingURL,
		APIURL:             r.APIURL,
		UpdateInterval:     r.UpdateInterval,
		AIGeneratedContent: r.AIGeneratedContent,
	}
	c.Normalize()
	return c
}

type DeleteContentsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

type ScheduleRequest struct {
	Name       string  `json:"name"`
	ContentIDs []int64 `json:"contentIds"`
	Rule       *string `json:"rule"`
}

type DynamicContentRequest struct {
	Title          string `json:"title" binding:"required"`
	APIURL         string `json:"apiUrl" binding:"required,url"`
	UpdateInterval int    `json:"updateInterval" binding:"required,min=1"`
}
