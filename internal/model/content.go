package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

type ContentType string

const (
	ContentImage       ContentType = "image"
	ContentVideo       ContentType = "video"
	ContentWebpage     ContentType = "webpage"
	ContentInteractive ContentType = "interactive"
	ContentSSSPWebApp  ContentType = "sssp-web-app"
	ContentFTP         ContentType = "ftp"
	ContentCIFS        ContentType = "cifs"
	ContentStreaming   ContentType = "streaming"
	ContentDynamic     ContentType = "dynamic"
	ContentAI          ContentType = "ai"
)

// ContentTypes lists every accepted content type.
var ContentTypes = []ContentType{
	ContentImage, ContentVideo, ContentWebpage, ContentInteractive, ContentSSSPWebApp,
	ContentFTP, ContentCIFS, ContentStreaming, ContentDynamic, ContentAI,
}

func (t ContentType) Valid() bool {
	for _, known := range ContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsFileBacked reports whether the type carries an uploaded file.
func (t ContentType) IsFileBacked() bool {
	return t == ContentImage || t == ContentVideo || t == ContentInteractive
}

// Content is a media item. Exactly one payload field is populated, chosen by Type.
type Content struct {
	ID                 int            `db:"id"                   json:"id"`
	Title              string         `db:"title"                json:"title"`
	Type               ContentType    `db:"type"                 json:"type"`
	URL                *string        `db:"url"                  json:"url,omitempty"`
	File               *string        `db:"file"                 json:"file,omitempty"`
	FTPDetails         *RemoteShare   `db:"ftp_details"          json:"ftpDetails,omitempty"`
	CIFSDetails        *RemoteShare   `db:"cifs_details"         json:"cifsDetails,omitempty"`
	StreamingURL       *string        `db:"streaming_url"        json:"streamingUrl,omitempty"`
	APIURL             *string        `db:"api_url"              json:"apiUrl,omitempty"`
	UpdateInterval     *int           `db:"update_interval"      json:"updateInterval,omitempty"`
	AIGeneratedContent *string        `db:"ai_generated_content" json:"aiGeneratedContent,omitempty"`
	LastFetched        *time.Time     `db:"last_fetched"         json:"lastFetched,omitempty"`
	Data               types.JSONText `db:"data"                 json:"data,omitempty"`
	UserID             int            `db:"user_id"              json:"user"`
	CreatedAt          time.Time      `db:"created_at"           json:"createdAt"`
}

// RemoteShare holds connection details for ftp and cifs sources.
type RemoteShare struct {
	Host     string `json:"host"`
	Path     string `json:"path"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (r RemoteShare) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RemoteShare) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return errors.New("model: unsupported remote share column type")
	}
}

// FieldError names the offending input field of a validation failure.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// ValidationError collects field-level problems with an input document.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Msg)
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Normalize clears every payload field that does not belong to c.Type.
func (c *Content) Normalize() {
	keepURL := c.Type == ContentWebpage || c.Type == ContentSSSPWebApp || (c.Type.IsFileBacked() && c.File == nil)
	if !keepURL {
		c.URL = nil
	}
	if !c.Type.IsFileBacked() {
		c.File = nil
	}
	if c.Type != ContentFTP {
		c.FTPDetails = nil
	}
	if c.Type != ContentCIFS {
		c.CIFSDetails = nil
	}
	if c.Type != ContentStreaming {
		c.StreamingURL = nil
	}
	if c.Type != ContentDynamic {
		c.APIURL = nil
		c.UpdateInterval = nil
		c.LastFetched = nil
		c.Data = nil
	}
	if c.Type != ContentAI {
		c.AIGeneratedContent = nil
	}
}

// Validate checks the title, the type and that the payload for the type is present.
func (c *Content) Validate() error {
	verr := &ValidationError{}
	if c.Title == "" {
		verr.add("title", "Title is required")
	}
	if !c.Type.Valid() {
		verr.add("contentType", "Content Type is required")
		return verr
	}

	switch c.Type {
	case ContentImage, ContentVideo, ContentInteractive:
		if empty(c.File) && empty(c.URL) {
			verr.add("file", "a file upload or url is required")
		}
	case ContentWebpage, ContentSSSPWebApp:
		if empty(c.URL) {
			verr.add("url", "URL is required")
		}
	case ContentFTP:
		if c.FTPDetails == nil || c.FTPDetails.Host == "" {
			verr.add("ftpDetails", "FTP host is required")
		}
	case ContentCIFS:
		if c.CIFSDetails == nil || c.CIFSDetails.Host == "" {
			verr.add("cifsDetails", "CIFS host is required")
		}
	case ContentStreaming:
		if empty(c.StreamingURL) {
			verr.add("streamingUrl", "Streaming URL is required")
		}
	case ContentDynamic:
		if empty(c.APIURL) {
			verr.add("apiUrl", "API URL is required")
		}
		if c.UpdateInterval == nil || *c.UpdateInterval < 1 {
			verr.add("updateInterval", "Update Interval is required")
		}
	case ContentAI:
		if empty(c.AIGeneratedContent) {
			verr.add("aiGeneratedContent", "AI generated content is required")
		}
	}
	return verr.orNil()
}

// IsStale reports whether a dynamic item is due for a refresh at now.
// An item that was never fetched is always stale.
func (c *Content) IsStale(now time.Time) bool {
	if c.LastFetched == nil {
		return true
	}
	interval := 0
	if c.UpdateInterval != nil {
		interval = *c.UpdateInterval
	}
	return now.Sub(*c.LastFetched) >= time.Duration(interval)*time.Minute
}

func empty(s *string) bool {
	return s == nil || *s == ""
}
