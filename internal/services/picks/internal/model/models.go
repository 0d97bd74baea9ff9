package model

import (
	"encoding/json"
	"time"
)

type PreviewState string

const (
	PreviewLoading  PreviewState = "loading"
	PreviewResolved PreviewState = "resolved"
	PreviewErrored  PreviewState = "errored"
)

type Provider string

const (
	ProviderMovie      Provider = "movie"
	ProviderVideo      Provider = "video"
	ProviderStorefront Provider = "storefront"
	ProviderSite       Provider = "site"
	ProviderImage      Provider = "image"
)

// LinkPreview is one enrichment attached to a pick. URL is its identity
// within a pick: the link itself, the public object URL for uploads, or a
// temporary "loading-{filename}" key while an upload is in flight.
type LinkPreview struct {
	URL          string          `json:"url"`
	State        PreviewState    `json:"state,omitempty"`
	Loading      bool            `json:"loading,omitempty"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
	Image        string          `json:"image,omitempty"`
	IsImage      bool            `json:"isImage,omitempty"`
	Rating       int             `json:"rating,omitempty"`
	Review       string          `json:"review,omitempty"`
	UserTitle    string          `json:"userTitle,omitempty"`
	UserComment  string          `json:"userComment,omitempty"`
	ExifData     *ExifData       `json:"exifData,omitempty"`
	Provider     Provider        `json:"provider,omitempty"`
	ProviderData json.RawMessage `json:"providerData,omitempty"`
	StoragePath  string          `json:"storagePath,omitempty"`
}

func (p LinkPreview) IsLoading() bool {
	return p.State == PreviewLoading || p.Loading
}

// HasImage reports whether the preview can back a gallery tile.
func (p LinkPreview) HasImage() bool {
	return p.Image != "" && !p.IsLoading()
}

type ExifData struct {
	DateTaken *time.Time      `json:"dateTaken,omitempty"`
	Location  *GeoPoint       `json:"location,omitempty"`
	Camera    *CameraInfo     `json:"camera,omitempty"`
	Settings  *CameraSettings `json:"settings,omitempty"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CameraInfo struct {
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

type CameraSettings struct {
	ISO          int     `json:"iso,omitempty"`
	FNumber      float64 `json:"fNumber,omitempty"`
	ExposureTime string  `json:"exposureTime,omitempty"`
	FocalLength  float64 `json:"focalLength,omitempty"`
}

type Pick struct {
	ID            string        `json:"id"`
	Category      string        `json:"category"`
	Content       string        `json:"content"`
	LinkPreviews  []LinkPreview `json:"linkPreviews"`
	WeekOf        string        `json:"weekOf"`
	UserID        string        `json:"userId"`
	UserFirstName string        `json:"userFirstName"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ImagePreviews returns the previews that carry a displayable image, in
// their stored order.
func (p Pick) ImagePreviews() []LinkPreview {
	var out []LinkPreview
	for _, lp := range p.LinkPreviews {
		if lp.HasImage() {
			out = append(out, lp)
		}
	}
	return out
}

type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Prompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  *string   `json:"folderId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const AnonymousName = "Anonymous User"

// DisplayName is the contributor label used by the gallery.
func (p Pick) DisplayName() string {
	if p.UserFirstName == "" {
		return AnonymousName
	}
	return p.UserFirstName
}
