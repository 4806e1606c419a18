package models

import "time"

// MediaType is the kind of an uploaded media file.
type MediaType string

const (
	// MediaTypeImage marks still images.
	MediaTypeImage MediaType = "image"
	// MediaTypeVideo marks video files.
	MediaTypeVideo MediaType = "video"
)

// Service is a catalog entry shown on the public site.
// Titles and descriptions are stored in English and Arabic.
type Service struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ID            string    `json:"id"`
	TitleEN       string    `json:"title_en"`
	TitleAR       string    `json:"title_ar"`
	DescriptionEN string    `json:"description_en"`
	DescriptionAR string    `json:"description_ar"`
	Image         string    `json:"img"` // blob key or absolute URL
}

// Media is an uploaded image or video of the media library.
type Media struct {
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ID            string    `json:"id"`
	TitleEN       string    `json:"title_en"`
	TitleAR       string    `json:"title_ar"`
	DescriptionEN string    `json:"description_en"`
	DescriptionAR string    `json:"description_ar"`
	MediaKey      string    `json:"mediaUrl"` // blob key or absolute URL
	MediaType     MediaType `json:"mediaType"`
	MimeType      string    `json:"mimeType"`
	UploadedBy    string    `json:"uploadedBy,omitempty"`
	Size          int64     `json:"size"`
}

// QuoteRequest is a contact form submission from a prospective customer.
type QuoteRequest struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
}
