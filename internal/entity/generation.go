package entity

import "time"

const (
	ImageTypeBlog        = "blog"
	ImageTypeInfographic = "infographic"
)

// DbGeneration stores one successful image generation. Rows are immutable
// after creation; credits_used always equals the cost computed at submission
// because the row is inserted in the same transaction as the debit.
type DbGeneration struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint    `gorm:"column:user_id;index" json:"user_id"`
	User   *DbUser `gorm:"foreignKey:UserID" json:"-"`

	ImageType string `gorm:"column:image_type;type:varchar(32);index" json:"image_type"`
	Title     string `gorm:"column:title;type:varchar(512)" json:"title"`
	Content   string `gorm:"column:content;type:text" json:"content"`
	Style     string `gorm:"column:style;type:varchar(128)" json:"style"`
	Colour    string `gorm:"column:colour;type:varchar(128)" json:"colour"`

	CreditsUsed int64  `gorm:"column:credits_used;not null" json:"credits_used"`
	ImagePath   string `gorm:"column:image_path;type:varchar(512)" json:"image_path"`
}

// TableName overrides default pluralised name.
func (DbGeneration) TableName() string {
	return "image_generations"
}

// HistoryItem is the client-facing projection of a stored generation.
type HistoryItem struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Style       string    `json:"style,omitempty"`
	Colour      string    `json:"colour,omitempty"`
	CreditsUsed int64     `json:"credits_used"`
	Timestamp   int64     `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerationQuery supports listing generations with pagination. IncludeAll is
// only honoured for admin callers.
type GenerationQuery struct {
	BaseParams
	UserID     uint   `json:"user_id" form:"user_id" query:"user_id"`
	ImageType  string `json:"image_type" form:"image_type" query:"image_type"`
	IncludeAll bool   `json:"-" form:"-"`
}

// GenerateImageRequest is the payload for a single-image generation.
type GenerateImageRequest struct {
	ImageType string `json:"image_type" binding:"required"`
	Title     string `json:"title"`
	Content   string `json:"content" binding:"required"`
	Style     string `json:"style"`
	Colour    string `json:"colour"`
	ImageURL  string `json:"image_url"`
	ImageSize string `json:"image_size"`
	UseBrand  bool   `json:"use_brand"`
}

type GenerateImageResponse struct {
	Record           HistoryItem `json:"record"`
	CreditsRemaining int64       `json:"credits_remaining"`
}

type HistoryListResponse struct {
	Items []HistoryItem `json:"items"`
	Meta  *Meta         `json:"meta"`
}
