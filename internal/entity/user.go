package entity

import "time"

const (
	UserRoleSuperAdmin = "super_admin"
	UserRoleAdmin      = "admin"
	UserRoleUser       = "user"
)

// DbUser represents a persisted user account, including the credit balance
// and the optional branding profile attached to generation requests.
type DbUser struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	DisplayName  string    `gorm:"column:display_name;type:varchar(255)" json:"display_name"`
	Username     string    `gorm:"column:username;type:varchar(64);index" json:"username"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`

	Credits int64 `gorm:"column:credits;not null;default:0" json:"credits"`

	BrandName       string `gorm:"column:brand_name;type:varchar(255)" json:"brand_name"`
	WebsiteURL      string `gorm:"column:website_url;type:varchar(512)" json:"website_url"`
	BrandLogoPath   string `gorm:"column:brand_logo_path;type:varchar(512)" json:"brand_logo_path"`
	BrandGuidelines string `gorm:"column:brand_guidelines;type:text" json:"brand_guidelines"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsAdminRole reports whether the user holds an administrative role.
func (u *DbUser) IsAdminRole() bool {
	if u == nil {
		return false
	}
	return u.Role == UserRoleAdmin || u.Role == UserRoleSuperAdmin
}

// HasBrandProfile reports whether the user filled in any branding field.
func (u *DbUser) HasBrandProfile() bool {
	if u == nil {
		return false
	}
	return u.BrandName != "" || u.BrandLogoPath != "" || u.WebsiteURL != "" || u.BrandGuidelines != ""
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID              uint      `json:"id"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name"`
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	IsAdmin         bool      `json:"is_admin"`
	IsActive        bool      `json:"is_active"`
	Credits         int64     `json:"credits"`
	BrandName       string    `json:"brand_name,omitempty"`
	WebsiteURL      string    `json:"website_url,omitempty"`
	BrandLogoURL    string    `json:"brand_logo_url,omitempty"`
	BrandGuidelines string    `json:"brand_guidelines,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// ProfileUpdateRequest carries self-service profile edits, including the
// branding fields used by generation requests.
type ProfileUpdateRequest struct {
	DisplayName     *string `json:"display_name,omitempty"`
	Username        *string `json:"username,omitempty"`
	BrandName       *string `json:"brand_name,omitempty"`
	WebsiteURL      *string `json:"website_url,omitempty"`
	BrandGuidelines *string `json:"brand_guidelines,omitempty"`
}

type UserCreateRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Role        string `json:"role" binding:"required"`
	Credits     *int64 `json:"credits"`
	IsActive    *bool  `json:"is_active"`
}

type UserUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Username    *string `json:"username,omitempty"`
	Role        *string `json:"role,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UserCreditsRequest sets or shifts a user's balance. Exactly one of Credits
// (absolute set) or Delta must be provided.
type UserCreditsRequest struct {
	Credits *int64 `json:"credits,omitempty"`
	Delta   *int64 `json:"delta,omitempty"`
	Note    string `json:"note,omitempty"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
