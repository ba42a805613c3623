package entity

// UserUpdates lists the user columns that may change after creation.
type UserUpdates struct {
	DisplayName     *string
	Username        *string
	Role            *string
	PasswordHash    *string
	IsActive        *bool
	Credits         *int64
	BrandName       *string
	WebsiteURL      *string
	BrandLogoPath   *string
	BrandGuidelines *string
}

// ToMap converts the updates into a GORM update map.
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Username != nil {
		updates["username"] = *u.Username
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.Credits != nil {
		updates["credits"] = *u.Credits
	}
	if u.BrandName != nil {
		updates["brand_name"] = *u.BrandName
	}
	if u.WebsiteURL != nil {
		updates["website_url"] = *u.WebsiteURL
	}
	if u.BrandLogoPath != nil {
		updates["brand_logo_path"] = *u.BrandLogoPath
	}
	if u.BrandGuidelines != nil {
		updates["brand_guidelines"] = *u.BrandGuidelines
	}
	return updates
}

// IsEmpty reports whether no field is set.
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
