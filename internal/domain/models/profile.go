package models

import "time"

// Profile is the portfolio owner's public card.
type Profile struct {
	UserID     int64     `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Title      string    `json:"title" db:"title"`
	Bio        string    `json:"bio" db:"bio"`
	Location   string    `json:"location" db:"location"`
	Email      string    `json:"email" db:"email"`
	Website    string    `json:"website" db:"website"`
	GitHub     string    `json:"github" db:"github"`
	LinkedIn   string    `json:"linkedin" db:"linkedin"`
	AvatarData string    `json:"avatar_data" db:"avatar_data"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest supports partial updates via pointers.
// Only provided fields replace the stored (or default) values.
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Title      *string `json:"title"`
	Bio        *string `json:"bio"`
	Location   *string `json:"location"`
	Email      *string `json:"email"`
	Website    *string `json:"website"`
	GitHub     *string `json:"github"`
	LinkedIn   *string `json:"linkedin"`
	AvatarData *string `json:"avatar_data"`
}
