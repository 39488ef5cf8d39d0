// Package models defines the server-side records in their two shapes: the
// application shape carrying plaintext, and the storage shape where every
// sensitive field exists only as an envelope blob.
package models

import "time"

// Profile is the plaintext application shape of a user's profile.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FullName    *string   `json:"full_name,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredProfile is the row persisted in the profiles table.
type StoredProfile struct {
	ID                   string
	UserID               string
	FullNameEncrypted    *string
	DateOfBirthEncrypted *string
	PhoneEncrypted       *string
	AvatarURL            *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
