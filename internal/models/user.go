package models

import "time"

type User struct {
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Usernames are restricted to alphanumerics so they can never contain the
// room-name separator.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Bio      string `json:"bio" validate:"max=500"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
}

type UpdateProfileRequest struct {
	Bio string `json:"bio" validate:"max=500"`
}

// Profile is a user as seen by another (or the same) user.
type Profile struct {
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	Followers    int       `json:"followers"`
	Following    int       `json:"following"`
	IsOurProfile bool      `json:"is_our_profile"`
	IsFollowing  bool      `json:"following_them"`
}
