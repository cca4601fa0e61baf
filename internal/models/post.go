package models

import "time"

type Post struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LikeCount   int       `json:"like_count"`
	Liked       bool      `json:"liked"`
}

type CreatePostRequest struct {
	Description string `json:"description" validate:"required,max=350"`
}

type ToggleFollowRequest struct {
	Username string `json:"username" validate:"required"`
}
