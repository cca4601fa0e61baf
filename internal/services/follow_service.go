package services

import (
	"context"

	"social-backend/internal/db"
)

// FollowService owns the follow graph and the messaging gate built on it.
type FollowService struct{}

func NewFollowService() *FollowService {
	return &FollowService{}
}

// ToggleFollow follows the target if not currently followed, unfollows
// otherwise. Returns the resulting state.
func (s *FollowService) ToggleFollow(ctx context.Context, follower, followee string) (bool, error) {
	if follower == followee {
		return false, ErrSelfAction
	}

	// Delete first; if nothing was deleted we were not following.
	tag, err := db.Pool.Exec(ctx, `DELETE FROM follows WHERE follower = $1 AND followee = $2`, follower, followee)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = db.Pool.Exec(ctx, `INSERT INTO follows (follower, followee) VALUES ($1, $2) ON CONFLICT DO NOTHING`, follower, followee)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	var following bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower = $1 AND followee = $2)`,
		follower, followee).Scan(&following)
	return following, err
}

// MutualFollow reports whether a and b follow each other. Always false for
// a == b. Queried live on every call so an unfollow takes effect immediately
// for subsequent checks.
func (s *FollowService) MutualFollow(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}

	var mutual bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower = $1 AND followee = $2)
		    AND EXISTS (SELECT 1 FROM follows WHERE follower = $2 AND followee = $1)`,
		a, b).Scan(&mutual)
	return mutual, err
}

// CanMessage decides whether from may message to, with a human-readable
// reason when denied.
func (s *FollowService) CanMessage(ctx context.Context, from, to string) (bool, string, error) {
	if from == to {
		return false, "Cannot send message to yourself", nil
	}

	mutual, err := s.MutualFollow(ctx, from, to)
	if err != nil {
		return false, "", err
	}
	if !mutual {
		return false, "You can only message users who follow you back", nil
	}
	return true, "", nil
}
