package services

import (
	"context"
	"errors"

	"social-backend/internal/db"
	"social-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

type PostService struct{}

func NewPostService() *PostService {
	return &PostService{}
}

func (s *PostService) Create(ctx context.Context, username, description string) (*models.Post, error) {
	post := &models.Post{Username: username, Description: description}
	query := `INSERT INTO posts (username, description) VALUES ($1, $2) RETURNING id, created_at`
	err := db.Pool.QueryRow(ctx, query, username, description).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Feed returns the most recent posts with like counts and whether viewer has
// liked each one.
func (s *PostService) Feed(ctx context.Context, viewer string, limit int) ([]models.Post, error) {
	query := `SELECT p.id, p.username, p.description, p.created_at,
		(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.username = $1)
		FROM posts p ORDER BY p.created_at DESC LIMIT $2`
	rows, err := db.Pool.Query(ctx, query, viewer, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Username, &p.Description, &p.CreatedAt, &p.LikeCount, &p.Liked); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// PostsByUser returns username's posts, newest first, as seen by viewer.
func (s *PostService) PostsByUser(ctx context.Context, viewer, username string, limit int) ([]models.Post, error) {
	query := `SELECT p.id, p.username, p.description, p.created_at,
		(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.username = $1)
		FROM posts p WHERE p.username = $2 ORDER BY p.created_at DESC LIMIT $3`
	rows, err := db.Pool.Query(ctx, query, viewer, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Username, &p.Description, &p.CreatedAt, &p.LikeCount, &p.Liked); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ToggleLike likes the post if not yet liked, unlikes otherwise. Returns the
// resulting state.
func (s *PostService) ToggleLike(ctx context.Context, postID int64, username string) (bool, error) {
	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}

	tag, err := db.Pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND username = $2`, postID, username)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = db.Pool.Exec(ctx, `INSERT INTO post_likes (post_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, username)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetPost fetches one post as seen by viewer.
func (s *PostService) GetPost(ctx context.Context, viewer string, postID int64) (*models.Post, error) {
	var p models.Post
	query := `SELECT p.id, p.username, p.description, p.created_at,
		(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.username = $1)
		FROM posts p WHERE p.id = $2`
	err := db.Pool.QueryRow(ctx, query, viewer, postID).Scan(
		&p.ID, &p.Username, &p.Description, &p.CreatedAt, &p.LikeCount, &p.Liked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
