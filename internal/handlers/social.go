package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"social-backend/internal/models"
	"social-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GetProfileHandler returns a user's profile as seen by the caller.
func GetProfileHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := users.GetProfile(c.Context(), CurrentUser(c), c.Params("username"))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(profile)
	}
}

// userSearcher and userPostsLister are the slices of the user and post
// services the discovery handlers need. Implemented by services.UserService
// and services.PostService; faked in tests.
type userSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

type userPostsLister interface {
	PostsByUser(ctx context.Context, viewer, username string, limit int) ([]models.Post, error)
}

// SearchUsersHandler finds users by a case-insensitive substring of their
// username or bio.
func SearchUsersHandler(users userSearcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			return c.Status(400).JSON(fiber.Map{"error": "Missing query parameter"})
		}

		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 50 {
			limit = 20
		}

		matches, err := users.Search(c.Context(), query, limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to search users"})
		}
		return c.JSON(matches)
	}
}

// GetUserPostsHandler returns one user's posts, newest first.
func GetUserPostsHandler(users identityLookup, posts userPostsLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.Params("username")
		if _, err := users.GetByUsername(c.Context(), username); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		userPosts, err := posts.PostsByUser(c.Context(), CurrentUser(c), username, limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch posts"})
		}
		return c.JSON(userPosts)
	}
}

// UpdateProfileHandler updates the caller's bio.
func UpdateProfileHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.UpdateProfileRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		if err := users.UpdateBio(c.Context(), CurrentUser(c), req.Bio); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"bio": req.Bio})
	}
}

// ToggleFollowHandler follows or unfollows the target user.
func ToggleFollowHandler(users *services.UserService, follows *services.FollowService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.ToggleFollowRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		if _, err := users.GetByUsername(c.Context(), req.Username); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "User not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		nowFollowing, err := follows.ToggleFollow(c.Context(), CurrentUser(c), req.Username)
		if err != nil {
			if errors.Is(err, services.ErrSelfAction) {
				return c.Status(400).JSON(fiber.Map{"error": "Cannot follow yourself"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"now_following": nowFollowing})
	}
}

// CreatePostHandler creates a post by the caller.
func CreatePostHandler(posts *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreatePostRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		post, err := posts.Create(c.Context(), CurrentUser(c), req.Description)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(post)
	}
}

// FeedHandler returns the most recent posts.
func FeedHandler(posts *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		feed, err := posts.Feed(c.Context(), CurrentUser(c), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch feed"})
		}
		return c.JSON(feed)
	}
}

// GetPostHandler returns a single post as seen by the caller.
func GetPostHandler(posts *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid post id"})
		}

		post, err := posts.GetPost(c.Context(), CurrentUser(c), postID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Post not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(post)
	}
}

// ToggleLikeHandler likes or unlikes a post.
func ToggleLikeHandler(posts *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid post id"})
		}

		liked, err := posts.ToggleLike(c.Context(), postID, CurrentUser(c))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Post not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"liked": liked})
	}
}
