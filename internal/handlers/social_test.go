package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"social-backend/internal/models"
	"social-backend/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	users []models.User
	query string
	limit int
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	s.query = query
	s.limit = limit
	return s.users, nil
}

type fakeIdentity struct {
	known map[string]bool
}

func (u *fakeIdentity) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if !u.known[username] {
		return nil, services.ErrNotFound
	}
	return &models.User{Username: username}, nil
}

type fakePostsLister struct {
	posts    []models.Post
	viewer   string
	username string
}

func (p *fakePostsLister) PostsByUser(ctx context.Context, viewer, username string, limit int) ([]models.Post, error) {
	p.viewer = viewer
	p.username = username
	return p.posts, nil
}

func discoveryApp(searcher *fakeSearcher, identity *fakeIdentity, lister *fakePostsLister) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("username", "alice")
		return c.Next()
	})
	app.Get("/api/search", SearchUsersHandler(searcher))
	app.Get("/api/users/:username/posts", GetUserPostsHandler(identity, lister))
	return app
}

func TestSearchUsers_ReturnsMatches(t *testing.T) {
	// Given two users matching the query
	searcher := &fakeSearcher{users: []models.User{{Username: "bob"}, {Username: "bobby"}}}
	app := discoveryApp(searcher, &fakeIdentity{}, &fakePostsLister{})

	// When alice searches for "bob"
	resp, err := app.Test(httptest.NewRequest("GET", "/api/search?query=bob", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Then both matches come back
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "bob", searcher.query)

	var users []models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 2)
	require.Equal(t, "bob", users[0].Username)
}

func TestSearchUsers_MissingQueryRejected(t *testing.T) {
	app := discoveryApp(&fakeSearcher{}, &fakeIdentity{}, &fakePostsLister{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/search", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetUserPosts_ReturnsUsersPosts(t *testing.T) {
	// Given bob exists and has one post
	lister := &fakePostsLister{posts: []models.Post{{ID: 1, Username: "bob", Description: "hey"}}}
	app := discoveryApp(&fakeSearcher{}, &fakeIdentity{known: map[string]bool{"bob": true}}, lister)

	// When alice fetches bob's posts
	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/bob/posts", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Then the post is returned as seen by alice
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "alice", lister.viewer)
	require.Equal(t, "bob", lister.username)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 1)
	require.Equal(t, "bob", posts[0].Username)
}

func TestGetUserPosts_UnknownUserIs404(t *testing.T) {
	app := discoveryApp(&fakeSearcher{}, &fakeIdentity{}, &fakePostsLister{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/ghost/posts", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
