package app

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"social-backend/internal/db"
	"social-backend/internal/handlers"
	"social-backend/internal/models"
	"social-backend/internal/services"
	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Init DB
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = "postgres://" + utils.GetEnv("POSTGRES_USER", "postgres") + ":" +
			utils.GetEnv("POSTGRES_PASSWORD", "postgres") + "@" +
			utils.GetEnv("POSTGRES_HOST", "localhost") + ":" +
			utils.GetEnv("POSTGRES_PORT", "5432") + "/" +
			utils.GetEnv("POSTGRES_DB", "socialdb") + "?sslmode=disable"
	}

	if err := db.InitDB(connString, utils.GetEnvInt("DB_MAX_CONNS", 10)); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	// Services
	userService := services.NewUserService()
	followService := services.NewFollowService()
	convService := services.NewConversationService()
	postService := services.NewPostService()

	// Live-connection registry, injected into the WebSocket handler
	registry := handlers.NewRegistry()

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Routes
	api := app.Group("/api")

	// Public Routes
	api.Post("/register", func(c *fiber.Ctx) error {
		var req models.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		user, err := userService.Register(c.Context(), req)
		if err != nil {
			if errors.Is(err, services.ErrUserExists) {
				return c.Status(400).JSON(fiber.Map{"error": "username already exists"})
			}
			if errors.Is(err, services.ErrValidation) {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(user)
	})

	api.Post("/login", func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		res, err := userService.Login(c.Context(), req)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	// Refresh token endpoint
	api.Post("/refresh", func(c *fiber.Ctx) error {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		if body.RefreshToken == "" {
			return c.Status(400).JSON(fiber.Map{"error": "refresh_token required"})
		}

		username, err := services.ValidateRefreshToken(body.RefreshToken)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid refresh token"})
		}

		access, err := services.GenerateJWT(username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to generate access token"})
		}
		refresh, err := services.GenerateRefreshToken(username)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to generate refresh token"})
		}

		return c.JSON(fiber.Map{
			"access_token":  access,
			"refresh_token": refresh,
		})
	})

	// Protected Routes
	protected := api.Group("/")
	protected.Use(handlers.AuthMiddleware)

	// Profile and follow graph
	protected.Get("/profile/:username", handlers.GetProfileHandler(userService))
	protected.Patch("/profile", handlers.UpdateProfileHandler(userService))
	protected.Post("/follow/toggle", handlers.ToggleFollowHandler(userService, followService))
	protected.Get("/search", handlers.SearchUsersHandler(userService))
	protected.Get("/users/:username/posts", handlers.GetUserPostsHandler(userService, postService))

	// Posts
	protected.Post("/posts", handlers.CreatePostHandler(postService))
	protected.Get("/feed", handlers.FeedHandler(postService))
	protected.Get("/posts/:id", handlers.GetPostHandler(postService))
	protected.Post("/posts/:id/like", handlers.ToggleLikeHandler(postService))

	// Messaging
	protected.Get("/conversations", handlers.ListConversationsHandler(convService))
	protected.Post("/conversations/start", handlers.StartConversationHandler(convService, userService, followService))
	protected.Get("/conversations/:id", handlers.ConversationDetailHandler(convService))
	protected.Get("/conversations/:id/messages", handlers.ConversationMessagesHandler(convService))
	protected.Patch("/conversations/:id/read", handlers.MarkReadHandler(convService))
	protected.Post("/messages", handlers.SendMessageHandler(convService, userService, followService))
	protected.Get("/messages/unread-count", handlers.UnreadCountHandler(convService))

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. The identity middleware resolves the
	// token (or anonymous); the room authorizer decides inside the handler.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.WSIdentityMiddleware(userService))
	app.Get("/ws/chat/:room", handlers.ChatSocketHandler(registry, convService, followService))

	// Start Server
	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	log.Println("Server shutdown complete")
}
