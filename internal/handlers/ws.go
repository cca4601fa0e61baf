package handlers

import (
	"context"
	"log"

	"social-backend/internal/models"
	"social-backend/internal/services"
	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WSUpgradeMiddleware only lets actual WebSocket upgrade requests through
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WSIdentityMiddleware resolves the connecting identity before the upgrade.
// Token precedence: cookie "access_token", then query parameter "token". Any
// failure (missing token, bad signature, expired, unknown user) resolves to
// the anonymous identity (empty username) instead of an error; the room
// authorizer turns anonymity into a close code after the upgrade.
func WSIdentityMiddleware(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := ""

		token := c.Cookies("access_token")
		if token == "" {
			token = c.Query("token")
		}

		if token != "" {
			if subject, err := services.ValidateToken(token); err == nil {
				if user, err := users.GetByUsername(c.Context(), subject); err == nil {
					username = user.Username
				}
			}
		}

		c.Locals("username", username)
		return c.Next()
	}
}

// ChatSocketHandler runs one authorized chat connection: authorize the room,
// join the broadcast group, pump inbound frames through the session, and on
// disconnect leave the group and announce the departure.
func ChatSocketHandler(registry *Registry, convs *services.ConversationService, gate SocialGate) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		username, _ := c.Locals("username").(string)
		roomName := c.Params("room")

		room, rejection := AuthorizeRoom(context.Background(), username, roomName, gate)
		if rejection != nil {
			log.Printf("ws rejected - room: %s, user: %q, reason: %s", roomName, username, rejection.Reason)
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(rejection.Code, rejection.Reason))
			_ = c.Close()
			return
		}

		client := NewClient(username, c)
		registry.Join(room.Name, client)
		log.Printf("ws connected - %s joined %s", username, room.Name)

		registry.BroadcastExcludingUser(room.Name, models.PresenceEvent{
			Type:     "user_joined",
			Username: username,
		}, username)

		defer func() {
			registry.Leave(room.Name, client)
			registry.BroadcastExcludingUser(room.Name, models.PresenceEvent{
				Type:     "user_left",
				Username: username,
			}, username)
			_ = c.Close()
		}()

		session := NewChatSession(registry, convs, client, room)

		for {
			msgType, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					utils.LogError(err, "ReadMessage")
				}
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}
			session.HandleFrame(context.Background(), raw)
		}
	})
}
