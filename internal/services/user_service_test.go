package services

import (
	"context"
	"testing"

	"social-backend/internal/models"

	"github.com/stretchr/testify/require"
)

func TestRegister_RejectsSeparatorInUsername(t *testing.T) {
	req := require.New(t)
	svc := NewUserService()

	// "_" is the room-name separator; alphanum validation keeps it out of
	// identities so room names always decompose into exactly two tokens.
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice_bob",
		Password: "supersecret",
	})
	req.ErrorIs(err, ErrValidation)
}

func TestRegister_RejectsShortUsername(t *testing.T) {
	req := require.New(t)
	svc := NewUserService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "ab",
		Password: "supersecret",
	})
	req.ErrorIs(err, ErrValidation)
}
