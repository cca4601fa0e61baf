package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-backend/internal/db"
	"social-backend/internal/models"
	"social-backend/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

var validate = validator.New()

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

// Register creates a user. Usernames are restricted to alphanumerics here so
// room names can always be split on the separator unambiguously.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user models.User
	query := `INSERT INTO users (username, password_hash, bio) VALUES ($1, $2, $3) RETURNING username, bio, created_at`
	err = db.Pool.QueryRow(ctx, query, req.Username, string(hash), req.Bio).Scan(&user.Username, &user.Bio, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var user models.User
	query := `SELECT username, password_hash FROM users WHERE username = $1`
	err := db.Pool.QueryRow(ctx, query, req.Username).Scan(&user.Username, &user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := GenerateJWT(user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Username:     user.Username,
	}, nil
}

// GetByUsername is the identity lookup consumed by the connection
// authenticator and the messaging handlers.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT username, bio, created_at FROM users WHERE username = $1`
	err := db.Pool.QueryRow(ctx, query, username).Scan(&user.Username, &user.Bio, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Search returns users whose username or bio contains the query,
// case-insensitively, ordered by username.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	sql := `SELECT username, bio, created_at FROM users
		WHERE username ILIKE '%' || $1 || '%' OR bio ILIKE '%' || $1 || '%'
		ORDER BY username LIMIT $2`
	rows, err := db.Pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Username, &u.Bio, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetProfile returns a user's profile as seen by viewer.
func (s *UserService) GetProfile(ctx context.Context, viewer, username string) (*models.Profile, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		Username:     user.Username,
		Bio:          user.Bio,
		CreatedAt:    user.CreatedAt,
		IsOurProfile: viewer == username,
	}

	query := `SELECT
		(SELECT count(*) FROM follows WHERE followee = $1),
		(SELECT count(*) FROM follows WHERE follower = $1),
		EXISTS (SELECT 1 FROM follows WHERE follower = $2 AND followee = $1)`
	err = db.Pool.QueryRow(ctx, query, username, viewer).Scan(&p.Followers, &p.Following, &p.IsFollowing)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *UserService) UpdateBio(ctx context.Context, username, bio string) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE users SET bio = $1 WHERE username = $2`, bio, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func GenerateJWT(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_SECRET", "secret")))
}

func GenerateRefreshToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"refresh":  true,
		"exp":      time.Now().Add(time.Hour * 24 * 7).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_SECRET", "secret")))
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(utils.GetEnv("JWT_SECRET", "secret")), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ValidateToken verifies an access token and returns the embedded username.
func ValidateToken(tokenString string) (string, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return "", err
	}
	if refresh, _ := claims["refresh"].(bool); refresh {
		return "", errors.New("refresh token used as access token")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("invalid token claims")
	}
	return username, nil
}

// ValidateRefreshToken verifies a refresh token and returns the username.
func ValidateRefreshToken(tokenString string) (string, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return "", err
	}
	if refresh, _ := claims["refresh"].(bool); !refresh {
		return "", errors.New("not a refresh token")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("invalid token claims")
	}
	return username, nil
}
