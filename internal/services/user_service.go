package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"comms-backend/internal/apperr"
	"comms-backend/internal/db"
	"comms-backend/internal/models"
	"comms-backend/internal/utils"
)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

// Login verifies credentials and issues a token. Account creation is
// handled out of band; this service never writes password hashes.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var user models.User
	query := `SELECT id, username, password_hash FROM users WHERE username = $1`
	err := db.Pool.QueryRow(ctx, query, req.Username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	token, err := GenerateJWT(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	}, nil
}

// FindUserByID is the identity-lookup collaborator.
func (s *UserService) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, status, last_seen, created_at FROM users WHERE id = $1`
	err := db.Pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Status, &user.LastSeen, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether the user id resolves to a known user.
func (s *UserService) UserExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// ListUsers returns the roster with the stored presence fields; the
// presence manager keeps status and last_seen current.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, username, status, last_seen, created_at FROM users ORDER BY username`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Status, &u.LastSeen, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetStatus persists a presence transition. A nil lastSeen leaves the
// stored timestamp untouched.
func (s *UserService) SetStatus(ctx context.Context, userID int, status string, lastSeen *time.Time) error {
	if lastSeen != nil {
		_, err := db.Pool.Exec(ctx, `UPDATE users SET status = $2, last_seen = $3 WHERE id = $1`, userID, status, *lastSeen)
		return err
	}
	_, err := db.Pool.Exec(ctx, `UPDATE users SET status = $2 WHERE id = $1`, userID, status)
	return err
}

func GenerateJWT(userID int, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_SECRET", "secret")))
}

func ValidateToken(tokenString string) (jwt.MapClaims, error) {
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
