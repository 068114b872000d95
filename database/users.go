package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserService handles user persistence.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, bio, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', '', ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByEmail(email string) (*User, error) {
	return s.scanOne(s.db.QueryRow(
		`SELECT id, name, email, password_hash, bio, avatar_url, created_at, updated_at
		 FROM users WHERE email = ?`, strings.ToLower(email)))
}

func (s *UserService) GetByID(id string) (*User, error) {
	return s.scanOne(s.db.QueryRow(
		`SELECT id, name, email, password_hash, bio, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`, id))
}

// UserUpdate carries a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl"`
}

func (s *UserService) Update(id string, patch UserUpdate) (*User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	user.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE users SET name = ?, bio = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Bio, user.AvatarURL, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *UserService) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
