package postgres

import (
	"chatline-server/internal/domain"
	"database/sql"

	"github.com/google/uuid"
)

// UserRepository handles database operations for users.
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(user *domain.User) error {
	query := `INSERT INTO users (id, username, avatar, password_hash, online, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.Exec(query, user.ID, user.Username, user.Avatar, user.PasswordHash, user.Online, user.CreatedAt)
	return err
}

// FindByUsername retrieves a user by their username.
func (r *UserRepository) FindByUsername(username string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, username, avatar, password_hash, online, created_at FROM users WHERE username = $1`
	err := r.DB.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Avatar, &user.PasswordHash, &user.Online, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No user found is not an application error
		}
		return nil, err
	}
	return user, nil
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, username, avatar, password_hash, online, created_at FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Avatar, &user.PasswordHash, &user.Online, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// SetOnline persists a user's online flag.
func (r *UserRepository) SetOnline(id uuid.UUID, online bool) error {
	query := `UPDATE users SET online = $2 WHERE id = $1`
	_, err := r.DB.Exec(query, id, online)
	return err
}

// ListAll retrieves every user, ordered by username.
func (r *UserRepository) ListAll() ([]*domain.User, error) {
	query := `SELECT id, username, avatar, password_hash, online, created_at FROM users ORDER BY username`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Avatar, &user.PasswordHash, &user.Online, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
