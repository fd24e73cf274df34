package service

import (
	"chatline-server/internal/domain"
	"errors"
)

// UserService provides user-related services.
type UserService struct {
	users IUserDirectory
}

// NewUserService creates a new UserService.
func NewUserService(users IUserDirectory) *UserService {
	return &UserService{users: users}
}

// Register creates a new user account.
func (s *UserService) Register(username, avatar, password string) (*domain.User, error) {
	// Check if user already exists
	existingUser, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, errors.New("username is already taken")
	}

	// Create new user domain object (handles password hashing)
	newUser, err := domain.NewUser(username, avatar, password)
	if err != nil {
		return nil, err
	}

	// Persist user
	if err := s.users.Create(newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

// Login authenticates a user.
func (s *UserService) Login(username, password string) (*domain.User, error) {
	// Find user by username
	user, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("invalid credentials")
	}

	// Check password
	if !user.CheckPassword(password) {
		return nil, errors.New("invalid credentials")
	}

	return user, nil
}
