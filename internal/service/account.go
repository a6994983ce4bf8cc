package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"campus_marketplace/internal/repository"
	"campus_marketplace/models"
	"campus_marketplace/utils"
)

const minPasswordLength = 8

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AccountService struct {
	store  repository.Store
	secret string
	ttl    time.Duration
}

func NewAccountService(store repository.Store, secret string, ttl time.Duration) *AccountService {
	return &AccountService{store: store, secret: secret, ttl: ttl}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || len(in.Password) < minPasswordLength {
		return nil, ErrInvalidAccount
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidAccount
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		FullName: strings.TrimSpace(in.FullName),
		Role:     models.RoleUser,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return u, nil
}

// Login checks the password and issues an access token. Unknown emails and
// wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(u.ID, u.Role, s.secret, s.ttl)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

func (s *AccountService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *AccountService) ListUsers(ctx context.Context, page, limit int) (models.Page[models.User], error) {
	page, limit, _ = models.NormalizePage(page, limit, 100)
	return s.store.Users().List(ctx, page, limit)
}

// Authenticate resolves a bearer token into the calling actor.
func (s *AccountService) Authenticate(token string) (Actor, error) {
	claims, err := utils.ParseToken(token, s.secret)
	if err != nil {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}, nil
}
