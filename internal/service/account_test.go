package service

import (
	"context"
	"testing"
	"time"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/models"
	"campus_marketplace/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.accounts.Register(ctx, RegisterInput{
		Username: "jdoe",
		Email:    "JDoe@Example.edu",
		Password: "correct horse",
		FullName: "Jane Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.edu", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "correct horse", u.Password)

	_, err = f.accounts.Register(ctx, RegisterInput{Username: "jdoe2", Email: "jdoe@example.edu", Password: "longenough"})
	assert.ErrorIs(t, err, ErrAccountExists)

	session, err := f.accounts.Login(ctx, "jdoe@example.edu", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	who, err := f.accounts.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: u.ID, Role: models.RoleUser}, who)

	_, err = f.accounts.Login(ctx, "jdoe@example.edu", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.accounts.Login(ctx, "nobody@example.edu", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"no username", RegisterInput{Email: "a@example.edu", Password: "longenough"}},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterInput{Username: "a", Email: "a@example.edu", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.accounts.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidAccount)
		})
	}
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser(models.User{})
	foreign, err := utils.GenerateToken(u.ID, models.RoleAdmin, "someone-else", time.Hour)
	require.NoError(t, err)

	_, err = f.accounts.Authenticate(foreign)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.accounts.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	u := f.store.AddUser(models.User{FullName: "Pat"})

	got, err := f.accounts.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat", got.FullName)

	_, err = f.accounts.Me(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
