package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/auth"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

func TestRegisterAndLogin(t *testing.T) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	svc := NewUserService(memstore.New(), issuer, discardLogger())
	ctx := context.Background()

	user, token, err := svc.Register(ctx, models.RegisterRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Zero(t, user.Prefs.Reputation)
	assert.NotEqual(t, "secret1", user.Password)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Register(ctx, models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrConflict)

	got, _, err := svc.Login(ctx, models.LoginRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewUserService(memstore.New(), auth.NewIssuer("s", time.Hour), discardLogger())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{Name: "x", Email: "x@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = svc.Register(context.Background(), models.RegisterRequest{Name: "x", Email: "x@example.com", Password: strings.Repeat("p", 80)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = svc.Register(context.Background(), models.RegisterRequest{Name: "x", Email: "x@example.com", Password: strings.Repeat("p", 72)})
	assert.NoError(t, err)
	_, err = svc.GetUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
