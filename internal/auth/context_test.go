package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tenagalabs/jejak/internal/domain"
)

func TestUserRoundTrip(t *testing.T) {
	user := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleClerk}
	ctx := SetUser(context.Background(), user)

	assert.Same(t, user, GetUser(ctx))
	assert.Equal(t, user.TenantID, TenantID(ctx))
}

func TestAnonymousContext(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, GetUser(ctx))
	assert.Equal(t, uuid.Nil, TenantID(ctx))
}
