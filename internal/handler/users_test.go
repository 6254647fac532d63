package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
)

type stubInvitations struct {
	invitation *domain.Invitation
	err        error
}

func (s *stubInvitations) Invite(context.Context, *domain.User, string, domain.Role) (*domain.Invitation, error) {
	return s.invitation, s.err
}
func (s *stubInvitations) GetByToken(context.Context, string) (*domain.Invitation, error) {
	return s.invitation, s.err
}
func (s *stubInvitations) Accept(context.Context, domain.AcceptInvitationParams) (*domain.User, error) {
	return nil, s.err
}
func (s *stubInvitations) Cancel(context.Context, *domain.User, uuid.UUID) error { return s.err }
func (s *stubInvitations) ListPending(context.Context, uuid.UUID) ([]*domain.Invitation, error) {
	return nil, s.err
}

func testUserHandler(invites *stubInvitations) *UserHandler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewUserHandler(nil, invites, logger)
}

func TestShowInvitation_MissingToken(t *testing.T) {
	h := testUserHandler(&stubInvitations{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/accept-invite", nil)
	rec := httptest.NewRecorder()
	h.ShowInvitation(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowInvitation_Expired(t *testing.T) {
	h := testUserHandler(&stubInvitations{
		invitation: &domain.Invitation{
			ID:        uuid.New(),
			Email:     "clerk@contoh.my",
			Role:      domain.RoleClerk,
			Status:    domain.InvitationExpired,
			ExpiresAt: time.Now().Add(-time.Hour),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/accept-invite?token=abc", nil)
	rec := httptest.NewRecorder()
	h.ShowInvitation(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVITATIONEXPIRED, body.Code)
}

func TestShowInvitation_AlreadyAccepted(t *testing.T) {
	h := testUserHandler(&stubInvitations{
		invitation: &domain.Invitation{
			ID:        uuid.New(),
			Email:     "clerk@contoh.my",
			Role:      domain.RoleClerk,
			Status:    domain.InvitationAccepted,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/accept-invite?token=abc", nil)
	rec := httptest.NewRecorder()
	h.ShowInvitation(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EINVITATIONNOTPENDING, body.Code,
		"a consumed invitation reports a different code than a lapsed one")
}

func TestShowInvitation_Pending(t *testing.T) {
	h := testUserHandler(&stubInvitations{
		invitation: &domain.Invitation{
			ID:        uuid.New(),
			Email:     "clerk@contoh.my",
			Role:      domain.RoleClerk,
			Status:    domain.InvitationPending,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/accept-invite?token=abc", nil)
	rec := httptest.NewRecorder()
	h.ShowInvitation(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data invitationView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "clerk@contoh.my", body.Data.Email)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("01/08/2026")
	assert.Error(t, err)
}

func TestParseInt32(t *testing.T) {
	assert.Equal(t, int32(25), parseInt32("25", 50))
	assert.Equal(t, int32(50), parseInt32("", 50))
	assert.Equal(t, int32(50), parseInt32("abc", 50))
}
