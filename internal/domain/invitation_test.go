package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitation_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   InvitationStatus
		to     InvitationStatus
		want   bool
	}{
		{"pending to accepted", InvitationPending, InvitationAccepted, true},
		{"pending to expired", InvitationPending, InvitationExpired, true},
		{"pending to cancelled", InvitationPending, InvitationCancelled, true},
		{"pending to pending", InvitationPending, InvitationPending, false},
		{"accepted to cancelled", InvitationAccepted, InvitationCancelled, false},
		{"accepted to accepted", InvitationAccepted, InvitationAccepted, false},
		{"expired to accepted", InvitationExpired, InvitationAccepted, false},
		{"cancelled to accepted", InvitationCancelled, InvitationAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invitation{Status: tt.from}
			assert.Equal(t, tt.want, inv.CanTransitionTo(tt.to))
		})
	}
}

func TestInvitation_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	inv := &Invitation{ExpiresAt: now.Add(-time.Minute), Status: InvitationPending}
	assert.True(t, inv.IsExpired(now), "past deadline should be expired regardless of status")

	inv = &Invitation{ExpiresAt: now.Add(time.Hour), Status: InvitationPending}
	assert.False(t, inv.IsExpired(now))
}
