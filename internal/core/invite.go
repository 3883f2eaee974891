package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// InviteTokenBytes is the amount of randomness behind each token (32 hex characters).
const InviteTokenBytes = 16

type InviteState string

const (
	InvitePending  InviteState = "pending"
	InviteAccepted InviteState = "accepted"
	InviteExpired  InviteState = "expired"
)

// Invite grants Role in GroupID to whoever redeems Token first.
type Invite struct {
	Token      string     `json:"token"`
	GroupID    string     `json:"groupId"`
	Role       Role       `json:"role"`
	CreatedBy  string     `json:"createdBy"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	AcceptedBy string     `json:"acceptedBy,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// State derives the lifecycle state at now. Acceptance wins over expiry.
func (i Invite) State(now time.Time) InviteState {
	switch {
	case i.AcceptedAt != nil:
		return InviteAccepted
	case now.After(i.ExpiresAt):
		return InviteExpired
	default:
		return InvitePending
	}
}

// NewInviteToken returns 16 bytes from crypto/rand as lowercase hex.
func NewInviteToken() (string, error) {
	b := make([]byte, InviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// InviteLink builds the URL the web client opens: {origin}/invite/{token}.
func InviteLink(origin, token string) string {
	return strings.TrimRight(origin, "/") + "/invite/" + token
}

// AcceptResult reports the outcome of a successful redemption.
type AcceptResult struct {
	GroupID       string `json:"groupId"`
	Role          Role   `json:"role"`
	AlreadyMember bool   `json:"alreadyMember"`
}

func (r AcceptResult) Message() string {
	if r.AlreadyMember {
		return "You are already a member of this group"
	}
	return "Successfully joined the group"
}
