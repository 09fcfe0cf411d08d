package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPartyGuards(t *testing.T) {
	party, other := uuid.New(), uuid.New()

	guards := map[string]func(partyID, actorID uuid.UUID) bool{
		"create":   CanCreate,
		"handle":   CanHandle,
		"escalate": CanEscalate,
	}

	for name, guard := range guards {
		t.Run(name, func(t *testing.T) {
			assert.True(t, guard(party, party), "the party itself")
			assert.False(t, guard(party, other), "someone else")
			assert.False(t, guard(uuid.Nil, uuid.Nil), "nil actor never matches")
		})
	}
}

func TestCanResolve(t *testing.T) {
	assert.True(t, CanResolve([]Role{RoleAdmin}))
	assert.True(t, CanResolve([]Role{RoleSeller, RoleAdmin}))
	assert.False(t, CanResolve([]Role{RoleBuyer, RoleSeller}))
	assert.False(t, CanResolve(nil))
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		isBuyer  bool
		isSeller bool
		want     bool
	}{
		{"buyer", nil, true, false, true},
		{"seller", nil, false, true, true},
		{"admin stranger", []Role{RoleAdmin}, false, false, true},
		{"stranger", nil, false, false, false},
		{"stranger with party roles", []Role{RoleBuyer, RoleSeller}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.roles, tt.isBuyer, tt.isSeller))
		})
	}
}

func TestParseRoles(t *testing.T) {
	roles := ParseRoles([]string{"user", " Admin ", "seller", "", "superuser"})
	assert.Equal(t, []Role{RoleAdmin, RoleSeller}, roles)
	assert.True(t, HasRole(roles, RoleAdmin))
	assert.False(t, HasRole(roles, RoleBuyer))
}
