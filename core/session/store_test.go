package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/role"
)

type bogusAction struct{}

func (bogusAction) isAction() {}

func TestReduce(t *testing.T) {
	id := Identity{ID: "a-1", DisplayName: "Root", Role: role.Admin, Email: "root@campus.test"}
	authed := Session{Status: StatusAuthenticated, Identity: &id}
	failed := Session{Status: StatusUnauthenticated, LastError: "Invalid credentials"}

	tests := []struct {
		name string
		prev Session
		act  action
		want Session
	}{
		{"check from unknown", Session{}, checkStarted{}, Session{Status: StatusLoading}},
		{"check drops identity", authed, checkStarted{}, Session{Status: StatusLoading}},
		{"auth clears last error", failed, authStarted{}, Session{Status: StatusLoading}},
		{"check succeeded", Session{Status: StatusLoading}, checkSucceeded{identity: id}, authed},
		{"auth succeeded", Session{Status: StatusLoading}, authSucceeded{identity: id}, authed},
		{"check failed", Session{Status: StatusLoading}, checkFailed{}, Session{Status: StatusUnauthenticated}},
		{"auth failed", Session{Status: StatusLoading}, authFailed{message: "Invalid credentials"}, failed},
		{"logged out", authed, loggedOut{}, Session{Status: StatusUnauthenticated}},
		{"logged out clears error", failed, loggedOut{}, Session{Status: StatusUnauthenticated}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := reduce(tc.prev, tc.act)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got.Status == StatusAuthenticated, got.Identity != nil)
		})
	}

	assert.Panics(t, func() { reduce(Session{}, bogusAction{}) })
}

func TestReduce_copiesProfile(t *testing.T) {
	profile := Profile{"department": "CS"}
	s := reduce(Session{Status: StatusLoading}, checkSucceeded{identity: Identity{ID: "x"}, profile: profile})
	profile["department"] = "Math"
	assert.Equal(t, "CS", s.Profile["department"])
}

func TestStore(t *testing.T) {
	store := NewStore()
	assert.Equal(t, StatusUnknown, store.Snapshot().Status)

	var first, second, calls []string
	unsubFirst := store.Subscribe(func(s Session) {
		first = append(first, s.Status.String())
		calls = append(calls, "first")
	})
	store.Subscribe(func(s Session) {
		second = append(second, s.Status.String())
		calls = append(calls, "second")
	})

	store.dispatch(checkStarted{})
	store.dispatch(checkSucceeded{identity: Identity{ID: "s-1", Role: role.Student}})
	unsubFirst()
	unsubFirst()
	store.dispatch(loggedOut{})

	assert.Equal(t, []string{"loading", "authenticated"}, first)
	assert.Equal(t, []string{"loading", "authenticated", "unauthenticated"}, second)
	// listeners run in subscription order
	assert.Equal(t, []string{"first", "second", "first", "second", "second"}, calls)
}

func TestStore_snapshotIsolation(t *testing.T) {
	store := NewStore()
	store.dispatch(authSucceeded{identity: Identity{ID: "s-1", Role: role.Student}, profile: Profile{"year": 2}})

	snap := store.Snapshot()
	snap.Identity.Role = role.Admin
	snap.Profile["year"] = 4

	again := store.Snapshot()
	assert.Equal(t, role.Student, again.Role())
	assert.Equal(t, 2, again.Profile["year"])
}

func TestSession_JSON(t *testing.T) {
	s := Session{
		Status:   StatusAuthenticated,
		Identity: &Identity{ID: "l-1", DisplayName: "Mel", Role: role.Librarian, Email: "mel@campus.test"},
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"authenticated","user":{"id":"l-1","name":"Mel","role":"librarian","email":"mel@campus.test"}}`, string(b))

	var back Session
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"busy"}`), &back))
}

func TestSession_Role(t *testing.T) {
	assert.Empty(t, Session{Status: StatusLoading}.Role())
	assert.Empty(t, Session{Status: StatusUnauthenticated, Identity: &Identity{Role: role.Admin}}.Role())
	assert.Equal(t, role.Admin, Session{Status: StatusAuthenticated, Identity: &Identity{Role: role.Admin}}.Role())
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusUnknown.Settled())
	assert.False(t, StatusLoading.Settled())
	assert.True(t, StatusAuthenticated.Settled())
	assert.True(t, StatusUnauthenticated.Settled())
	assert.Equal(t, "status(9)", Status(9).String())
}
