package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpsertOnlineStatus(t *testing.T) {
	d := newTestDB(t)
	alice := createTestUser(t, d, "alice")
	socketID := "sock-1"

	require.NoError(t, d.UpsertOnlineStatus(alice.ID, true, &socketID))
	require.NoError(t, d.UpsertOnlineStatus(alice.ID, false, nil))

	presences, err := d.ListUsersWithPresence(createTestUser(t, d, "observer").ID)
	require.NoError(t, err)
	require.Len(t, presences, 1)
	require.Equal(t, alice.ID, presences[0].User.ID)
	require.False(t, presences[0].IsOnline)
	require.False(t, presences[0].LastSeen.IsZero())
}

func TestListUsersWithPresenceOrdering(t *testing.T) {
	d := newTestDB(t)
	me := createTestUser(t, d, "me")
	zoe := createTestUser(t, d, "zoe")
	adam := createTestUser(t, d, "adam")
	nora := createTestUser(t, d, "nora")

	require.NoError(t, d.UpsertOnlineStatus(zoe.ID, true, nil))
	require.NoError(t, d.UpsertOnlineStatus(adam.ID, false, nil))

	presences, err := d.ListUsersWithPresence(me.ID)
	require.NoError(t, err)
	require.Len(t, presences, 3)

	// Онлайн сверху, дальше по имени
	require.Equal(t, zoe.ID, presences[0].User.ID)
	require.True(t, presences[0].IsOnline)
	require.Equal(t, adam.ID, presences[1].User.ID)
	require.Equal(t, nora.ID, presences[2].User.ID)
}

func TestTypingMirrorLifecycle(t *testing.T) {
	d := newTestDB(t)
	alice, _, room := createPrivatePair(t, d)

	require.NoError(t, d.UpsertTyping(room.ID, alice.ID))
	// Повтор освежает, не дублирует
	require.NoError(t, d.UpsertTyping(room.ID, alice.ID))

	removed, err := d.DeleteTypingBefore(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	require.NoError(t, d.UpsertTyping(room.ID, alice.ID))
	require.NoError(t, d.DeleteTyping(room.ID, alice.ID))

	removed, err = d.DeleteTypingBefore(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, int64(0), removed)
}
