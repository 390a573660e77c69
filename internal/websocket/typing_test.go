package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeTypingStore struct {
	upserts int
	deletes int
	purges  int
	sweeps  int
}

func (s *fakeTypingStore) UpsertTyping(roomID, userID uuid.UUID) error {
	s.upserts++
	return nil
}

func (s *fakeTypingStore) DeleteTyping(roomID, userID uuid.UUID) error {
	s.deletes++
	return nil
}

func (s *fakeTypingStore) DeleteTypingByUser(userID uuid.UUID) error {
	s.purges++
	return nil
}

func (s *fakeTypingStore) DeleteTypingBefore(cutoff time.Time) (int64, error) {
	s.sweeps++
	return 0, nil
}

func TestTypingStartStop(t *testing.T) {
	store := &fakeTypingStore{}
	tc := NewTypingCoordinator(store)
	room := uuid.New()
	user := uuid.New()

	tc.Start(room, user)
	require.ElementsMatch(t, []uuid.UUID{user}, tc.ActiveTypists(room))
	require.Equal(t, 1, store.upserts)

	tc.Stop(room, user)
	require.Empty(t, tc.ActiveTypists(room))
	require.Equal(t, 1, store.deletes)
}

func TestTypingMarkerExpires(t *testing.T) {
	tc := NewTypingCoordinator(nil)
	tc.ttl = 5 * time.Millisecond
	room := uuid.New()
	user := uuid.New()

	tc.Start(room, user)
	time.Sleep(10 * time.Millisecond)

	// Протухший маркер невидим еще до свипа
	require.Empty(t, tc.ActiveTypists(room))

	tc.Sweep()
	tc.mu.Lock()
	require.Empty(t, tc.markers)
	tc.mu.Unlock()
}

func TestTypingSweepKeepsFreshMarkers(t *testing.T) {
	tc := NewTypingCoordinator(nil)
	room := uuid.New()
	stale := uuid.New()
	fresh := uuid.New()

	tc.Start(room, fresh)
	tc.mu.Lock()
	tc.markers[room][stale] = time.Now().Add(-time.Minute)
	tc.mu.Unlock()

	tc.Sweep()

	require.ElementsMatch(t, []uuid.UUID{fresh}, tc.ActiveTypists(room))
}

func TestTypingPurgeUser(t *testing.T) {
	store := &fakeTypingStore{}
	tc := NewTypingCoordinator(store)
	roomA := uuid.New()
	roomB := uuid.New()
	user := uuid.New()
	other := uuid.New()

	tc.Start(roomA, user)
	tc.Start(roomB, user)
	tc.Start(roomA, other)

	rooms := tc.PurgeUser(user)
	require.ElementsMatch(t, []uuid.UUID{roomA, roomB}, rooms)
	require.Equal(t, 1, store.purges)

	require.ElementsMatch(t, []uuid.UUID{other}, tc.ActiveTypists(roomA))
	require.Empty(t, tc.ActiveTypists(roomB))

	// Повторная чистка ничего не находит
	require.Empty(t, tc.PurgeUser(user))
}
