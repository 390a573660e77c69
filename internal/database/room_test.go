package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nakarin/sociochat/internal/models"
)

func TestGetOrCreatePrivateRoomIdempotent(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	again, status, err := d.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExisting, status)
	require.Equal(t, room.ID, again.ID)

	// Порядок аргументов не важен
	reversed, status, err := d.GetOrCreatePrivateRoom(bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExisting, status)
	require.Equal(t, room.ID, reversed.ID)
}

func TestPrivateRoomRecreatedAfterLeave(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	require.NoError(t, d.DeactivateMembership(room.ID, alice.ID))

	fresh, status, err := d.GetOrCreatePrivateRoom(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCreated, status)
	require.NotEqual(t, room.ID, fresh.ID)
}

func TestEnsureMemberFailClosed(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)
	stranger := createTestUser(t, d, "carol")

	member, err := d.EnsureMember(room.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, member.UserID)

	_, err = d.EnsureMember(room.ID, stranger.ID)
	require.ErrorIs(t, err, ErrAccessDenied)

	// Несуществующая комната неотличима от чужой
	_, err = d.EnsureMember(uuid.New(), alice.ID)
	require.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, d.DeactivateMembership(room.ID, bob.ID))
	_, err = d.EnsureMember(room.ID, bob.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestDeactivateMembershipNonMember(t *testing.T) {
	d := newTestDB(t)
	_, _, room := createPrivatePair(t, d)
	stranger := createTestUser(t, d, "carol")

	err := d.DeactivateMembership(room.ID, stranger.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestCreateGroupRoomCreatorBecomesAdmin(t *testing.T) {
	d := newTestDB(t)
	alice := createTestUser(t, d, "alice")
	bob := createTestUser(t, d, "bob")
	carol := createTestUser(t, d, "carol")

	// Создатель в списке участников не дублируется
	room, err := d.CreateGroupRoom("team", "", alice.ID, []uuid.UUID{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)

	members, err := d.ListRoomMembers(room.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	// Админ первым, остальные по имени
	require.Equal(t, alice.ID, members[0].Member.UserID)
	require.Equal(t, models.RoleAdmin, members[0].Member.Role)
	require.Equal(t, bob.ID, members[1].Member.UserID)
	require.Equal(t, carol.ID, members[2].Member.UserID)
}

func TestListRoomsForUser(t *testing.T) {
	d := newTestDB(t)
	alice, bob, privateRoom := createPrivatePair(t, d)

	group, err := d.CreateGroupRoom("team", "", alice.ID, nil)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, _, err = d.PostMessage(privateRoom.ID, bob.ID, "hello", "", nil)
	require.NoError(t, err)

	summaries, err := d.ListRoomsForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Комната с последним сообщением сверху
	require.Equal(t, privateRoom.ID, summaries[0].Room.ID)
	require.Equal(t, group.ID, summaries[1].Room.ID)

	// Для private комнаты имя берется от собеседника
	require.Equal(t, "bob", summaries[0].DisplayName)
	require.NotNil(t, summaries[0].CounterpartID)
	require.Equal(t, bob.ID, *summaries[0].CounterpartID)
	require.Equal(t, int64(1), summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].LastMessage)
	require.Equal(t, "hello", summaries[0].LastMessage.Content)

	require.Equal(t, "team", summaries[1].DisplayName)
	require.Equal(t, int64(0), summaries[1].UnreadCount)

	require.NoError(t, d.MarkMessagesRead(privateRoom.ID, alice.ID))

	summaries, err = d.ListRoomsForUser(alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), summaries[0].UnreadCount)
}

func TestListRoomsForUserSkipsLeftRooms(t *testing.T) {
	d := newTestDB(t)
	alice, _, room := createPrivatePair(t, d)

	require.NoError(t, d.DeactivateMembership(room.ID, alice.ID))

	summaries, err := d.ListRoomsForUser(alice.ID)
	require.NoError(t, err)
	require.Empty(t, summaries)
}
