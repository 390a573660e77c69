package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nakarin/sociochat/internal/models"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return NewClient(hub, nil, &models.User{ID: userID, Name: "tester"})
}

func tryRecv(c *Client) []byte {
	select {
	case msg := <-c.Send:
		return msg
	default:
		return nil
	}
}

func TestRegisterCountsConnections(t *testing.T) {
	hub := NewHub()
	user := uuid.New()

	tab1 := newTestClient(hub, user)
	tab2 := newTestClient(hub, user)

	require.True(t, hub.Register(tab1))
	require.False(t, hub.Register(tab2))
	require.Equal(t, 2, hub.ConnectionCount(user))

	require.False(t, hub.Unregister(tab1))
	require.True(t, hub.Unregister(tab2))
	require.Equal(t, 0, hub.ConnectionCount(user))

	// Повторный unregister безвреден
	require.False(t, hub.Unregister(tab2))
}

func TestUnregisterClearsSubscriptions(t *testing.T) {
	hub := NewHub()
	room := uuid.New()
	client := newTestClient(hub, uuid.New())

	hub.Register(client)
	hub.Subscribe(client, room)
	require.True(t, client.IsInRoom(room))
	require.ElementsMatch(t, []uuid.UUID{client.UserID}, hub.GetRoomUsers(room))

	hub.Unregister(client)
	require.Empty(t, hub.GetRoomUsers(room))
	require.False(t, client.IsInRoom(room))

	// Канал закрыт hub-ом
	_, ok := <-client.Send
	require.False(t, ok)
}

func TestSendToRoomExcept(t *testing.T) {
	hub := NewHub()
	room := uuid.New()

	sender := newTestClient(hub, uuid.New())
	member := newTestClient(hub, uuid.New())
	outsider := newTestClient(hub, uuid.New())

	for _, c := range []*Client{sender, member, outsider} {
		hub.Register(c)
	}
	hub.Subscribe(sender, room)
	hub.Subscribe(member, room)

	payload := []byte(`{"event":"new_message"}`)
	hub.SendToRoomExcept(room, payload, sender.ID)

	require.Nil(t, tryRecv(sender))
	require.Equal(t, payload, tryRecv(member))
	require.Nil(t, tryRecv(outsider))

	hub.SendToRoom(room, payload)
	require.Equal(t, payload, tryRecv(sender))
	require.Equal(t, payload, tryRecv(member))
}

func TestSendToUserReachesAllTabs(t *testing.T) {
	hub := NewHub()
	user := uuid.New()

	tab1 := newTestClient(hub, user)
	tab2 := newTestClient(hub, user)
	other := newTestClient(hub, uuid.New())

	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	payload := []byte(`{"event":"user_rooms"}`)
	hub.SendToUser(user, payload)

	require.Equal(t, payload, tryRecv(tab1))
	require.Equal(t, payload, tryRecv(tab2))
	require.Nil(t, tryRecv(other))
}

func TestBroadcastExcept(t *testing.T) {
	hub := NewHub()

	origin := newTestClient(hub, uuid.New())
	other := newTestClient(hub, uuid.New())

	hub.Register(origin)
	hub.Register(other)

	payload := []byte(`{"event":"user_online"}`)
	hub.BroadcastExcept(payload, origin.ID)

	require.Nil(t, tryRecv(origin))
	require.Equal(t, payload, tryRecv(other))
}

func TestSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	room := uuid.New()
	client := newTestClient(hub, uuid.New())

	hub.Register(client)
	hub.Subscribe(client, room)
	hub.Unsubscribe(client, room)

	require.False(t, client.IsInRoom(room))
	require.Empty(t, hub.GetRoomUsers(room))

	hub.SendToRoom(room, []byte("x"))
	require.Nil(t, tryRecv(client))
}
