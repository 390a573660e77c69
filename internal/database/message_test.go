package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nakarin/sociochat/internal/models"
)

func TestPostMessageValidation(t *testing.T) {
	d := newTestDB(t)
	alice, _, room := createPrivatePair(t, d)
	stranger := createTestUser(t, d, "carol")

	_, _, err := d.PostMessage(room.ID, alice.ID, "", "", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, _, err = d.PostMessage(room.ID, alice.ID, "   \n\t", "", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, _, err = d.PostMessage(room.ID, stranger.ID, "hi", "", nil)
	require.ErrorIs(t, err, ErrAccessDenied)

	msg, preview, err := d.PostMessage(room.ID, alice.ID, "  hello  ", "", nil)
	require.NoError(t, err)
	require.Nil(t, preview)
	require.Equal(t, "hello", msg.Content)
	require.Equal(t, models.MessageTypeText, msg.MessageType)
	require.Equal(t, "alice", msg.Sender.Name)
}

func TestPostMessageReply(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	original, _, err := d.PostMessage(room.ID, alice.ID, "original", "", nil)
	require.NoError(t, err)

	reply, preview, err := d.PostMessage(room.ID, bob.ID, "reply", "", &original.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	require.Equal(t, original.ID, *reply.ReplyTo)
	require.NotNil(t, preview)
	require.Equal(t, "original", preview.Content)
	require.Equal(t, "alice", preview.SenderName)
}

func TestPostMessageReplyToForeignRoomDropped(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	other, err := d.CreateGroupRoom("team", "", alice.ID, []uuid.UUID{bob.ID})
	require.NoError(t, err)

	foreign, _, err := d.PostMessage(other.ID, alice.ID, "elsewhere", "", nil)
	require.NoError(t, err)

	// Ответ на сообщение из другой комнаты молча обнуляется
	msg, preview, err := d.PostMessage(room.ID, bob.ID, "reply", "", &foreign.ID)
	require.NoError(t, err)
	require.Nil(t, msg.ReplyTo)
	require.Nil(t, preview)

	// Как и ответ на несуществующее сообщение
	dangling := uuid.New()
	msg, preview, err = d.PostMessage(room.ID, bob.ID, "reply", "", &dangling)
	require.NoError(t, err)
	require.Nil(t, msg.ReplyTo)
	require.Nil(t, preview)
}

func TestGetRoomMessagesPagination(t *testing.T) {
	d := newTestDB(t)
	alice, _, room := createPrivatePair(t, d)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, c := range contents {
		_, _, err := d.PostMessage(room.ID, alice.ID, c, "", nil)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	// Первая страница: свежайшие, но в хронологическом порядке
	page, _, err := d.GetRoomMessages(room.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "four", page[0].Content)
	require.Equal(t, "five", page[1].Content)

	page, _, err = d.GetRoomMessages(room.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "two", page[0].Content)
	require.Equal(t, "three", page[1].Content)
}

func TestGetRoomMessagesExcludesDeleted(t *testing.T) {
	d := newTestDB(t)
	alice, _, room := createPrivatePair(t, d)

	keep, _, err := d.PostMessage(room.ID, alice.ID, "keep", "", nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	gone, _, err := d.PostMessage(room.ID, alice.ID, "gone", "", nil)
	require.NoError(t, err)

	require.NoError(t, d.SoftDeleteMessage(gone.ID, alice.ID))

	messages, _, err := d.GetRoomMessages(room.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, keep.ID, messages[0].ID)
}

func TestMarkMessagesReadAndUnreadCount(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	_, _, err := d.PostMessage(room.ID, bob.ID, "first", "", nil)
	require.NoError(t, err)
	_, _, err = d.PostMessage(room.ID, bob.ID, "second", "", nil)
	require.NoError(t, err)
	// Собственные сообщения в непрочитанные не попадают
	_, _, err = d.PostMessage(room.ID, alice.ID, "mine", "", nil)
	require.NoError(t, err)

	count, err := d.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.NoError(t, d.MarkMessagesRead(room.ID, alice.ID))

	count, err = d.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	// Повторный вызов безвреден
	require.NoError(t, d.MarkMessagesRead(room.ID, alice.ID))

	_, _, err = d.PostMessage(room.ID, bob.ID, "third", "", nil)
	require.NoError(t, err)

	count, err = d.UnreadCount(room.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestEditMessageAuthorOnly(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	msg, _, err := d.PostMessage(room.ID, alice.ID, "before", "", nil)
	require.NoError(t, err)

	_, err = d.EditMessage(msg.ID, bob.ID, "hijacked")
	require.ErrorIs(t, err, ErrAccessDenied)

	edited, err := d.EditMessage(msg.ID, alice.ID, "after")
	require.NoError(t, err)
	require.Equal(t, "after", edited.Content)
	require.True(t, edited.IsEdited)
}

func TestSoftDeleteMessageAuthorOnly(t *testing.T) {
	d := newTestDB(t)
	alice, bob, room := createPrivatePair(t, d)

	msg, _, err := d.PostMessage(room.ID, alice.ID, "secret", "", nil)
	require.NoError(t, err)

	require.ErrorIs(t, d.SoftDeleteMessage(msg.ID, bob.ID), ErrAccessDenied)
	require.NoError(t, d.SoftDeleteMessage(msg.ID, alice.ID))

	// Строка остается, цепочки ответов не рвутся
	raw, err := d.GetMessage(msg.ID.String())
	require.NoError(t, err)
	require.True(t, raw.IsDeleted)
}
