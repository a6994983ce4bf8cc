package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"campus_marketplace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	created []uint
	reads   []int64
}

func (n *recordingNotifier) MessageCreated(msg models.Message, recipients []uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, recipients...)
}

func (n *recordingNotifier) MessagesRead(conversationID, readerID uint, count int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reads = append(n.reads, count)
}

func unread(t *testing.T, f *fixture, convID, userID uint) int {
	t.Helper()
	p, ok := f.store.Participant(convID, userID)
	require.True(t, ok, "user %d is not in conversation %d", userID, convID)
	return p.UnreadCount
}

func TestCreateConversationReusesThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	f.chat.SetNotifier(notifier)
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})

	conv, msg, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "  still available?  ")
	require.NoError(t, err)
	assert.Equal(t, "still available?", msg.Text)
	assert.Equal(t, 1, unread(t, f, conv.ID, seller.ID))
	assert.Equal(t, 0, unread(t, f, conv.ID, buyer.ID))

	again, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "hello?")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, 1, f.store.ConversationCount())
	assert.Equal(t, 2, unread(t, f, conv.ID, seller.ID))
	assert.Len(t, f.store.AllMessages(conv.ID), 2)

	assert.Equal(t, []uint{seller.ID, seller.ID}, notifier.created)
}

func TestCreateConversationRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})

	_, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, _, err = f.chat.CreateConversation(ctx, buyer.ID, 404, "hi")
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, _, err = f.chat.CreateConversation(ctx, seller.ID, p.ID, "hi")
	assert.ErrorIs(t, err, ErrSelfMessage)
	assert.Zero(t, f.store.ConversationCount())
}

func TestCreateConversationRollsBack(t *testing.T) {
	f := newFixture(t)
	_, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	f.store.FailOn("Conversations.AddMessage", errors.New("write failed"))

	_, _, err := f.chat.CreateConversation(context.Background(), buyer.ID, p.ID, "hi")
	require.Error(t, err)
	assert.Zero(t, f.store.ConversationCount())
}

func TestSendMessageAndMarkAsRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	f.chat.SetNotifier(notifier)
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	stranger := f.store.AddUser(models.User{})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "hi")
	require.NoError(t, err)

	_, err = f.chat.SendMessage(ctx, conv.ID, seller.ID, "yes it is")
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, conv.ID, seller.ID, "come by tomorrow")
	require.NoError(t, err)
	assert.Equal(t, 2, unread(t, f, conv.ID, buyer.ID))

	_, err = f.chat.SendMessage(ctx, conv.ID, stranger.ID, "me too")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = f.chat.SendMessage(ctx, 999, buyer.ID, "hello")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	total, err := f.chat.UnreadCount(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	n, err := f.chat.MarkAsRead(ctx, conv.ID, buyer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 0, unread(t, f, conv.ID, buyer.ID))
	assert.Equal(t, 1, unread(t, f, conv.ID, seller.ID))

	for _, m := range f.store.AllMessages(conv.ID) {
		assert.Equal(t, m.SenderID != buyer.ID, m.IsRead, "message %d", m.ID)
	}

	n, err = f.chat.MarkAsRead(ctx, conv.ID, buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.chat.MarkAsRead(ctx, conv.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	assert.Equal(t, []int64{2, 0}, notifier.reads)
}

func TestSendMessageRollsBackUnreadOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "hi")
	require.NoError(t, err)

	f.store.FailOn("Conversations.IncrementUnread", errors.New("lock timeout"))
	_, err = f.chat.SendMessage(ctx, conv.ID, buyer.ID, "anyone?")
	require.Error(t, err)

	assert.Len(t, f.store.AllMessages(conv.ID), 1)
	assert.Equal(t, 1, unread(t, f, conv.ID, seller.ID))
}

func TestConcurrentSendMessageCountsEveryMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "hi")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.chat.SendMessage(ctx, conv.ID, buyer.ID, fmt.Sprintf("ping %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, n+1, unread(t, f, conv.ID, seller.ID))
	assert.Len(t, f.store.AllMessages(conv.ID), n+1)
}

func TestConcurrentFirstMessagesShareOneThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan uint, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, fmt.Sprintf("anyone there %d", i))
			errs <- err
			if err == nil {
				ids <- conv.ID
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	close(ids)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.store.ConversationCount())
	var convID uint
	for id := range ids {
		if convID == 0 {
			convID = id
		}
		assert.Equal(t, convID, id)
	}
	assert.Equal(t, n, unread(t, f, convID, seller.ID))
	assert.Len(t, f.store.AllMessages(convID), n)
}

func TestGetMessagesCapsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "msg 0")
	require.NoError(t, err)
	for i := 1; i < 120; i++ {
		_, err := f.chat.SendMessage(ctx, conv.ID, buyer.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	msgs, err := f.chat.GetMessages(ctx, conv.ID, buyer.ID, 500, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 100)

	msgs, err = f.chat.GetMessages(ctx, conv.ID, buyer.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}

func TestGetMessagesAndInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	stranger := f.store.AddUser(models.User{})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "first")
	require.NoError(t, err)
	_, err = f.chat.SendMessage(ctx, conv.ID, seller.ID, "second")
	require.NoError(t, err)

	msgs, err := f.chat.GetMessages(ctx, conv.ID, buyer.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)

	_, err = f.chat.GetMessages(ctx, conv.ID, stranger.ID, 10, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)

	inbox, err := f.chat.ListConversations(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, buyer.ID, inbox[0].OtherUserID)
	assert.Equal(t, "second", inbox[0].LastMessage)

	ok, err := f.chat.IsParticipant(ctx, conv.ID, stranger.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	stranger := f.store.AddUser(models.User{})
	admin := f.store.AddUser(models.User{Role: models.RoleAdmin})
	conv, _, err := f.chat.CreateConversation(ctx, buyer.ID, p.ID, "hi")
	require.NoError(t, err)

	assert.ErrorIs(t, f.chat.DeleteConversation(ctx, actor(stranger), conv.ID), ErrNotParticipant)
	require.NoError(t, f.chat.DeleteConversation(ctx, actor(admin), conv.ID))
	assert.Zero(t, f.store.ConversationCount())
	assert.ErrorIs(t, f.chat.DeleteConversation(ctx, actor(admin), conv.ID), ErrConversationNotFound)
}
