package service

import (
	"context"
	"mime/multipart"
	"testing"

	"novus-backend/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newChatFixture() (*memUsers, *memChats, *ChatService) {
	users, chats := newMemUsers(), newMemChats()
	return users, chats, NewChatService(chats, users, NewMediaUploader(&memStorage{}, nil))
}

func TestCreateChat_DirectChatIsReused(t *testing.T) {
	users, chats, svc := newChatFixture()
	ctx := context.Background()
	alice, bob := users.add("alice"), users.add("bob")

	first, created, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{UserIDs: []primitive.ObjectID{bob.ID, alice.ID, bob.ID}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, first.Chat.Users, 2)
	require.NotNil(t, first.OtherUser)
	assert.Equal(t, bob.ID, first.OtherUser.ID)

	second, created, err := svc.CreateChat(ctx, bob.ID, CreateChatInput{UserIDs: []primitive.ObjectID{alice.ID}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Chat.ID, second.Chat.ID)
	assert.Equal(t, alice.ID, second.OtherUser.ID)
	assert.Equal(t, 1, chats.size())
}

func TestCreateChat_Group(t *testing.T) {
	users, _, svc := newChatFixture()
	ctx := context.Background()
	alice, bob, carol := users.add("alice"), users.add("bob"), users.add("carol")

	view, created, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{
		UserIDs:     []primitive.ObjectID{bob.ID, carol.ID},
		IsGroupChat: true,
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Group Chat", view.Chat.Name)
	require.NotNil(t, view.Chat.Admin)
	assert.Equal(t, alice.ID, *view.Chat.Admin)
	assert.Len(t, view.Users, 3)
}

func TestCreateChat_Validation(t *testing.T) {
	users, _, svc := newChatFixture()
	ctx := context.Background()
	alice := users.add("alice")

	_, _, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{})
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))

	_, _, err = svc.CreateChat(ctx, alice.ID, CreateChatInput{UserIDs: []primitive.ObjectID{primitive.NewObjectID()}})
	assert.Equal(t, errors.ErrUserNotFound, errors.CodeOf(err))
}

func TestSendMessage(t *testing.T) {
	users, _, svc := newChatFixture()
	ctx := context.Background()
	alice, bob, eve := users.add("alice"), users.add("bob"), users.add("eve")
	view, _, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{UserIDs: []primitive.ObjectID{bob.ID}})
	require.NoError(t, err)
	chatID := view.Chat.ID

	msg, err := svc.SendMessage(ctx, alice.ID, SendMessageInput{
		ChatID:  chatID,
		Content: " hello bob ",
		Files:   []*multipart.FileHeader{mediaFile("pic.png", "image/png")},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello bob", msg.Content)
	assert.Len(t, msg.Media, 1)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, msg.SeenBy)
	assert.Equal(t, "Alice", msg.Sender.FullName)

	_, err = svc.SendMessage(ctx, eve.ID, SendMessageInput{ChatID: chatID, Content: "intruder"})
	assert.Equal(t, errors.ErrForbidden, errors.CodeOf(err))

	_, err = svc.SendMessage(ctx, alice.ID, SendMessageInput{ChatID: chatID, Content: "  "})
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))

	_, err = svc.SendMessage(ctx, alice.ID, SendMessageInput{ChatID: primitive.NewObjectID(), Content: "hi"})
	assert.Equal(t, errors.ErrChatNotFound, errors.CodeOf(err))

	list, err := svc.GetUserChats(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, msg.ID, list[0].LastMessage.ID)
	assert.Equal(t, alice.ID, list[0].OtherUser.ID)
}

func TestGetMessagesAndMarkSeen(t *testing.T) {
	users, _, svc := newChatFixture()
	ctx := context.Background()
	alice, bob, eve := users.add("alice"), users.add("bob"), users.add("eve")
	view, _, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{UserIDs: []primitive.ObjectID{bob.ID}})
	require.NoError(t, err)
	chatID := view.Chat.ID
	for _, text := range []string{"one", "two"} {
		_, err := svc.SendMessage(ctx, alice.ID, SendMessageInput{ChatID: chatID, Content: text})
		require.NoError(t, err)
	}

	messages, err := svc.GetMessages(ctx, bob.ID, chatID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "Alice", messages[1].Sender.FullName)

	_, err = svc.GetMessages(ctx, eve.ID, chatID)
	assert.Equal(t, errors.ErrForbidden, errors.CodeOf(err))

	n, err := svc.MarkSeen(ctx, bob.ID, chatID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = svc.MarkSeen(ctx, bob.ID, chatID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDeleteChat(t *testing.T) {
	users, chats, svc := newChatFixture()
	ctx := context.Background()
	alice, bob, carol := users.add("alice"), users.add("bob"), users.add("carol")

	group, _, err := svc.CreateChat(ctx, alice.ID, CreateChatInput{UserIDs: []primitive.ObjectID{bob.ID, carol.ID}, IsGroupChat: true, Name: "Trip"})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, bob.ID, SendMessageInput{ChatID: group.Chat.ID, Content: "hi all"})
	require.NoError(t, err)

	_, err = svc.DeleteChat(ctx, bob.ID, group.Chat.ID)
	assert.Equal(t, errors.ErrForbidden, errors.CodeOf(err))

	deleted, err := svc.DeleteChat(ctx, alice.ID, group.Chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{alice.ID, bob.ID, carol.ID}, deleted.Users)
	assert.Zero(t, chats.size())
	assert.Zero(t, chats.MessageCount())

	_, err = svc.GetChat(ctx, alice.ID, group.Chat.ID)
	assert.Equal(t, errors.ErrChatNotFound, errors.CodeOf(err))
}
