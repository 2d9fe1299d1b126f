package service

import (
	"context"
	"net/http"
	"testing"

	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.messageService()
	client := f.user(t, entity.RoleClient)
	agent := f.user(t, entity.RoleAgent)
	property := f.property(t, agent.UserID)
	ctx := context.Background()

	msg, apierr := svc.SendMessage(ctx, client, &SendMessageRequest{ReceiverID: agent.UserID, PropertyID: &property.ID, Body: "  Is the loft still available?  "})
	require.Nil(t, apierr)
	require.Equal(t, "Is the loft still available?", msg.Body)
	require.Nil(t, msg.ReadAt)

	_, apierr = svc.SendMessage(ctx, client, &SendMessageRequest{ReceiverID: client.UserID, Body: "note to self"})
	require.Equal(t, apierror.SelfMessageError, apierr)

	missing := 999
	for _, req := range []*SendMessageRequest{
		{ReceiverID: 999, Body: "hello"},
		{ReceiverID: agent.UserID, PropertyID: &missing, Body: "hello"},
	} {
		_, apierr = svc.SendMessage(ctx, client, req)
		require.NotNil(t, apierr)
		require.Equal(t, http.StatusNotFound, apierr.Code())
	}

	_, apierr = svc.SendMessage(ctx, client, &SendMessageRequest{ReceiverID: agent.UserID, Body: "   "})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())
}

func TestGetMessages(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.messageService()
	client := f.user(t, entity.RoleClient)
	agent := f.user(t, entity.RoleAgent)
	other := f.user(t, entity.RoleClient)
	ctx := context.Background()

	send := func(from, to int, body string) {
		t.Helper()
		sender := client
		switch from {
		case agent.UserID:
			sender = agent
		case other.UserID:
			sender = other
		}
		_, apierr := svc.SendMessage(ctx, sender, &SendMessageRequest{ReceiverID: to, Body: body})
		require.Nil(t, apierr)
	}
	send(client.UserID, agent.UserID, "first")
	send(agent.UserID, client.UserID, "second")
	send(other.UserID, agent.UserID, "unrelated")

	conversation, apierr := svc.GetMessages(ctx, client, &MessageQuery{With: agent.UserID})
	require.Nil(t, apierr)
	require.Len(t, conversation, 2)
	require.Equal(t, "first", conversation[0].Body)
	require.Equal(t, "second", conversation[1].Body)

	inbox, apierr := svc.GetMessages(ctx, agent, &MessageQuery{})
	require.Nil(t, apierr)
	require.Len(t, inbox, 2)
	require.Equal(t, "unrelated", inbox[0].Body)
}

func TestMarkRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := f.messageService()
	client := f.user(t, entity.RoleClient)
	agent := f.user(t, entity.RoleAgent)
	ctx := context.Background()

	msg, apierr := svc.SendMessage(ctx, client, &SendMessageRequest{ReceiverID: agent.UserID, Body: "hello"})
	require.Nil(t, apierr)

	_, apierr = svc.MarkRead(ctx, client, msg.ID)
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusNotFound, apierr.Code())

	read, apierr := svc.MarkRead(ctx, agent, msg.ID)
	require.Nil(t, apierr)
	require.NotNil(t, read.ReadAt)

	again, apierr := svc.MarkRead(ctx, agent, msg.ID)
	require.Nil(t, apierr)
	require.Equal(t, *read.ReadAt, *again.ReadAt)
}
