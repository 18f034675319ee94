package e2e

import (
	"agora/domain"
	"agora/domain/event"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type conversationSuite struct {
	BaseSuite
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, &conversationSuite{})
}

func (s *conversationSuite) TestHealth() {
	conn := s.GrpcConn("Health check")
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	s.Require().NoError(err)
	s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func (s *conversationSuite) TestDirectConversationFlow() {
	suffix := uuid.NewString()[:8]
	alice, bob := "alice-"+suffix, "bob-"+suffix

	s.Run("Step 0: Provision identities", func() {
		s.header("Provision identities")
		for _, id := range []string{alice, bob} {
			status := s.Rest(http.MethodPut, "/internal/identities/"+id, "",
				map[string]string{"handle": id, "displayName": id}, nil)
			s.Require().Equal(http.StatusNoContent, status)
		}
	})

	aliceSocket := s.Dial(alice)
	bobSocket := s.Dial(bob)
	var conversation domain.Conversation

	s.Run("Step 1: Create the direct conversation", func() {
		s.header("Create conversation")
		status := s.Rest(http.MethodPost, "/v1/conversations", alice,
			map[string]any{"memberIds": []string{bob}}, &conversation)
		s.Require().Equal(http.StatusCreated, status)

		var created event.ConversationCreated
		bobSocket.Expect(event.NameConversationCreated, &created)
		s.Require().Equal(conversation.ID, created.Conversation.ID)

		again := domain.Conversation{}
		s.Require().Equal(http.StatusCreated, s.Rest(http.MethodPost, "/v1/conversations", bob,
			map[string]any{"memberIds": []string{alice}}, &again))
		s.Require().Equal(conversation.ID, again.ID)
	})

	s.Run("Step 2: Exchange a message in the room", func() {
		s.header("Send message")
		aliceSocket.Send(event.InJoinRoom, event.JoinRoom{Room: conversation.ID})
		aliceSocket.Expect(event.NameRoomJoined, nil)
		bobSocket.Send(event.InJoinRoom, event.JoinRoom{Room: conversation.ID})
		bobSocket.Expect(event.NameRoomJoined, nil)

		status := s.Rest(http.MethodPost, "/v1/conversations/"+conversation.ID+"/messages", alice,
			map[string]string{"content": "hello @" + bob}, nil)
		s.Require().Equal(http.StatusCreated, status)

		var received event.MessageReceived
		bobSocket.Expect(event.NameMessageReceived, &received)
		s.Require().Equal("hello @"+bob, received.Message.Content)
	})

	s.Run("Step 3: Read receipts and unread notifications", func() {
		s.header("Read receipts")
		var marked struct {
			MessageIDs []string `json:"messageIds"`
		}
		s.Require().Equal(http.StatusOK, s.Rest(http.MethodPost, "/v1/conversations/"+conversation.ID+"/read", bob, nil, &marked))
		s.Require().NotEmpty(marked.MessageIDs)
		aliceSocket.Expect(event.NameMessageRead, nil)

		var count struct {
			Count int `json:"count"`
		}
		s.Require().Equal(http.StatusOK, s.Rest(http.MethodGet, "/v1/notifications/unread-count", bob, nil, &count))
		s.Require().GreaterOrEqual(count.Count, 1)
	})
}
