package runtime

import (
	"agora/contract"
	"agora/domain/event"
	"agora/errors"
	"agora/mocks"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRouter_Publish_Reaches_Room_Members_Only(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default(), nil)
	alice := newFakeTransport("alice")
	bob := newFakeTransport("bob")
	carol := newFakeTransport("carol")

	// Given Alice and Bob in the conversation room, Carol elsewhere
	router.Join("conv-1", alice)
	router.Join("conv-1", bob)
	router.Join("conv-2", carol)

	// When a message is published to the room
	err := router.Publish(context.Background(), "conv-1", event.MessageDeleted{ConversationID: "conv-1", MessageID: "m1"})
	req.NoError(err)

	// Then only room members got it
	req.Equal([]string{event.NameMessageDeleted}, alice.events(t))
	req.Equal([]string{event.NameMessageDeleted}, bob.events(t))
	req.Empty(carol.events(t))
}

func TestRouter_Publish_Except_Identity(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default(), nil)
	alicePhone := newFakeTransport("alice")
	aliceLaptop := newFakeTransport("alice")
	bob := newFakeTransport("bob")
	for _, tr := range []*fakeTransport{alicePhone, aliceLaptop, bob} {
		router.Join("conv-1", tr)
	}

	err := router.Publish(context.Background(), "conv-1",
		event.Typing{ConversationID: "conv-1", UserID: "alice", IsTyping: true},
		contract.ExceptIdentity("alice"))
	req.NoError(err)

	req.Empty(alicePhone.events(t))
	req.Empty(aliceLaptop.events(t))
	req.Equal([]string{event.NameTyping}, bob.events(t))
}

func TestRouter_Leave_And_LeaveAll(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default(), nil)
	alice := newFakeTransport("alice")

	router.Join("conv-1", alice)
	router.Join("conv-2", alice)
	req.True(router.IsMember("conv-1", alice))
	req.Equal(2, router.Rooms())

	router.Leave("conv-1", alice)
	req.False(router.IsMember("conv-1", alice))
	req.True(router.IsMember("conv-2", alice))

	router.LeaveAll(alice)
	req.False(router.IsMember("conv-2", alice))
	req.Zero(router.Rooms())
	req.Zero(router.Deliver("conv-2", []byte(`{}`), ""))
}

func TestRouter_Publish_Forwards_To_Cluster(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cluster := mocks.NewMockClusterAdapter(ctrl)
	router := NewRouter(slog.Default(), cluster)
	bob := newFakeTransport("bob")
	router.Join("user:bob", bob)

	cluster.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, env contract.Envelope) error {
			req.Equal("user:bob", env.Room)
			req.Equal("alice", env.ExceptIdentity)
			var frame event.Frame
			req.NoError(json.Unmarshal(env.Frame, &frame))
			req.Equal(event.NameUserOnline, frame.Event)
			return nil
		})

	err := router.Publish(context.Background(), "user:bob", event.UserOnline{UserID: "alice"}, contract.ExceptIdentity("alice"))
	req.NoError(err)
	req.Len(bob.events(t), 1)
}

func TestRouter_Publish_Broker_Failure_Is_Transient_But_Local_Delivery_Happens(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cluster := mocks.NewMockClusterAdapter(ctrl)
	router := NewRouter(slog.Default(), cluster)
	bob := newFakeTransport("bob")
	router.Join("conv-1", bob)

	cluster.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(fmt.Errorf("connection refused"))

	err := router.Publish(context.Background(), "conv-1", event.MessageDeleted{ConversationID: "conv-1", MessageID: "m1"})
	req.ErrorIs(err, errors.ErrTransient)
	req.Len(bob.events(t), 1)
}
