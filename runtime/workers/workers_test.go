package workers

import (
	"agora/contract"
	"agora/mocks"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	envelopes []contract.Envelope
}

func (d *recordingDeliverer) Deliver(room string, frame []byte, exceptIdentity string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.envelopes = append(d.envelopes, contract.Envelope{Room: room, Frame: frame, ExceptIdentity: exceptIdentity})
	return 1
}

type fixedRooms int

func (r fixedRooms) Rooms() int { return int(r) }

type fixedWorkers []WorkerStatus

func (w fixedWorkers) Status() []WorkerStatus { return w }

func TestClusterSubscriberWorker_Delivers_Remote_Envelopes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	cluster := mocks.NewMockClusterAdapter(ctrl)
	deliverer := &recordingDeliverer{}

	cluster.EXPECT().Mode().Return("redis")
	cluster.EXPECT().
		Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, deliver func(contract.Envelope)) error {
			deliver(contract.Envelope{Origin: "p2", Room: "conv-1", ExceptIdentity: "u1", Frame: []byte(`{"event":"typing"}`)})
			return nil
		})

	err := NewClusterSubscriberWorker(slog.Default(), cluster, deliverer).Run(context.Background())
	req.NoError(err)
	req.Len(deliverer.envelopes, 1)
	req.Equal("conv-1", deliverer.envelopes[0].Room)
	req.Equal("u1", deliverer.envelopes[0].ExceptIdentity)
	req.JSONEq(`{"event":"typing"}`, string(deliverer.envelopes[0].Frame))
}

func TestNodeStatsWorker_Samples_Registries(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	presence := mocks.NewMockPresenceRegistry(ctrl)
	presence.EXPECT().Connections().Return(3).MinTimes(1)
	presence.EXPECT().Online().Return([]string{"u1", "u2"}).MinTimes(1)

	abandoned := fixedWorkers{{Name: "ClusterSubscriberWorker", Failures: 4, GaveUp: true, LastError: "redis down"}}
	worker := NewNodeStatsWorker(slog.Default(), "p1", "local", 10*time.Millisecond, presence, fixedRooms(4), abandoned)
	req.Equal("p1", worker.Latest().Node)
	req.Zero(worker.Latest().Connections)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool { return worker.Latest().Connections == 3 }, time.Second, 5*time.Millisecond)
	stats := worker.Latest()
	req.Equal(2, stats.Online)
	req.Equal(4, stats.Rooms)
	req.Equal("local", stats.ClusterMode)
	req.Equal([]WorkerStatus(abandoned), stats.Workers)

	cancel()
	req.NoError(<-done)
}

func TestRetentionWorker(t *testing.T) {
	t.Run("should return at once on an in-memory store", func(t *testing.T) {
		req := require.New(t)
		db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
		req.NoError(err)
		defer func() { _ = db.Close() }()

		req.NoError(NewRetentionWorker(slog.Default(), db, time.Millisecond).Run(context.Background()))
	})

	t.Run("should run until canceled on a disk store", func(t *testing.T) {
		req := require.New(t)
		db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
		req.NoError(err)
		defer func() { _ = db.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		req.NoError(NewRetentionWorker(slog.Default(), db, 10*time.Millisecond).Run(ctx))
	})
}
