package workers

import (
	"agora/contract"
	"context"
	"log/slog"
)

// Deliverer writes an encoded frame to the local members of a room.
type Deliverer interface {
	Deliver(room string, frame []byte, exceptIdentity string) int
}

// ClusterSubscriberWorker hands envelopes published by other processes to the local router.
// A dropped subscription is returned as an error so the supervisor subscribes again.
type ClusterSubscriberWorker struct {
	log       *slog.Logger
	cluster   contract.ClusterAdapter
	deliverer Deliverer
}

func NewClusterSubscriberWorker(log *slog.Logger, cluster contract.ClusterAdapter, deliverer Deliverer) *ClusterSubscriberWorker {
	return &ClusterSubscriberWorker{log: log, cluster: cluster, deliverer: deliverer}
}

func (w *ClusterSubscriberWorker) Run(ctx context.Context) error {
	w.log.Info("Starting cluster subscriber", "mode", w.cluster.Mode())
	return w.cluster.Subscribe(ctx, func(env contract.Envelope) {
		delivered := w.deliverer.Deliver(env.Room, env.Frame, env.ExceptIdentity)
		w.log.Debug("Cluster envelope delivered", "origin", env.Origin, "room", env.Room, "transports", delivered)
	})
}
