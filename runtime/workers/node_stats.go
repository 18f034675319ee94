package workers

import (
	"agora/contract"
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// NodeStats is the latest snapshot of this process.
type NodeStats struct {
	Node        string         `json:"node"`
	ClusterMode string         `json:"clusterMode"`
	Connections int            `json:"connections"`
	Online      int            `json:"online"`
	Rooms       int            `json:"rooms"`
	RSSBytes    uint64         `json:"rssBytes"`
	CPUPercent  float64        `json:"cpuPercent"`
	Workers     []WorkerStatus `json:"workers,omitempty"`
	At          time.Time      `json:"at"`
}

// RoomCounter reports how many rooms have a local member.
type RoomCounter interface {
	Rooms() int
}

// WorkerReporter exposes the supervised workers' state.
type WorkerReporter interface {
	Status() []WorkerStatus
}

// NodeStatsWorker samples the process and the realtime registries every interval.
type NodeStatsWorker struct {
	log      *slog.Logger
	node     string
	mode     string
	interval time.Duration
	presence contract.PresenceRegistry
	rooms    RoomCounter
	workers  WorkerReporter

	mu     sync.RWMutex
	latest NodeStats
}

func NewNodeStatsWorker(
	log *slog.Logger,
	node, mode string,
	interval time.Duration,
	presence contract.PresenceRegistry,
	rooms RoomCounter,
	workers WorkerReporter,
) *NodeStatsWorker {
	return &NodeStatsWorker{
		log:      log,
		node:     node,
		mode:     mode,
		interval: interval,
		presence: presence,
		rooms:    rooms,
		workers:  workers,
		latest:   NodeStats{Node: node, ClusterMode: mode},
	}
}

func (w *NodeStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := w.sample(p)
			w.mu.Lock()
			w.latest = stats
			w.mu.Unlock()
			w.log.Debug("Node stats",
				"connections", stats.Connections,
				"online", stats.Online,
				"rooms", stats.Rooms,
				"rss", stats.RSSBytes,
				"cpu", stats.CPUPercent)
			for _, worker := range stats.Workers {
				if worker.GaveUp {
					w.log.Warn("Supervised worker abandoned", "name", worker.Name, "failures", worker.Failures, "error", worker.LastError)
				}
			}
		}
	}
}

// Latest returns the last sample, zero counters before the first tick.
func (w *NodeStatsWorker) Latest() NodeStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

// sample keeps the registry counters when the process metrics are unavailable.
func (w *NodeStatsWorker) sample(p *process.Process) NodeStats {
	stats := NodeStats{
		Node:        w.node,
		ClusterMode: w.mode,
		Connections: w.presence.Connections(),
		Online:      len(w.presence.Online()),
		Rooms:       w.rooms.Rooms(),
		At:          time.Now().UTC(),
	}
	if w.workers != nil {
		stats.Workers = w.workers.Status()
	}
	if memInfo, err := p.MemoryInfo(); err != nil {
		w.log.Warn("Failed to collect memory stats", "error", err)
	} else {
		stats.RSSBytes = memInfo.RSS
	}
	if cpu, err := p.CPUPercent(); err != nil {
		w.log.Warn("Failed to collect cpu stats", "error", err)
	} else {
		stats.CPUPercent = cpu
	}
	return stats
}
