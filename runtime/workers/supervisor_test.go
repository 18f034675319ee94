package workers

import (
	"agora/mocks"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(ctx)
		close(done)
	}()

	req.Eventually(func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSupervisor_RestartOnError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker failing once, then finishing
	gomock.InOrder(
		workerMock.EXPECT().Run(gomock.Any()).Return(fmt.Errorf("subscription dropped")),
		workerMock.EXPECT().Run(gomock.Any()).Return(nil),
	)

	done := make(chan struct{})
	go func() {
		NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond).Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped after the second run")
	}
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	done := make(chan struct{})
	go func() {
		NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 0).Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then supervisor detected a success and stopped
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})

	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		})

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()
	<-started
	sup.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped")
	}
}

func TestSupervisor_Abandons_Worker_Over_Budget(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker that always fails and a budget of two restarts
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(fmt.Errorf("subscription dropped")).
		Times(3)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), time.Millisecond).
		WithBackoff(4 * time.Millisecond).
		WithRestartBudget(2)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	// Then the supervisor gives up after the third failure and reports it
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor should have abandoned the worker")
	}
	statuses := sup.Status()
	req.Len(statuses, 1)
	req.Equal(WorkerStatus{Name: "MockWorker", Failures: 3, LastError: "subscription dropped", GaveUp: true}, statuses[0])
}

func TestSupervisor_Backoff(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 100*time.Millisecond).WithBackoff(time.Second)

	req.Equal(100*time.Millisecond, sup.backoff(1))
	req.Equal(200*time.Millisecond, sup.backoff(2))
	req.Equal(800*time.Millisecond, sup.backoff(4))
	req.Equal(time.Second, sup.backoff(5))
	req.Equal(time.Second, sup.backoff(50))

	// A cap below the interval never shortens the first delay
	req.Equal(100*time.Millisecond, NewSupervisor(slog.Default(), 100*time.Millisecond).WithBackoff(time.Millisecond).backoff(3))
}

func TestSupervisor_Status_Tracks_Running_Workers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})

	gomock.InOrder(
		workerMock.EXPECT().Run(gomock.Any()).Return(fmt.Errorf("broker unreachable")),
		workerMock.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		}),
	)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), time.Millisecond)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()
	<-started

	// The restarted worker is running and remembers the earlier failure
	req.Eventually(func() bool { return sup.Status()[0].Running }, time.Second, time.Millisecond)
	status := sup.Status()[0]
	req.Equal(1, status.Failures)
	req.Equal("broker unreachable", status.LastError)
	req.False(status.GaveUp)

	sup.Stop()
	<-done
	req.False(sup.Status()[0].Running)
}
