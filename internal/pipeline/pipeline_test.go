package pipeline

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tracetree/tracetree/internal/db"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
	"github.com/tracetree/tracetree/internal/store"
	"github.com/tracetree/tracetree/internal/trace"
)

func batchOf(n int) []trace.MessagesForSession[proto.Record] {
	batch := make([]trace.MessagesForSession[proto.Record], n)
	for i := range n {
		id := fmt.Sprintf("s%02d", i)
		batch[i] = trace.MessagesForSession[proto.Record]{
			Session: id,
			Messages: []proto.Record{
				{SessionID: id, Timestamp: 1},
				{SessionID: id, Timestamp: 2, Trace: []uint32{uint32(i % 3)}},
				{SessionID: id, Timestamp: 3, Trace: []uint32{0, uint32(i % 2)}},
			},
		}
	}
	return batch
}

func TestRun(t *testing.T) {
	t.Parallel()

	batch := batchOf(20)
	report, err := Run(context.Background(), New(WithWorkers(4)), batch)
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)
	require.Empty(t, report.Failures)
	require.Len(t, report.Trees, len(batch))

	for i, tree := range report.Trees {
		require.Equal(t, batch[i].Session, tree.Session)
		require.Equal(t, int64(3), tree.MessageCount)
		require.Equal(t, batch[i].ReconstructTraceTree(), tree.Degrees)
	}
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	report, err := Run[proto.Record](context.Background(), New(), nil)
	require.NoError(t, err)
	require.Empty(t, report.Trees)
	require.Empty(t, report.Failures)
}

func TestRun_RejectsOverLimit(t *testing.T) {
	t.Parallel()

	batch := batchOf(3)
	batch[1].Messages = append(batch[1].Messages, proto.Record{SessionID: batch[1].Session, Trace: []uint32{0, 0, 0}})

	report, err := Run(context.Background(), New(WithLimits(trace.Limits{MaxDepth: 2})), batch)
	require.NoError(t, err)
	require.Len(t, report.Trees, 2)
	require.Len(t, report.Failures, 1)
	require.Equal(t, batch[1].Session, report.Failures[0].Session)
	require.ErrorIs(t, report.Failures[0].Err, trace.ErrTraceTooDeep)
	require.True(t, IsRejected(report.Failures[0].Err))
	require.Contains(t, report.Failures[0].Message, "maximum depth")
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, New(), batchOf(5))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_StoresAndPublishes(t *testing.T) {
	t.Parallel()

	svc := store.NewService(db.New(db.SetupTestDB(t)))
	broker := pubsub.NewBroker[proto.SessionTree]()
	defer broker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := broker.Subscribe(ctx)

	batch := batchOf(3)
	report, err := Run(ctx, New(WithStore(svc), WithPublisher(broker), WithWorkers(2)), batch)
	require.NoError(t, err)
	require.Len(t, report.Trees, 3)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	seen := map[string]bool{}
	for range batch {
		select {
		case ev := <-events:
			require.Equal(t, pubsub.CreatedEvent, ev.Type)
			require.NotZero(t, ev.Payload.UpdatedAt)
			seen[ev.Payload.Session] = true
		case <-ctx.Done():
			t.Fatal("timed out waiting for events")
		}
	}
	require.Len(t, seen, 3)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	s := trace.MessagesForSession[proto.Record]{
		Session:  "s1",
		Messages: []proto.Record{{SessionID: "s1", Trace: []uint32{1, 0}}},
	}
	tree, err := Process(context.Background(), New(), s)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 0, 1, 0}, tree.Degrees)
	require.Equal(t, 2, tree.Stats.Depth)

	s.Messages[0].SessionID = "other"
	_, err = Process(context.Background(), New(), s)
	require.ErrorIs(t, err, trace.ErrSessionMismatch)
	require.True(t, IsRejected(err))
}

func TestReport_Proto(t *testing.T) {
	t.Parallel()

	batch := batchOf(2)
	batch[0].Messages[0].SessionID = "intruder"

	report, err := Run(context.Background(), New(), batch)
	require.NoError(t, err)

	br := report.Proto()
	require.Equal(t, report.ID, br.ID)
	require.Len(t, br.Trees, 1)
	require.Equal(t, "s01", br.Trees[0].Session)
	require.Len(t, br.Failures, 1)
	require.Equal(t, "s00", br.Failures[0].Session)
	require.Contains(t, br.Failures[0].Error, "another session")
}

func TestProcess_UnrepresentableIndex(t *testing.T) {
	t.Parallel()

	s := trace.MessagesForSession[proto.Record]{
		Session:  "s1",
		Messages: []proto.Record{{SessionID: "s1", Trace: []uint32{math.MaxUint32}}},
	}
	_, err := Process(context.Background(), New(), s)
	require.ErrorIs(t, err, trace.ErrFanOutExceeded)
	require.True(t, IsRejected(err))
}

func TestRun_UnrepresentableIndexIsReported(t *testing.T) {
	t.Parallel()

	batch := batchOf(2)
	batch[0].Messages = append(batch[0].Messages, proto.Record{
		SessionID: batch[0].Session,
		Trace:     []uint32{math.MaxUint32, 0},
	})

	report, err := Run(context.Background(), New(WithWorkers(2)), batch)
	require.NoError(t, err)
	require.Len(t, report.Trees, 1)
	require.Len(t, report.Failures, 1)
	require.Equal(t, batch[0].Session, report.Failures[0].Session)
	require.ErrorIs(t, report.Failures[0].Err, trace.ErrFanOutExceeded)
}

func TestRun_DefaultLimitsRejectHugeFanOut(t *testing.T) {
	t.Parallel()

	batch := []trace.MessagesForSession[proto.Record]{{
		Session:  "wide",
		Messages: []proto.Record{{SessionID: "wide", Trace: []uint32{4_000_000_000}}},
	}}
	report, err := Run(context.Background(), New(WithLimits(trace.DefaultLimits())), batch)
	require.NoError(t, err)
	require.Empty(t, report.Trees)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0].Err, trace.ErrFanOutExceeded)
}

func TestProcess_ResubmitPublishesUpdate(t *testing.T) {
	t.Parallel()

	svc := store.NewService(db.New(db.SetupTestDB(t)))
	broker := pubsub.NewBroker[proto.SessionTree]()
	defer broker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := broker.Subscribe(ctx)

	p := New(WithStore(svc), WithPublisher(broker))
	s := batchOf(1)[0]
	for _, want := range []pubsub.EventType{pubsub.CreatedEvent, pubsub.UpdatedEvent} {
		_, err := Process(ctx, p, s)
		require.NoError(t, err)
		select {
		case ev := <-events:
			require.Equal(t, want, ev.Type)
			require.Equal(t, s.Session, ev.Payload.Session)
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestProcess_EmptySession(t *testing.T) {
	t.Parallel()

	s := trace.MessagesForSession[proto.Record]{Messages: []proto.Record{{Trace: []uint32{0}}}}
	_, err := Process(context.Background(), New(), s)
	require.ErrorIs(t, err, ErrEmptySession)
	require.True(t, IsRejected(err))
}
