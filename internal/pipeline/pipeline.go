// Package pipeline reconstructs the call trees of many sessions
// concurrently, one task per session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
	"github.com/tracetree/tracetree/internal/store"
	"github.com/tracetree/tracetree/internal/trace"
	"golang.org/x/sync/errgroup"
)

// Pipeline fans reconstruction out across sessions. A single session is
// always processed sequentially.
type Pipeline struct {
	workers   int
	limits    trace.Limits
	store     store.Service
	publisher pubsub.Publisher[proto.SessionTree]
	logger    *slog.Logger
}

type Option func(*Pipeline)

// WithWorkers bounds the number of sessions processed at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLimits sets the limits sessions are checked against before
// reconstruction. Without it only foreign messages and unrepresentable
// sibling indices are rejected.
func WithLimits(limits trace.Limits) Option {
	return func(p *Pipeline) {
		p.limits = limits
	}
}

// WithStore persists every reconstructed tree.
func WithStore(s store.Service) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithPublisher announces every reconstructed tree.
func WithPublisher(pub pubsub.Publisher[proto.SessionTree]) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Failure is a session rejected by the configured limits.
type Failure struct {
	Session string `json:"session"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// Report is the outcome of one batch. Trees and Failures keep input order.
type Report struct {
	ID       string              `json:"id"`
	Trees    []proto.SessionTree `json:"trees"`
	Failures []Failure           `json:"failures,omitempty"`
}

// Proto returns the wire form of the report.
func (r *Report) Proto() proto.BatchReport {
	br := proto.BatchReport{ID: r.ID, Trees: r.Trees}
	for _, f := range r.Failures {
		br.Failures = append(br.Failures, proto.Failure{Session: f.Session, Error: f.Message})
	}
	return br
}

type outcome struct {
	tree proto.SessionTree
	err  error
}

// Run reconstructs every session of batch. Sessions failing the limit check
// are reported and skipped; storage errors and cancellation abort the batch.
func Run[M trace.Message](ctx context.Context, p *Pipeline, batch []trace.MessagesForSession[M]) (*Report, error) {
	report := &Report{ID: uuid.New().String()}
	logger := p.logger.With("batch", report.ID)
	logger.Debug("Processing batch", "sessions", len(batch), "workers", p.workers)

	outcomes := make([]outcome, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, s := range batch {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree, err := Process(gctx, p, s)
			if err != nil && !errors.Is(err, errRejected) {
				return err
			}
			outcomes[i] = outcome{tree: tree, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, o := range outcomes {
		if o.err != nil {
			report.Failures = append(report.Failures, Failure{
				Session: batch[i].Session,
				Err:     o.err,
				Message: o.err.Error(),
			})
			continue
		}
		report.Trees = append(report.Trees, o.tree)
	}
	logger.Info("Processed batch", "trees", len(report.Trees), "failures", len(report.Failures))
	return report, nil
}

var (
	// ErrEmptySession is returned for sessions without an id, which could
	// not be addressed once stored.
	ErrEmptySession = errors.New("empty session id")

	// errRejected marks limit violations, which do not abort a batch.
	errRejected = errors.New("rejected")
)

// Process checks and reconstructs a single session, then stores and
// publishes the result when configured to. A stored session that already
// existed is announced as updated.
func Process[M trace.Message](ctx context.Context, p *Pipeline, s trace.MessagesForSession[M]) (proto.SessionTree, error) {
	if s.Session == "" {
		sessionsTotal.WithLabelValues(resultRejected).Inc()
		return proto.SessionTree{}, fmt.Errorf("%w: %w", errRejected, ErrEmptySession)
	}
	if err := s.Check(p.limits); err != nil {
		sessionsTotal.WithLabelValues(resultRejected).Inc()
		p.logger.Warn("Session rejected", "session", s.Session, "error", err)
		return proto.SessionTree{}, fmt.Errorf("%w: %w", errRejected, err)
	}

	start := time.Now()
	t := s.ReconstructTree()
	reconstructDuration.Observe(time.Since(start).Seconds())

	tree := proto.NewSessionTree(s.Session, len(s.Messages), t)
	treeNodes.Observe(float64(tree.Stats.Nodes))
	treeDepth.Observe(float64(tree.Stats.Depth))

	if p.store != nil {
		saved, err := p.store.Save(ctx, tree)
		if err != nil {
			sessionsTotal.WithLabelValues(resultError).Inc()
			return proto.SessionTree{}, fmt.Errorf("save session %q: %w", s.Session, err)
		}
		tree = saved
	}
	if p.publisher != nil {
		ev := pubsub.CreatedEvent
		if tree.UpdatedAt != tree.CreatedAt {
			ev = pubsub.UpdatedEvent
		}
		p.publisher.Publish(ev, tree)
	}

	sessionsTotal.WithLabelValues(resultOK).Inc()
	p.logger.Debug("Reconstructed session", "session", s.Session, "messages", len(s.Messages), "nodes", tree.Stats.Nodes, "depth", tree.Stats.Depth)
	return tree, nil
}

// IsRejected reports whether err comes from a failed limit check.
func IsRejected(err error) bool {
	return errors.Is(err, errRejected)
}
