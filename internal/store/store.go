package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tracetree/tracetree/internal/db"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/trace"
)

var ErrNotFound = errors.New("session tree not found")

type ListParams struct {
	Limit  int
	Offset int
}

const defaultListLimit = 100

type Service interface {
	Save(ctx context.Context, tree proto.SessionTree) (proto.SessionTree, error)
	Get(ctx context.Context, session string) (proto.SessionTree, error)
	List(ctx context.Context, params ListParams) ([]proto.SessionTree, error)
	Delete(ctx context.Context, session string) error
	Count(ctx context.Context) (int64, error)
}

type service struct {
	q db.Querier
}

func NewService(q db.Querier) Service {
	return &service{q: q}
}

func (s *service) Save(ctx context.Context, tree proto.SessionTree) (proto.SessionTree, error) {
	degrees, err := json.Marshal(tree.Degrees)
	if err != nil {
		return proto.SessionTree{}, fmt.Errorf("encode degrees: %w", err)
	}

	now := time.Now().UnixMilli()
	dbTree, err := s.q.UpsertSessionTree(ctx, db.UpsertSessionTreeParams{
		Session:      tree.Session,
		MessageCount: tree.MessageCount,
		Degrees:      string(degrees),
		Nodes:        int64(tree.Stats.Nodes),
		Depth:        int64(tree.Stats.Depth),
		MaxFanOut:    int64(tree.Stats.MaxFanOut),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return proto.SessionTree{}, err
	}
	return s.fromDBItem(dbTree)
}

func (s *service) Get(ctx context.Context, session string) (proto.SessionTree, error) {
	dbTree, err := s.q.GetSessionTree(ctx, session)
	if errors.Is(err, sql.ErrNoRows) {
		return proto.SessionTree{}, fmt.Errorf("%w: %q", ErrNotFound, session)
	}
	if err != nil {
		return proto.SessionTree{}, err
	}
	return s.fromDBItem(dbTree)
}

func (s *service) List(ctx context.Context, params ListParams) ([]proto.SessionTree, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	dbTrees, err := s.q.ListSessionTrees(ctx, db.ListSessionTreesParams{
		Limit:  int64(limit),
		Offset: int64(max(params.Offset, 0)),
	})
	if err != nil {
		return nil, err
	}

	trees := make([]proto.SessionTree, len(dbTrees))
	for i, dbTree := range dbTrees {
		if trees[i], err = s.fromDBItem(dbTree); err != nil {
			return nil, err
		}
	}
	return trees, nil
}

func (s *service) Delete(ctx context.Context, session string) error {
	n, err := s.q.DeleteSessionTree(ctx, session)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, session)
	}
	return nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.q.CountSessionTrees(ctx)
}

func (s *service) fromDBItem(dbTree db.SessionTree) (proto.SessionTree, error) {
	var degrees []trace.Degree
	if err := json.Unmarshal([]byte(dbTree.Degrees), &degrees); err != nil {
		return proto.SessionTree{}, fmt.Errorf("decode degrees of %q: %w", dbTree.Session, err)
	}
	t, err := trace.TreeFromDegrees(degrees)
	if err != nil {
		return proto.SessionTree{}, fmt.Errorf("session %q: %w", dbTree.Session, err)
	}

	tree := proto.NewSessionTree(dbTree.Session, int(dbTree.MessageCount), t)
	tree.CreatedAt = dbTree.CreatedAt
	tree.UpdatedAt = dbTree.UpdatedAt
	return tree, nil
}
