package db

import (
	"context"
)

type Querier interface {
	CountSessionTrees(ctx context.Context) (int64, error)
	DeleteSessionTree(ctx context.Context, session string) (int64, error)
	GetSessionTree(ctx context.Context, session string) (SessionTree, error)
	ListSessionTrees(ctx context.Context, arg ListSessionTreesParams) ([]SessionTree, error)
	UpsertSessionTree(ctx context.Context, arg UpsertSessionTreeParams) (SessionTree, error)
}

var _ Querier = (*Queries)(nil)
