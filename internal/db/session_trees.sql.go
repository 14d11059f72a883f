package db

import (
	"context"
)

const countSessionTrees = `SELECT COUNT(*) FROM session_trees`

func (q *Queries) CountSessionTrees(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSessionTrees)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteSessionTree = `DELETE FROM session_trees WHERE session = ?`

// DeleteSessionTree returns the number of deleted rows.
func (q *Queries) DeleteSessionTree(ctx context.Context, session string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSessionTree, session)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSessionTree = `
SELECT session, message_count, degrees, nodes, depth, max_fan_out, created_at, updated_at
FROM session_trees
WHERE session = ? LIMIT 1
`

func (q *Queries) GetSessionTree(ctx context.Context, session string) (SessionTree, error) {
	row := q.db.QueryRowContext(ctx, getSessionTree, session)
	var i SessionTree
	err := row.Scan(
		&i.Session,
		&i.MessageCount,
		&i.Degrees,
		&i.Nodes,
		&i.Depth,
		&i.MaxFanOut,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listSessionTrees = `
SELECT session, message_count, degrees, nodes, depth, max_fan_out, created_at, updated_at
FROM session_trees
ORDER BY updated_at DESC, session ASC
LIMIT ? OFFSET ?
`

type ListSessionTreesParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListSessionTrees(ctx context.Context, arg ListSessionTreesParams) ([]SessionTree, error) {
	rows, err := q.db.QueryContext(ctx, listSessionTrees, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SessionTree{}
	for rows.Next() {
		var i SessionTree
		if err := rows.Scan(
			&i.Session,
			&i.MessageCount,
			&i.Degrees,
			&i.Nodes,
			&i.Depth,
			&i.MaxFanOut,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSessionTree = `
INSERT INTO session_trees (
    session, message_count, degrees, nodes, depth, max_fan_out, created_at, updated_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT (session) DO UPDATE SET
    message_count = excluded.message_count,
    degrees = excluded.degrees,
    nodes = excluded.nodes,
    depth = excluded.depth,
    max_fan_out = excluded.max_fan_out,
    updated_at = MAX(excluded.updated_at, session_trees.updated_at + 1)
RETURNING session, message_count, degrees, nodes, depth, max_fan_out, created_at, updated_at
`

type UpsertSessionTreeParams struct {
	Session      string `json:"session"`
	MessageCount int64  `json:"message_count"`
	Degrees      string `json:"degrees"`
	Nodes        int64  `json:"nodes"`
	Depth        int64  `json:"depth"`
	MaxFanOut    int64  `json:"max_fan_out"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func (q *Queries) UpsertSessionTree(ctx context.Context, arg UpsertSessionTreeParams) (SessionTree, error) {
	row := q.db.QueryRowContext(ctx, upsertSessionTree,
		arg.Session,
		arg.MessageCount,
		arg.Degrees,
		arg.Nodes,
		arg.Depth,
		arg.MaxFanOut,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i SessionTree
	err := row.Scan(
		&i.Session,
		&i.MessageCount,
		&i.Degrees,
		&i.Nodes,
		&i.Depth,
		&i.MaxFanOut,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
