package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
)

// SubscribeEvents streams session tree events until ctx is done or the
// server closes the stream.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan pubsub.Event[proto.SessionTree], error) {
	events := make(chan pubsub.Event[proto.SessionTree], 100)
	rsp, err := c.do(ctx, http.MethodGet, "/events", nil, nil, http.Header{
		"Accept":        []string{"text/event-stream"},
		"Cache-Control": []string{"no-cache"},
		"Connection":    []string{"keep-alive"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	if rsp.StatusCode != http.StatusOK {
		rsp.Body.Close()
		return nil, fmt.Errorf("failed to subscribe to events: status code %d", rsp.StatusCode)
	}

	go func() {
		defer rsp.Body.Close()
		defer close(events)

		scr := bufio.NewReader(rsp.Body)
		for {
			line, err := scr.ReadBytes('\n')
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					slog.Error("reading from events stream", "error", err)
				}
				return
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				// End of an event
				continue
			}

			data, ok := bytes.CutPrefix(line, []byte("data:"))
			if !ok {
				slog.Warn("invalid event format", "line", string(line))
				continue
			}

			var ev pubsub.Event[proto.SessionTree]
			if err := json.Unmarshal(bytes.TrimSpace(data), &ev); err != nil {
				slog.Error("unmarshaling event", "error", err)
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// ReconstructSession asks the server to reconstruct and store one session.
func (c *Client) ReconstructSession(ctx context.Context, req proto.SessionRequest) (*proto.SessionTree, error) {
	tree, err := doJSON[proto.SessionTree](ctx, c, http.MethodPost, "/sessions", nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct session: %w", err)
	}
	return tree, nil
}

// SubmitBatch sends ungrouped records; the server groups them by session.
func (c *Client) SubmitBatch(ctx context.Context, records []proto.Record) (*proto.BatchReport, error) {
	report, err := doJSON[proto.BatchReport](ctx, c, http.MethodPost, "/batches", nil, records)
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}
	return report, nil
}

// ListSessions returns stored trees, most recently updated first. Zero
// values leave paging to the server.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) ([]proto.SessionTree, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	trees, err := doJSON[[]proto.SessionTree](ctx, c, http.MethodGet, "/sessions", query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return *trees, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*proto.SessionTree, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	tree, err := doJSON[proto.SessionTree](ctx, c, http.MethodGet, sessionPath(sessionID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return tree, nil
}

func (c *Client) GetNode(ctx context.Context, sessionID string, node int) (*proto.Node, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	path := sessionPath(sessionID) + "/nodes/" + strconv.Itoa(node)
	n, err := doJSON[proto.Node](ctx, c, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	rsp, err := c.do(ctx, http.MethodDelete, sessionPath(sessionID), nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer rsp.Body.Close()
	if err := checkResponse(rsp); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// sessionPath escapes sessionID into a single path segment.
func sessionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID)
}
