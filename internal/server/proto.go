package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"

	"github.com/tracetree/tracetree/internal/ingest"
	"github.com/tracetree/tracetree/internal/pipeline"
	"github.com/tracetree/tracetree/internal/proto"
	"github.com/tracetree/tracetree/internal/pubsub"
	"github.com/tracetree/tracetree/internal/store"
	"github.com/tracetree/tracetree/internal/version"
)

const codeRejected = "rejected"

type controllerV1 struct {
	*Server
}

func (c *controllerV1) handleGetHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (c *controllerV1) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	jsonEncode(w, proto.VersionInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		StartedAt: c.startedAt.UnixMilli(),
	})
}

func (c *controllerV1) handlePostControl(w http.ResponseWriter, r *http.Request) {
	var req proto.ServerControl
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logError(r, "failed to decode request", "error", err)
		jsonError(w, http.StatusBadRequest, "failed to decode request")
		return
	}

	switch req.Command {
	case proto.ControlShutdown:
		go func() {
			slog.Info("shutting down server...")
			if err := c.Shutdown(context.Background()); err != nil {
				c.logError(r, "failed to shutdown server", "error", err)
			}
		}()
	default:
		c.logError(r, "unknown command", "command", req.Command)
		jsonError(w, http.StatusBadRequest, "unknown command")
		return
	}
}

func (c *controllerV1) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	jsonEncode(w, c.cfg)
}

func (c *controllerV1) handlePostSessions(w http.ResponseWriter, r *http.Request) {
	var req proto.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logError(r, "failed to decode request", "error", err)
		jsonError(w, http.StatusBadRequest, "failed to decode request")
		return
	}

	tree, err := pipeline.Process(r.Context(), c.pipeline, req.Batch())
	if pipeline.IsRejected(err) {
		c.logDebug(r, "session rejected", "session", req.Session, "error", err)
		jsonErrorCode(w, http.StatusUnprocessableEntity, codeRejected, err.Error())
		return
	}
	if err != nil {
		c.logError(r, "failed to reconstruct session", "error", err, "session", req.Session)
		jsonError(w, http.StatusInternalServerError, "failed to reconstruct session")
		return
	}

	jsonEncode(w, tree)
}

func (c *controllerV1) handlePostBatches(w http.ResponseWriter, r *http.Request) {
	var records []proto.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		c.logError(r, "failed to decode request", "error", err)
		jsonError(w, http.StatusBadRequest, "failed to decode request")
		return
	}

	batch := ingest.BySession[proto.Record]{}.Group(records)
	report, err := pipeline.Run(r.Context(), c.pipeline, batch)
	if err != nil {
		c.logError(r, "failed to process batch", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to process batch")
		return
	}

	jsonEncode(w, report.Proto())
}

func (c *controllerV1) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	var params store.ListParams
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &params.Limit, "offset": &params.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
			return
		}
		*dst = n
	}

	trees, err := c.store.List(r.Context(), params)
	if err != nil {
		c.logError(r, "failed to list sessions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	jsonEncode(w, trees)
}

func (c *controllerV1) handleGetSession(w http.ResponseWriter, r *http.Request) {
	tree, ok := c.getTree(w, r)
	if !ok {
		return
	}
	jsonEncode(w, tree)
}

func (c *controllerV1) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	tree, ok := c.getTree(w, r)
	if !ok {
		return
	}

	if err := c.store.Delete(r.Context(), sid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "session not found")
			return
		}
		c.logError(r, "failed to delete session", "error", err, "sid", sid)
		jsonError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	c.broker.Publish(pubsub.DeletedEvent, tree)

	w.WriteHeader(http.StatusOK)
}

func (c *controllerV1) handleGetSessionNode(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("node"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid node index")
		return
	}

	tree, ok := c.getTree(w, r)
	if !ok {
		return
	}

	node, ok := tree.NodeAt(index)
	if !ok {
		jsonError(w, http.StatusNotFound, "node not found")
		return
	}
	jsonEncode(w, node)
}

func (c *controllerV1) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	flusher := http.NewResponseController(w)
	events := c.events.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			c.logDebug(r, "stopping event stream")
			return
		case ev, ok := <-events:
			if !ok {
				c.logDebug(r, "event broker closed")
				return
			}
			c.logDebug(r, "sending event", "type", ev.Type, "session", ev.Payload.Session)
			data, err := json.Marshal(ev)
			if err != nil {
				c.logError(r, "failed to marshal event", "error", err)
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (c *controllerV1) getTree(w http.ResponseWriter, r *http.Request) (proto.SessionTree, bool) {
	sid := r.PathValue("sid")
	tree, err := c.store.Get(r.Context(), sid)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "session not found")
		return proto.SessionTree{}, false
	}
	if err != nil {
		c.logError(r, "failed to get session", "error", err, "sid", sid)
		jsonError(w, http.StatusInternalServerError, "failed to get session")
		return proto.SessionTree{}, false
	}
	return tree, true
}

func jsonEncode(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonErrorCode(w, status, "", message)
}

func jsonErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(proto.Error{Message: message, Code: code})
}
