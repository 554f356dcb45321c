package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
)

// ReadyFunc reports whether the bot is connected to the chat platform.
type ReadyFunc func() bool

type HealthAPI struct {
	ready   ReadyFunc
	started time.Time
	now     func() time.Time
	logger  *slog.Logger
}

func NewHealthAPI(ready ReadyFunc, logger *slog.Logger) *HealthAPI {
	if ready == nil {
		ready = func() bool { return false }
	}
	return &HealthAPI{
		ready:   ready,
		started: time.Now(),
		now:     time.Now,
		logger:  logger,
	}
}

func (h *HealthAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subPath, _ := ShiftPath(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && subPath == "":
		h.Status(w, r)
	case r.Method != http.MethodGet:
		Message(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the health api", r.Method, subPath))
	}
}

func (h *HealthAPI) Status(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status        string `json:"status"`
		Ready         bool   `json:"ready"`
		UptimeSeconds int64  `json:"uptime_seconds"`
	}{
		Status:        "ok",
		Ready:         h.ready(),
		UptimeSeconds: int64(h.now().Sub(h.started) / time.Second),
	}

	jsonBody, err := json.Marshal(resp)
	if err != nil {
		h.returnErr(r.Context(), w, http.StatusInternalServerError, "could not marshal response", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(jsonBody)
}

func (h *HealthAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	h.logger.Error(message, slog.String("error", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}
