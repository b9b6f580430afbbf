package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

var heartbeatInterval = 30 * time.Second

// stream serves applied changes of a project as server-sent events. EventSource
// cannot set headers, so the token may also come from the token query parameter.
func (h *handlers) stream(c echo.Context) error {
	if h.Updates == nil {
		return c.String(http.StatusServiceUnavailable, "streaming unavailable")
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if token := strings.TrimSpace(c.QueryParam("token")); token != "" {
			header = "Bearer " + token
		}
	}
	userID, err := h.Auth.UserIDFromAuthHeader(header)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := strings.TrimSpace(c.Param("project"))
	if projectID == "" {
		return c.String(http.StatusBadRequest, "missing project")
	}

	ctx := c.Request().Context()
	updates, err := h.Updates.Subscribe(ctx, projectID)
	if err != nil {
		h.Log.WithError(err).WithField("project", projectID).Error("subscribe failed")
		return c.String(http.StatusInternalServerError, "subscribe failed")
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}
	flusher.Flush()

	h.Log.WithFields(log.Fields{"user": userID, "project": projectID}).Debug("stream opened")
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return nil
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
