package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/board"
	"taskboard/domain"
)

// Deps are the collaborators of the HTTP API. Deduper, Updates and Stats are optional.
type Deps struct {
	Sessions *Sessions
	Auth     Authenticator
	Deduper  Deduper
	Updates  Subscriber
	Stats    func() any
	Log      *log.Logger
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	if deps.Sessions == nil || deps.Auth == nil {
		panic("api.Register: sessions and auth are required")
	}
	if deps.Log == nil {
		deps.Log = log.StandardLogger()
	}
	h := &handlers{Deps: deps}

	g := e.Group("/api/projects/:project", bodyMiddleware()...)
	g.GET("/tasks", h.boardRoute("/api/projects/:project/tasks", h.listTasks))
	g.POST("/tasks", h.boardRoute("/api/projects/:project/tasks", h.createTask))
	g.PUT("/tasks/:id", h.boardRoute("/api/projects/:project/tasks/:id", h.updateTask))
	g.DELETE("/tasks/:id", h.boardRoute("/api/projects/:project/tasks/:id", h.deleteTask))
	g.PATCH("/tasks/:id/status", h.boardRoute("/api/projects/:project/tasks/:id/status", h.setStatus))
	g.POST("/moves", h.boardRoute("/api/projects/:project/moves", h.move))
	g.GET("/board", h.boardRoute("/api/projects/:project/board", h.getBoard))
	g.PUT("/filter", h.boardRoute("/api/projects/:project/filter", h.setFilter))
	g.PUT("/view", h.boardRoute("/api/projects/:project/view", h.setView))
	g.GET("/stream", h.stream)
	e.GET("/healthz", h.healthz)
}

type handlers struct {
	Deps
}

// boardFunc runs one request against the caller's board. It returns the HTTP
// status and a body: nil for no content, a string for plain text, anything
// else is encoded as JSON.
type boardFunc func(c echo.Context, b *board.Board, m *requestMetrics) (int, any)

func (h *handlers) boardRoute(route string, fn boardFunc) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), h.Log, route)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := h.Auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			return c.String(http.StatusUnauthorized, authErr.Error())
		}

		projectID := strings.TrimSpace(c.Param("project"))
		if projectID == "" {
			metrics.SetErrorStage("project")
			return c.String(http.StatusBadRequest, "missing project")
		}
		metrics.SetProject(projectID)

		boardStart := time.Now()
		b, release, openErr := h.Sessions.Acquire(ctx, userID, projectID)
		if openErr != nil {
			metrics.SetErrorStage("load")
			h.Log.WithError(openErr).WithFields(log.Fields{"user": userID, "project": projectID}).Error("open project failed")
			return c.String(http.StatusInternalServerError, "failed to load project")
		}
		status, body := func() (int, any) {
			defer release()
			return fn(c, b, metrics)
		}()
		metrics.ObserveBoard(time.Since(boardStart))

		encodeStart := time.Now()
		switch v := body.(type) {
		case nil:
			err = c.NoContent(status)
		case string:
			err = c.String(status, v)
		default:
			err = c.JSON(status, v)
		}
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func tasksBody(b *board.Board, m *requestMetrics) tasksResponse {
	tasks := b.Tasks()
	m.SetTasksReturned(len(tasks))
	return tasksResponse{ProjectID: b.ProjectID(), Mode: b.Mode(), Filter: b.Filter(), Tasks: tasks}
}

func (h *handlers) listTasks(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	if raw := c.QueryParam("filter"); raw != "" {
		f, err := domain.ParseFilter(raw)
		if err != nil {
			m.SetErrorStage("invalid_filter")
			return http.StatusBadRequest, err.Error()
		}
		_ = b.SetFilter(f)
	}
	return http.StatusOK, tasksBody(b, m)
}

func (h *handlers) getBoard(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	cols := b.Columns()
	n := 0
	for _, col := range cols {
		n += len(col.Tasks)
	}
	m.SetTasksReturned(n)
	return http.StatusOK, boardResponse{ProjectID: b.ProjectID(), Mode: b.Mode(), Filter: b.Filter(), Columns: cols}
}

func (h *handlers) createTask(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	var req createTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}
	due, err := domain.ParseDueDate(req.DueDate)
	if err != nil {
		m.SetErrorStage("validate")
		return http.StatusBadRequest, err.Error()
	}

	claim, status, msg := h.claimCreate(c, b.UserID(), m)
	if status != 0 {
		return status, msg
	}

	ed := b.Editor()
	ed.OpenCreate()
	d := ed.Draft()
	d.Title = req.Title
	d.Description = req.Description
	d.OwnerID = req.OwnerID
	d.DueDate = due
	d.Tags = req.Tags
	if s := strings.TrimSpace(req.Status); s != "" {
		d.Status = domain.Status(s)
	}
	if p := strings.TrimSpace(req.Priority); p != "" {
		d.Priority = domain.Priority(p)
	}
	if f := strings.TrimSpace(req.OutputFormat); f != "" {
		d.OutputFormat = domain.OutputFormat(f)
	}
	d.Prompts = req.Prompts

	task, err := ed.Submit()
	if err != nil {
		ed.Cancel()
		claim.rollback(c.Request().Context(), h)
		m.SetErrorStage("validate")
		return statusForError(err), err.Error()
	}
	m.SetMutated(true)
	m.SetTasksReturned(1)
	return http.StatusCreated, task
}

func (h *handlers) updateTask(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	id := c.Param("id")
	current, ok := b.Task(id)
	if !ok {
		m.SetErrorStage("not_found")
		return http.StatusNotFound, "task not found"
	}
	var req updateTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}

	ed := b.Editor()
	ed.OpenEdit(current)
	d := ed.Draft()
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Status != nil {
		d.Status = domain.Status(strings.TrimSpace(*req.Status))
	}
	if req.Priority != nil {
		d.Priority = domain.Priority(strings.TrimSpace(*req.Priority))
	}
	if req.OwnerID != nil {
		d.OwnerID = *req.OwnerID
	}
	if req.DueDate != nil {
		due, err := domain.ParseDueDate(*req.DueDate)
		if err != nil {
			ed.Cancel()
			m.SetErrorStage("validate")
			return http.StatusBadRequest, err.Error()
		}
		d.DueDate = due
	}
	if req.Tags != nil {
		d.Tags = *req.Tags
	}
	if req.Prompts != nil {
		d.Prompts = *req.Prompts
	}
	if req.OutputFormat != nil {
		d.OutputFormat = domain.OutputFormat(strings.TrimSpace(*req.OutputFormat))
	}

	if _, err := ed.Submit(); err != nil {
		ed.Cancel()
		m.SetErrorStage("validate")
		return statusForError(err), err.Error()
	}
	updated, ok := b.Task(id)
	if !ok {
		return http.StatusNotFound, "task not found"
	}
	m.SetMutated(true)
	m.SetTasksReturned(1)
	return http.StatusOK, updated
}

func (h *handlers) setStatus(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	var req statusRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		m.SetErrorStage("validate")
		return http.StatusBadRequest, err.Error()
	}
	id := c.Param("id")
	if _, ok := b.Task(id); !ok {
		m.SetErrorStage("not_found")
		return http.StatusNotFound, "task not found"
	}
	changed, _ := b.SetStatus(id, status)
	m.SetMutated(changed)
	t, _ := b.Task(id)
	m.SetTasksReturned(1)
	return http.StatusOK, t
}

func (h *handlers) move(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	var req moveRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}
	moved := b.Move(req.Source, req.Destination, req.TaskID)
	m.SetMutated(moved)
	return http.StatusOK, moveResponse{Moved: moved}
}

func (h *handlers) deleteTask(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	m.SetMutated(b.Delete(c.Param("id")))
	return http.StatusNoContent, nil
}

func (h *handlers) setFilter(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	var req filterRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}
	f, err := domain.ParseFilter(req.Filter)
	if err != nil {
		m.SetErrorStage("validate")
		return http.StatusBadRequest, err.Error()
	}
	_ = b.SetFilter(f)
	return http.StatusOK, tasksBody(b, m)
}

func (h *handlers) setView(c echo.Context, b *board.Board, m *requestMetrics) (int, any) {
	var req viewRequest
	if err := decodeBody(c, &req); err != nil {
		return badBody(m, err)
	}
	mode, err := domain.ParseViewMode(req.Mode)
	if err != nil {
		m.SetErrorStage("validate")
		return http.StatusBadRequest, err.Error()
	}
	if err := b.SetViewMode(c.Request().Context(), mode); err != nil {
		// The mode is applied for this session even when it could not be saved.
		h.Log.WithError(err).WithFields(log.Fields{"user": b.UserID(), "project": b.ProjectID()}).Warn("persist view mode failed")
	}
	return http.StatusOK, tasksBody(b, m)
}

func (h *handlers) healthz(c echo.Context) error {
	resp := healthResponse{Status: "ok", Sessions: h.Sessions.Len(), Time: time.Now().UTC()}
	if h.Stats != nil {
		resp.Outbox = h.Stats()
	}
	return c.JSON(http.StatusOK, resp)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidDueDate),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidViewMode),
		errors.Is(err, domain.ErrInvalidOutputFormat),
		errors.Is(err, domain.ErrInvalidAIModel):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrDuplicateTask):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
