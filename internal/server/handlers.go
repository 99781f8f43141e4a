package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/todox/internal/render"
	"github.com/roach88/todox/internal/todo"
)

// addForm is the body of POST /todo.
type addForm struct {
	Text string `form:"text" binding:"required"`
}

// pinger is implemented by backends that can check their connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// html renders fn into a buffer first so a template error still yields a
// clean 500 rather than a truncated 200. The change header is only set on
// a rendered response.
func (s *Server) html(c *gin.Context, changed bool, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.fail(c, err)
		return
	}
	if changed {
		notifyChange(c)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func notifyChange(c *gin.Context) {
	c.Header(TriggerHeader, ChangeEvent)
}

// preferences reads the preference flag. A read failure is logged and the
// defaults are used.
func (s *Server) preferences(c *gin.Context) todo.Preferences {
	prefs, err := s.store.Preferences(c.Request.Context())
	if err != nil {
		s.log.Warn("preferences unavailable, using defaults",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Any("error", err))
	}
	return prefs
}

// itemID parses the :id path parameter and tags the active span with it.
func itemID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, todo.Validationf("invalid item id %q", raw)
	}
	trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.Int64("todo.id", id))
	return id, nil
}

func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	var err error
	if p, ok := s.store.(pinger); ok {
		err = p.Ping(ctx)
	} else {
		_, err = s.store.List(ctx, true)
	}
	if err != nil {
		s.log.Error("health check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getBody renders the whole page body with the list inlined.
func (s *Server) getBody(c *gin.Context) {
	prefs := s.preferences(c)
	items, err := s.store.List(c.Request.Context(), prefs.HideDone)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, false, func(w io.Writer) error {
		return render.Body(w, prefs.HideDone, items)
	})
}

func (s *Server) getTodos(c *gin.Context) {
	prefs := s.preferences(c)
	items, err := s.store.List(c.Request.Context(), prefs.HideDone)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, false, func(w io.Writer) error {
		return render.List(w, items, prefs.HideDone)
	})
}

func (s *Server) postTodo(c *gin.Context) {
	var form addForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, bindError(err))
		return
	}

	it, err := s.store.Add(c.Request.Context(), form.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.Int64("todo.id", it.ID))
	s.metrics.Mutation("add")

	s.html(c, true, func(w io.Writer) error {
		return render.Item(w, it)
	})
}

// deleteCompleted removes every done item. The list is only refreshed if
// something was removed.
func (s *Server) deleteCompleted(c *gin.Context) {
	n, err := s.store.DeleteAllDone(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.Mutation("delete_done")
	s.metrics.Removed(n)
	if n > 0 {
		notifyChange(c)
	}
	c.Status(http.StatusOK)
}

func (s *Server) deleteTodo(c *gin.Context) {
	id, err := itemID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.Mutation("delete")
	c.Status(http.StatusOK)
}

// patchTodo flips an item. When the form carries text, the item is
// rewritten with that text and the inverse of the submitted done value;
// otherwise the stored done flag is toggled.
func (s *Server) patchTodo(c *gin.Context) {
	id, err := itemID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.fail(c, todo.Validationf("malformed request body: %v", err))
		return
	}
	ctx := c.Request.Context()

	var it todo.Item
	if text, ok := c.GetPostForm("text"); ok {
		rawDone, ok := c.GetPostForm("done")
		if !ok {
			s.fail(c, todo.Validationf("done is required when text is sent"))
			return
		}
		done, perr := strconv.ParseBool(rawDone)
		if perr != nil {
			s.fail(c, todo.Validationf("invalid done value %q", rawDone))
			return
		}
		it, err = s.store.SetText(ctx, id, text, !done)
		if err == nil {
			s.metrics.Mutation("set_text")
		}
	} else {
		it, err = s.store.ToggleDone(ctx, id)
		if err == nil {
			s.metrics.Mutation("toggle")
		}
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	s.html(c, it.Done, func(w io.Writer) error {
		return render.Item(w, it)
	})
}

func (s *Server) toggleCompleted(c *gin.Context) {
	prefs, err := s.store.ToggleHideDone(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.Mutation("toggle_hide_done")

	s.html(c, true, func(w io.Writer) error {
		return render.ToggleButton(w, prefs.HideDone)
	})
}
