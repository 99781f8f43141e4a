package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/roach88/todox/internal/server"
	"github.com/roach88/todox/internal/store"
	"github.com/roach88/todox/internal/store/kv"
	"github.com/roach88/todox/internal/store/memory"
	"github.com/roach88/todox/internal/store/sqlite"
	"github.com/roach88/todox/internal/testutil"
	"github.com/roach88/todox/internal/todo"
)

// itemIDPattern finds item elements in a response body.
var itemIDPattern = regexp.MustCompile(`<div class="[^"]*" id="(todo-\d+)"`)

// Harness replays scenario requests against one store.
type Harness struct {
	store   todo.Store
	handler http.Handler
	logger  *slog.Logger
}

// New wraps st in a server. Logs are discarded.
func New(st todo.Store) *Harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Harness{
		store:   st,
		handler: server.New(st, server.Options{Logger: logger}).Handler(),
		logger:  logger,
	}
}

// OpenBackend opens a fresh, empty, process-local store of the named
// backend with the given clock. The caller closes it.
func OpenBackend(backend string, now func() time.Time) (todo.Store, error) {
	switch backend {
	case store.BackendMemory:
		return memory.New(now), nil
	case store.BackendSQLite:
		st, err := sqlite.Open(":memory:", sqlite.WithClock(now))
		if err != nil {
			return nil, err
		}
		return st, nil
	case store.BackendBadger:
		st, err := kv.Open(kv.InMemoryConfig(), kv.WithClock(now))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: must be one of %v", backend, store.Backends)
	}
}

// Run executes scenario on a fresh store of the named backend.
//
// Execution flow:
// 1. Open an empty store with a step clock
// 2. Apply setup steps directly to the store
// 3. Replay flow requests through the HTTP handler, checking expect clauses
// 4. Evaluate assertions against the final state
func Run(ctx context.Context, scenario *Scenario, backend string) (*Result, error) {
	st, err := OpenBackend(backend, testutil.NewStepClock().Now)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backend, err)
	}
	defer st.Close()

	return New(st).Run(ctx, scenario)
}

// Run executes scenario against the harness store.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range EvaluateAssertions(ctx, h.store, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSetup applies setup steps in order.
func (h *Harness) executeSetup(ctx context.Context, setup []SetupStep) error {
	for i, step := range setup {
		if step.HideDone != nil {
			if err := h.store.SetPreferences(ctx, todo.Preferences{HideDone: *step.HideDone}); err != nil {
				return fmt.Errorf("setup step %d: %w", i, err)
			}
			continue
		}

		it, err := h.store.Add(ctx, step.Add)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if step.Done {
			if _, err := h.store.ToggleDone(ctx, it.ID); err != nil {
				return fmt.Errorf("setup step %d: %w", i, err)
			}
		}
		h.logger.Debug("setup step completed", "step", i, "id", it.ID)
	}
	return nil
}

// executeFlow replays flow requests and checks their expect clauses.
func (h *Harness) executeFlow(flow []FlowStep, result *Result) error {
	for i, step := range flow {
		method, path, err := splitRequest(step.Request)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		ev := h.do(method, path, step.Form)
		result.AddTrace(ev)

		for _, msg := range checkExpect(step.Expect, ev) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Request, msg))
		}
	}
	return nil
}

// do sends one request through the handler and records it.
func (h *Harness) do(method, path string, form map[string]string) TraceEvent {
	var body io.Reader
	if form != nil {
		values := url.Values{}
		for k, v := range form {
			values.Set(k, v)
		}
		body = strings.NewReader(values.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	respBody := w.Body.String()
	ev := TraceEvent{
		Method:  method,
		Path:    path,
		Form:    form,
		Status:  w.Code,
		Trigger: w.Header().Get(server.TriggerHeader) == server.ChangeEvent,
		Items:   []string{},
		Body:    respBody,
	}
	for _, m := range itemIDPattern.FindAllStringSubmatch(respBody, -1) {
		ev.Items = append(ev.Items, m[1])
	}
	return ev
}

// checkExpect returns one message per unmet expectation.
func checkExpect(expect *ExpectClause, ev TraceEvent) []string {
	want := http.StatusOK
	if expect != nil && expect.Status != 0 {
		want = expect.Status
	}

	var msgs []string
	if ev.Status != want {
		msgs = append(msgs, fmt.Sprintf("expected status %d, got %d", want, ev.Status))
	}
	if expect == nil {
		return msgs
	}

	if expect.Trigger != nil && *expect.Trigger != ev.Trigger {
		msgs = append(msgs, fmt.Sprintf("expected trigger %t, got %t", *expect.Trigger, ev.Trigger))
	}
	for _, s := range expect.Contains {
		if !strings.Contains(ev.Body, s) {
			msgs = append(msgs, fmt.Sprintf("body does not contain %q", s))
		}
	}
	for _, s := range expect.NotContains {
		if strings.Contains(ev.Body, s) {
			msgs = append(msgs, fmt.Sprintf("body contains %q", s))
		}
	}
	return msgs
}
