package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/todox/internal/todo"
)

// AssertionError is returned when an assertion fails.
// It includes the request trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %d\n", ev.Seq, ev.Method, ev.Path, ev.Status)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure. Store errors are reported as failures, not returned.
func EvaluateAssertions(ctx context.Context, st todo.Store, result *Result, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, result, a); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluate(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	switch a.Type {
	case AssertItemCount:
		return assertItemCount(ctx, st, result, a)
	case AssertItem:
		return assertItem(ctx, st, result, a)
	case AssertItemAbsent:
		return assertItemAbsent(ctx, st, result, a)
	case AssertListOrder:
		return assertListOrder(ctx, st, result, a)
	case AssertPreference:
		return assertPreference(ctx, st, result, a)
	case AssertTriggerCount:
		return assertTriggerCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertItemCount(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	items, err := st.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	if len(items) != a.Count {
		return &AssertionError{
			Type:     AssertItemCount,
			Expected: fmt.Sprintf("%d item(s)", a.Count),
			Actual:   fmt.Sprintf("%d item(s)", len(items)),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertItem(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	it, err := st.Get(ctx, a.ID)
	if err != nil {
		return &AssertionError{
			Type:     AssertItem,
			Expected: fmt.Sprintf("item %d exists", a.ID),
			Actual:   err.Error(),
			Trace:    result.Trace,
		}
	}

	var mismatches []string
	if a.Text != nil && it.Text != *a.Text {
		mismatches = append(mismatches, fmt.Sprintf("text: expected %q, got %q", *a.Text, it.Text))
	}
	if a.Done != nil && it.Done != *a.Done {
		mismatches = append(mismatches, fmt.Sprintf("done: expected %t, got %t", *a.Done, it.Done))
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertItem,
			Expected: fmt.Sprintf("item %d fields match", a.ID),
			Actual:   strings.Join(mismatches, "; "),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertItemAbsent(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	it, err := st.Get(ctx, a.ID)
	if err == nil {
		return &AssertionError{
			Type:     AssertItemAbsent,
			Expected: fmt.Sprintf("item %d absent", a.ID),
			Actual:   fmt.Sprintf("found %q", it.Text),
			Trace:    result.Trace,
		}
	}
	if !errors.Is(err, todo.ErrNotFound) {
		return fmt.Errorf("get item %d: %w", a.ID, err)
	}
	return nil
}

func assertListOrder(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	items, err := st.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	if !slices.Equal(texts, a.Texts) {
		return &AssertionError{
			Type:     AssertListOrder,
			Expected: fmt.Sprintf("%q", a.Texts),
			Actual:   fmt.Sprintf("%q", texts),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertPreference(ctx context.Context, st todo.Store, result *Result, a Assertion) error {
	prefs, err := st.Preferences(ctx)
	if err != nil {
		return fmt.Errorf("read preferences: %w", err)
	}
	if prefs.HideDone != *a.HideDone {
		return &AssertionError{
			Type:     AssertPreference,
			Expected: fmt.Sprintf("hide_done=%t", *a.HideDone),
			Actual:   fmt.Sprintf("hide_done=%t", prefs.HideDone),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertTriggerCount(result *Result, a Assertion) error {
	if n := result.TriggerCount(); n != a.Count {
		return &AssertionError{
			Type:     AssertTriggerCount,
			Expected: fmt.Sprintf("%d notification(s)", a.Count),
			Actual:   fmt.Sprintf("%d notification(s)", n),
			Trace:    result.Trace,
		}
	}
	return nil
}
