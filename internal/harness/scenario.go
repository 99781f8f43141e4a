package harness

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end test: seed the store, replay HTTP
// requests, then check the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup seeds the store before the flow. Setup steps must succeed.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Flow is the list of HTTP requests to replay.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final store state and the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep either adds an item or sets the hide_done preference.
type SetupStep struct {
	// Add is the text of an item to create.
	Add string `yaml:"add,omitempty"`

	// Done marks the added item as completed.
	Done bool `yaml:"done,omitempty"`

	// HideDone sets the stored preference.
	HideDone *bool `yaml:"hide_done,omitempty"`
}

// FlowStep is one HTTP request.
type FlowStep struct {
	// Request is "METHOD /path", e.g. "PATCH /todo/1".
	Request string `yaml:"request"`

	// Form is sent urlencoded in the body.
	Form map[string]string `yaml:"form,omitempty"`

	// Expect checks the response. Nil means status 200 and nothing else.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected response.
type ExpectClause struct {
	// Status defaults to 200.
	Status int `yaml:"status,omitempty"`

	// Trigger, when set, requires the change notification header to be
	// present (true) or absent (false).
	Trigger *bool `yaml:"trigger,omitempty"`

	// Contains lists substrings the body must contain.
	Contains []string `yaml:"contains,omitempty"`

	// NotContains lists substrings the body must not contain.
	NotContains []string `yaml:"not_contains,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by item_count and trigger_count.
	Count int `yaml:"count,omitempty"`

	// ID is used by item and item_absent.
	ID int64 `yaml:"id,omitempty"`

	// Text and Done are the expected fields for item. Unset fields are
	// not checked.
	Text *string `yaml:"text,omitempty"`
	Done *bool   `yaml:"done,omitempty"`

	// Texts is the expected newest-first order for list_order.
	Texts []string `yaml:"texts,omitempty"`

	// HideDone is the expected flag for preference.
	HideDone *bool `yaml:"hide_done,omitempty"`
}

// Assertion type constants.
const (
	AssertItemCount    = "item_count"
	AssertItem         = "item"
	AssertItemAbsent   = "item_absent"
	AssertListOrder    = "list_order"
	AssertPreference   = "preference"
	AssertTriggerCount = "trigger_count"
)

var methods = []string{
	http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodPut,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// splitRequest splits "METHOD /path".
func splitRequest(req string) (method, path string, err error) {
	method, path, ok := strings.Cut(strings.TrimSpace(req), " ")
	path = strings.TrimSpace(path)
	if !ok || path == "" || !strings.HasPrefix(path, "/") {
		return "", "", fmt.Errorf("request %q: want \"METHOD /path\"", req)
	}
	method = strings.ToUpper(method)
	if !slices.Contains(methods, method) {
		return "", "", fmt.Errorf("request %q: unsupported method %s", req, method)
	}
	return method, path, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		hasAdd := step.Add != ""
		hasPref := step.HideDone != nil
		if hasAdd == hasPref {
			return fmt.Errorf("setup[%d]: exactly one of add or hide_done is required", i)
		}
		if step.Done && !hasAdd {
			return fmt.Errorf("setup[%d]: done is only valid with add", i)
		}
	}

	for i, step := range s.Flow {
		if step.Request == "" {
			return fmt.Errorf("flow[%d]: request is required", i)
		}
		if _, _, err := splitRequest(step.Request); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Status != 0 &&
			(step.Expect.Status < 100 || step.Expect.Status > 599) {
			return fmt.Errorf("flow[%d].expect: invalid status %d", i, step.Expect.Status)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertItemCount, AssertTriggerCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertItem:
		if a.ID <= 0 {
			return fmt.Errorf("assertions[%d]: id is required for item", index)
		}
		if a.Text == nil && a.Done == nil {
			return fmt.Errorf("assertions[%d]: text or done is required for item", index)
		}
	case AssertItemAbsent:
		if a.ID <= 0 {
			return fmt.Errorf("assertions[%d]: id is required for item_absent", index)
		}
	case AssertListOrder:
		if a.Texts == nil {
			return fmt.Errorf("assertions[%d]: texts is required for list_order (use [] for empty)", index)
		}
	case AssertPreference:
		if a.HideDone == nil {
			return fmt.Errorf("assertions[%d]: hide_done is required for preference", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
