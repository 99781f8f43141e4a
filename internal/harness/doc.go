// Package harness runs end-to-end HTTP scenarios against a todox server.
//
// Each scenario gets a fresh store and a deterministic clock, so item ids
// and ordering are reproducible and traces can be compared against golden
// files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: complete_and_clear
//	description: "Completing an item and clearing completed removes it"
//	setup:
//	  - add: "buy milk"
//	  - add: "water plants"
//	    done: true
//	  - hide_done: false
//	flow:
//	  - request: PATCH /todo/1
//	    form: { text: "buy milk", done: "false" }
//	    expect:
//	      status: 200
//	      trigger: true
//	      contains: ["line-through"]
//	  - request: DELETE /todo
//	assertions:
//	  - type: item_count
//	    count: 0
//
// Setup steps write straight to the store. Flow steps go through the HTTP
// handler exactly as a browser request would.
//
// # Assertion Types
//
//   - item_count: number of stored items, done or not
//   - item: the item with id has the given text and/or done flag
//   - item_absent: no item with id exists
//   - list_order: texts of all items, newest first
//   - preference: the stored hide_done flag
//   - trigger_count: how many responses carried the change notification
//
// # Golden Files
//
// The trace of a run (one event per request: method, path, status, trigger
// and the item ids in the response) can be compared against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
