// Package harness runs brainplus programs against YAML conformance
// scenarios.
//
// # Scenario Format
//
//	name: nested_skip
//	description: "A zero cell skips a loop containing a nested loop"
//	source: "[+[.]]."
//	input_text: ""
//	cycle_limit: 100
//	expect:
//	  state: exhausted
//	  output_bytes: [0]
//	  ip: 7
//	  cycles: 2
//	assertions:
//	  - type: trace_ips
//	    values: [6, 7]
//
// expect checks the terminal run. Only the fields present are compared.
// error names the code of an expected fault or configuration error.
//
// # Assertion Types
//
//   - trace_ips: the post-dispatch instruction pointer of every step
//   - trace_pointers: the data pointer of every step
//   - trace_count: number of steps, optionally only those executing op
//   - cell: the value of one tape cell after the run
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID and a fresh in-memory SQLite
// store. The run is written to the store and read back before it is
// checked, so the checks see exactly what would be persisted.
package harness
