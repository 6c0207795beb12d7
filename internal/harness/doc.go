// Package harness provides conformance testing for rxparse grammars.
//
// The harness loads scenarios, drives a grammar over the scenario's input
// with the real engine, records the session into an in-memory trace store
// and validates the outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	grammar: binary:uint16
//	byte_order: big
//	input:
//	  hex: "0001 0002"
//	delivery: tick
//	strict: true
//	session_id: test-session-0001
//	expect:
//	  values: ["1", "2"]
//	assertions:
//	  - type: trace_contains
//	    value: "2"
//	    index: 2
//	  - type: final_index
//	    index: 4
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: a value was produced, optionally at a source index
//   - trace_order: values were produced in the specified order
//   - trace_count: the trace holds exactly N events of a kind
//   - final_index: the stored session finished at a source index
//
// # Deterministic Testing
//
// The harness uses:
//   - Fixed session IDs (from scenario.session_id or the default)
//   - Deterministic logical clock (testutil.Clock)
//   - In-memory SQLite database (isolated per run)
//
// Golden snapshots leave out consume events, whose position in the trace
// depends on how the source batches its delivery.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/words.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
