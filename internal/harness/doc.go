// Package harness runs conformance scenarios against the engine.
//
// A scenario is a YAML file listing calls (constructor, queries and
// transactions) with the value, output bytes, write count or error code each
// must produce, followed by assertions on the final decoded state:
//
//	name: add_and_read
//	description: an added user reads back
//	steps:
//	  - constructor: default
//	  - message: add
//	    tx: true
//	    args:
//	      user: {active: true, name: Alice, role: User, age: 30, salary: 50000, favorite_numbers: [7, 42]}
//	  - message: get_user
//	    args: {idx: 0}
//	    expect:
//	      output: "0x0114416c696365001e50c300000000000008070000002a000000"
//	assertions:
//	  - users_num: 1
//
// Scenarios run through a real engine on an in-memory store with a
// deterministic clock and call ids, so the trace of a run is stable and
// can be compared against a golden file with goldie.
package harness
