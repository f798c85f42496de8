package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance scenario: a sequence of calls against a fresh
// store, the outcome each call must produce, and checks on the final state.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Steps run in order. A scenario that calls messages must first run a
	// constructor step.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one call. Exactly one of Message and Constructor is set.
type Step struct {
	// Message is a message label or 0x selector.
	Message string `yaml:"message,omitempty"`

	// Constructor is a constructor label; the step instantiates storage.
	Constructor string `yaml:"constructor,omitempty"`

	// Caller is a dev account name or 0x account id. Defaults to alice.
	Caller string `yaml:"caller,omitempty"`

	// Tx commits the call. Otherwise it is a dry-run query.
	Tx bool `yaml:"tx,omitempty"`

	// Args are named JSON arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Input is raw SCALE argument bytes in hex, used instead of Args.
	Input string `yaml:"input,omitempty"`

	// Expect is the required outcome. A step without one must not fail.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step outcome: either an error code, or any of a return
// value, raw output bytes and a write count.
type Expect struct {
	Value  any    `yaml:"value,omitempty"`
	Output string `yaml:"output,omitempty"`
	Writes *int   `yaml:"writes,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Assertion checks the final state. Exactly one field is set.
type Assertion struct {
	UsersNum *uint32        `yaml:"users_num,omitempty"`
	User     *UserAssertion `yaml:"user,omitempty"`
}

// UserAssertion checks the user stored under ID.
type UserAssertion struct {
	ID     uint32         `yaml:"id"`
	Value  map[string]any `yaml:"value,omitempty"`
	Absent bool           `yaml:"absent,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if (step.Message == "") == (step.Constructor == "") {
			return fmt.Errorf("steps[%d]: exactly one of message and constructor is required", i)
		}
		if step.Args != nil && step.Input != "" {
			return fmt.Errorf("steps[%d]: args and input are mutually exclusive", i)
		}
		if step.Constructor != "" && (step.Args != nil || step.Input != "" || step.Tx) {
			return fmt.Errorf("steps[%d]: constructor steps take no args, input or tx", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && (e.Value != nil || e.Output != "" || e.Writes != nil) {
			return fmt.Errorf("steps[%d].expect: error excludes value, output and writes", i)
		}
	}

	for i, a := range s.Assertions {
		if (a.UsersNum == nil) == (a.User == nil) {
			return fmt.Errorf("assertions[%d]: exactly one of users_num and user is required", i)
		}
		if u := a.User; u != nil && (u.Value == nil) == !u.Absent {
			return fmt.Errorf("assertions[%d].user: exactly one of value and absent is required", i)
		}
	}
	return nil
}
