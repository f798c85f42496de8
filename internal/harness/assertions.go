package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/ir"
)

// checkExpect compares a step's outcome with its expectation.
func checkExpect(n int, expect *Expect, event TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("step %d (%s): ", n, event.Message)+fmt.Sprintf(format, args...))
	}

	if expect == nil || expect.Error == "" {
		if event.Error != "" {
			fail("unexpected error %s", event.Error)
			return errs
		}
	}
	if expect == nil {
		return errs
	}

	if expect.Error != "" {
		if event.Error != expect.Error {
			got := event.Error
			if got == "" {
				got = "success"
			}
			fail("expected error %s, got %s", expect.Error, got)
		}
		return errs
	}

	if expect.Value != nil {
		want, err := ir.FromAny(expect.Value)
		if err != nil {
			fail("expect.value: %v", err)
		} else if !sameValue(want, event.Value) {
			fail("expected value %s, got %s", render(want), render(event.Value))
		}
	}
	if expect.Output != "" {
		want := strings.ToLower(expect.Output)
		if !strings.HasPrefix(want, "0x") {
			want = "0x" + want
		}
		if want != event.Output {
			fail("expected output %s, got %s", want, event.Output)
		}
	}
	if expect.Writes != nil && *expect.Writes != event.Writes {
		fail("expected %d writes, got %d", *expect.Writes, event.Writes)
	}
	return errs
}

// EvaluateAssertions checks the final state. It returns one message per
// failed assertion.
func EvaluateAssertions(state contract.State, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		switch {
		case a.UsersNum != nil:
			if state.UsersNum != *a.UsersNum {
				errs = append(errs, fmt.Sprintf("assertions[%d]: users_num = %d, expected %d", i, state.UsersNum, *a.UsersNum))
			}

		case a.User != nil:
			if err := assertUser(state, a.User); err != nil {
				errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
			}
		}
	}
	return errs
}

func assertUser(state contract.State, ua *UserAssertion) error {
	var found *contract.StoredUser
	for i := range state.Users {
		if state.Users[i].ID == ua.ID {
			found = &state.Users[i]
			break
		}
	}

	if ua.Absent {
		if found != nil {
			return fmt.Errorf("user %d is stored, expected none", ua.ID)
		}
		return nil
	}
	if found == nil {
		return fmt.Errorf("user %d is not stored", ua.ID)
	}

	want, err := ir.FromAny(ua.Value)
	if err != nil {
		return fmt.Errorf("user %d: %w", ua.ID, err)
	}
	got := found.User.ToIR()
	if !sameValue(want, got) {
		return fmt.Errorf("user %d = %s, expected %s", ua.ID, render(got), render(want))
	}
	return nil
}

// sameValue compares two values by canonical JSON, so integer width and
// object key order do not matter.
func sameValue(a, b ir.Value) bool {
	ca, errA := ir.MarshalCanonical(a)
	cb, errB := ir.MarshalCanonical(b)
	return errA == nil && errB == nil && bytes.Equal(ca, cb)
}

func render(v ir.Value) string {
	if v == nil {
		return "<none>"
	}
	b, err := ir.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
