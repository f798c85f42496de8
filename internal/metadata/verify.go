package metadata

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/dispatch"
)

// Verify reports every disagreement between the description and the live
// dispatch table and storage layout. A nil result means they agree.
func (m *Metadata) Verify(reg *dispatch.Registry) error {
	var errs []error
	mismatch := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	msgs := reg.Messages()
	if len(msgs) != len(m.Messages) {
		mismatch("message count: metadata has %d, dispatch has %d", len(m.Messages), len(msgs))
	}
	for i, dm := range msgs {
		if i >= len(m.Messages) {
			break
		}
		mm := m.Messages[i]
		if mm.Label != dm.Label {
			mismatch("message %d: metadata has %s, dispatch has %s", i, mm.Label, dm.Label)
			continue
		}
		if mm.Selector != dm.Selector.String() {
			mismatch("%s: selector %s != %s", mm.Label, mm.Selector, dm.Selector)
		}
		if mm.Mutates != dm.Mutates {
			mismatch("%s: mutates %t != %t", mm.Label, mm.Mutates, dm.Mutates)
		}
		if mm.Returns != dm.Returns {
			mismatch("%s: returns %s != %s", mm.Label, mm.Returns, dm.Returns)
		}
		if !sameArgs(mm.Args, dm.Args) {
			mismatch("%s: args %v != %v", mm.Label, mm.Args, dm.Args)
		}
		for _, t := range append(argTypes(mm.Args), mm.Returns) {
			if _, ok := abi.Lookup(t); !ok {
				mismatch("%s: type %s has no codec", mm.Label, t)
			}
		}
	}

	ctors := reg.Constructors()
	if len(ctors) != len(m.Constructors) {
		mismatch("constructor count: metadata has %d, dispatch has %d", len(m.Constructors), len(ctors))
	}
	for i, dc := range ctors {
		if i >= len(m.Constructors) {
			break
		}
		mc := m.Constructors[i]
		if mc.Label != dc.Label || mc.Selector != dc.Selector.String() {
			mismatch("constructor %d: metadata has %s %s, dispatch has %s %s",
				i, mc.Label, mc.Selector, dc.Label, dc.Selector)
		}
	}

	layout := contract.Layout()
	if len(layout) != len(m.Storage) {
		mismatch("storage field count: metadata has %d, layout has %d", len(m.Storage), len(layout))
	}
	for i, lf := range layout {
		if i >= len(m.Storage) {
			break
		}
		mf := m.Storage[i]
		if mf.Name != lf.Name || mf.Root != uint32(lf.Root) || mf.Kind != lf.Kind ||
			mf.Key != lf.KeyType || mf.Value != lf.ValueType {
			mismatch("storage %d: metadata has %+v, layout has %+v", i, mf, lf)
		}
	}

	return errors.Join(errs...)
}

func sameArgs(a []Arg, b []dispatch.Arg) bool {
	return slices.EqualFunc(a, b, func(x Arg, y dispatch.Arg) bool {
		return x.Name == y.Name && x.Type == y.Type
	})
}

func argTypes(as []Arg) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Type
	}
	return out
}
