// Package dispatch routes encoded calls to the record store.
//
// A call names a message by label or by selector and carries the message's
// arguments SCALE-encoded back to back. Dispatch decodes the arguments,
// refuses leftover bytes, runs the message and SCALE-encodes its return
// value. JSON helpers translate named JSON arguments to and from that input.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/scale"
)

// Arg is one named message argument.
type Arg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// thunk runs a message whose arguments are already decoded.
type thunk func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error

// Message is one dispatchable operation.
type Message struct {
	Label    string
	Selector abi.Selector
	Mutates  bool
	Args     []Arg
	Returns  string

	bind func(d *scale.Decoder) (thunk, error)
}

// Constructor is one way to initialise storage.
type Constructor struct {
	Label    string
	Selector abi.Selector
	Args     []Arg

	run func(ctx context.Context, c *contract.AdvCases) error
}

// Registry is the fixed message table.
type Registry struct {
	messages     []*Message
	byLabel      map[string]*Message
	bySelector   map[abi.Selector]*Message
	constructors []*Constructor
}

// NewRegistry builds the message table.
func NewRegistry() *Registry {
	r := &Registry{
		byLabel:    make(map[string]*Message),
		bySelector: make(map[abi.Selector]*Message),
	}
	r.constructors = []*Constructor{{
		Label:    "default",
		Selector: abi.SelectorOf("default"),
		run:      func(ctx context.Context, c *contract.AdvCases) error { return c.Default(ctx) },
	}}
	for _, m := range messages() {
		m.Selector = abi.SelectorOf(m.Label)
		if _, dup := r.bySelector[m.Selector]; dup {
			panic("dispatch: selector collision on " + m.Label)
		}
		r.messages = append(r.messages, m)
		r.byLabel[m.Label] = m
		r.bySelector[m.Selector] = m
	}
	return r
}

// Messages returns the messages in declaration order.
func (r *Registry) Messages() []*Message {
	return append([]*Message(nil), r.messages...)
}

// Constructors returns the constructors in declaration order.
func (r *Registry) Constructors() []*Constructor {
	return append([]*Constructor(nil), r.constructors...)
}

// Lookup finds a message by label, or by selector written as hex.
func (r *Registry) Lookup(name string) (*Message, error) {
	if m, ok := r.byLabel[name]; ok {
		return m, nil
	}
	if sel, err := abi.ParseSelector(name); err == nil {
		if m, ok := r.bySelector[sel]; ok {
			return m, nil
		}
	}
	return nil, newError(ErrCodeUnknownMessage, name, "no message with this label or selector", nil)
}

// Constructor finds a constructor by label.
func (r *Registry) Constructor(label string) (*Constructor, error) {
	for _, c := range r.constructors {
		if c.Label == label {
			return c, nil
		}
	}
	return nil, newError(ErrCodeUnknownMessage, label, "no constructor with this label", nil)
}

// Instantiate runs a constructor. Constructors take no input.
func (r *Registry) Instantiate(ctx context.Context, c *contract.AdvCases, label string, input []byte) error {
	ctor, err := r.Constructor(label)
	if err != nil {
		return err
	}
	if len(input) > 0 {
		return newError(ErrCodeTrailingInput, label, fmt.Sprintf("%d bytes after arguments", len(input)), scale.ErrTrailingBytes)
	}
	if err := ctor.run(ctx, c); err != nil {
		return newError(ErrCodeStorageFailed, label, "constructor failed", err)
	}
	return nil
}

// Call decodes input as m's arguments, runs m against c and returns the
// encoded return value.
func (r *Registry) Call(ctx context.Context, c *contract.AdvCases, m *Message, input []byte) ([]byte, error) {
	d := scale.NewDecoder(input)
	run, err := m.bind(d)
	if err != nil {
		return nil, newError(ErrCodeDecodeFailed, m.Label, "arguments do not decode", err)
	}
	if err := d.Finish(); err != nil {
		return nil, newError(ErrCodeTrailingInput, m.Label, "input longer than arguments", err)
	}

	out := scale.NewEncoder()
	if err := run(ctx, c, out); err != nil {
		if errors.Is(err, contract.ErrIDsExhausted) {
			return nil, newError(ErrCodeTrapped, m.Label, "call trapped", err)
		}
		return nil, newError(ErrCodeStorageFailed, m.Label, "storage access failed", err)
	}
	return out.Bytes(), nil
}

// CallData splits call data into selector and arguments and dispatches it.
func (r *Registry) CallData(ctx context.Context, c *contract.AdvCases, data []byte) (*Message, []byte, error) {
	if len(data) < 4 {
		return nil, nil, newError(ErrCodeDecodeFailed, "", "call data shorter than a selector", scale.ErrUnexpectedEOF)
	}
	var sel abi.Selector
	copy(sel[:], data[:4])
	m, ok := r.bySelector[sel]
	if !ok {
		return nil, nil, newError(ErrCodeUnknownMessage, sel.String(), "no message with this selector", nil)
	}
	out, err := r.Call(ctx, c, m, data[4:])
	return m, out, err
}
