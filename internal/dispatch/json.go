package dispatch

import (
	"fmt"
	"slices"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/scale"
)

// EncodeArgs converts named JSON arguments into SCALE input for m. Every
// argument is required and unknown names are rejected.
func (m *Message) EncodeArgs(args ir.Object) ([]byte, error) {
	for _, k := range args.SortedKeys() {
		if !slices.ContainsFunc(m.Args, func(a Arg) bool { return a.Name == k }) {
			return nil, newError(ErrCodeInvalidArgs, m.Label, fmt.Sprintf("unknown argument %q", k), nil)
		}
	}
	e := scale.NewEncoder()
	for _, a := range m.Args {
		v, ok := args[a.Name]
		if !ok {
			return nil, newError(ErrCodeInvalidArgs, m.Label, fmt.Sprintf("missing argument %q", a.Name), nil)
		}
		codec, ok := abi.Lookup(a.Type)
		if !ok {
			return nil, newError(ErrCodeInvalidArgs, m.Label, fmt.Sprintf("argument %q has unregistered type %s", a.Name, a.Type), nil)
		}
		if err := codec.Encode(e, v); err != nil {
			return nil, newError(ErrCodeInvalidArgs, m.Label, fmt.Sprintf("argument %q", a.Name), err)
		}
	}
	return e.Bytes(), nil
}

// DecodeArgs renders SCALE input for m as named JSON arguments.
func (m *Message) DecodeArgs(input []byte) (ir.Object, error) {
	d := scale.NewDecoder(input)
	out := make(ir.Object, len(m.Args))
	for _, a := range m.Args {
		codec, ok := abi.Lookup(a.Type)
		if !ok {
			return nil, newError(ErrCodeDecodeFailed, m.Label, "unregistered type "+a.Type, nil)
		}
		v, err := codec.Decode(d)
		if err != nil {
			return nil, newError(ErrCodeDecodeFailed, m.Label, fmt.Sprintf("argument %q", a.Name), err)
		}
		out[a.Name] = v
	}
	if err := d.Finish(); err != nil {
		return nil, newError(ErrCodeTrailingInput, m.Label, "input longer than arguments", err)
	}
	return out, nil
}

// DecodeOutput renders m's SCALE return value as JSON.
func (m *Message) DecodeOutput(output []byte) (ir.Value, error) {
	codec, ok := abi.Lookup(m.Returns)
	if !ok {
		return nil, newError(ErrCodeDecodeFailed, m.Label, "unregistered type "+m.Returns, nil)
	}
	d := scale.NewDecoder(output)
	v, err := codec.Decode(d)
	if err == nil {
		err = d.Finish()
	}
	if err != nil {
		return nil, newError(ErrCodeDecodeFailed, m.Label, "return value does not decode", err)
	}
	return v, nil
}
