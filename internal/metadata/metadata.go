// Package metadata loads the contract's ABI description.
//
// The description is a CUE document embedded in the binary. It lists the
// constructors, the messages with their argument and return types, the
// persisted storage fields with their root keys, and the user-defined types.
// Callers use it to discover the call surface; Verify checks it against the
// live dispatch table so the two cannot drift apart.
package metadata

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/ir"
)

//go:embed advcases.cue
var source []byte

// Arg is a named, typed argument or struct field.
type Arg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Constructor describes one constructor.
type Constructor struct {
	Label    string `json:"label"`
	Selector string `json:"selector"`
	Args     []Arg  `json:"args"`
}

// Message describes one message.
type Message struct {
	Label    string `json:"label"`
	Selector string `json:"selector"`
	Mutates  bool   `json:"mutates"`
	Args     []Arg  `json:"args"`
	Returns  string `json:"returns"`
}

// Field describes one persisted storage field.
type Field struct {
	Name  string `json:"name"`
	Root  uint32 `json:"root"`
	Kind  string `json:"kind"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// TypeDef describes one user-defined type.
type TypeDef struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Variants []string `json:"variants,omitempty"`
	Fields   []Arg    `json:"fields,omitempty"`
}

// Metadata is the decoded ABI description.
type Metadata struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Constructors []Constructor `json:"constructors"`
	Messages     []Message     `json:"messages"`
	Storage      []Field       `json:"storage"`
	Types        []TypeDef     `json:"types"`
}

// Error is a metadata document error with source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// Load compiles and decodes the embedded description.
func Load() (*Metadata, error) {
	return Parse(source, "advcases.cue")
}

// Parse compiles and decodes a description from src.
func Parse(src []byte, filename string) (*Metadata, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	c := v.LookupPath(cue.ParsePath("contract"))
	if !c.Exists() {
		return nil, &Error{Field: "contract", Message: "contract is required", Pos: v.Pos()}
	}
	if err := c.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Metadata{}
	var err error
	if m.Name, err = stringAt(c, "name"); err != nil {
		return nil, err
	}
	if m.Version, err = stringAt(c, "version"); err != nil {
		return nil, err
	}
	if m.Constructors, err = parseConstructors(c); err != nil {
		return nil, err
	}
	if m.Messages, err = parseMessages(c); err != nil {
		return nil, err
	}
	if m.Storage, err = parseStorage(c); err != nil {
		return nil, err
	}
	if m.Types, err = parseTypes(c); err != nil {
		return nil, err
	}
	return m, nil
}

func stringAt(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", &Error{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func parseArgs(v cue.Value, path string) ([]Arg, error) {
	args := []Arg{}
	list := v.LookupPath(cue.ParsePath(path))
	if !list.Exists() {
		return args, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		var a Arg
		if a.Name, err = stringAt(iter.Value(), "name"); err != nil {
			return nil, err
		}
		if a.Type, err = stringAt(iter.Value(), "type"); err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func parseConstructors(c cue.Value) ([]Constructor, error) {
	var out []Constructor
	iter, err := c.LookupPath(cue.ParsePath("constructors")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		args, err := parseArgs(iter.Value(), "args")
		if err != nil {
			return nil, err
		}
		out = append(out, Constructor{
			Label:    label,
			Selector: abi.SelectorOf(label).String(),
			Args:     args,
		})
	}
	return out, nil
}

func parseMessages(c cue.Value) ([]Message, error) {
	var out []Message
	iter, err := c.LookupPath(cue.ParsePath("messages")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		mv := iter.Value()

		msg := Message{Label: label, Selector: abi.SelectorOf(label).String()}
		mut, _ := mv.LookupPath(cue.ParsePath("mutates")).Default()
		if msg.Mutates, err = mut.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
		if msg.Args, err = parseArgs(mv, "args"); err != nil {
			return nil, err
		}
		if msg.Returns, err = stringAt(mv, "returns"); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func parseStorage(c cue.Value) ([]Field, error) {
	var out []Field
	iter, err := c.LookupPath(cue.ParsePath("storage")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		fv := iter.Value()
		f := Field{Name: iter.Label()}

		root, err := fv.LookupPath(cue.ParsePath("root")).Uint64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if root > 1<<32-1 {
			return nil, &Error{Field: "storage." + f.Name + ".root", Message: "root key must fit in 32 bits", Pos: fv.Pos()}
		}
		f.Root = uint32(root)
		if f.Kind, err = stringAt(fv, "kind"); err != nil {
			return nil, err
		}
		if f.Value, err = stringAt(fv, "value"); err != nil {
			return nil, err
		}
		if key := fv.LookupPath(cue.ParsePath("key")); key.Exists() && key.IsConcrete() {
			if f.Key, err = key.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if f.Kind == "mapping" && f.Key == "" {
			return nil, &Error{Field: "storage." + f.Name + ".key", Message: "mappings need a key type", Pos: fv.Pos()}
		}
		out = append(out, f)
	}
	return out, nil
}

func parseTypes(c cue.Value) ([]TypeDef, error) {
	var out []TypeDef
	iter, err := c.LookupPath(cue.ParsePath("types")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		tv := iter.Value()
		td := TypeDef{Name: iter.Label()}
		if td.Kind, err = stringAt(tv, "kind"); err != nil {
			return nil, err
		}
		switch td.Kind {
		case "enum":
			td.Variants = []string{}
			vars := tv.LookupPath(cue.ParsePath("variants"))
			if vars.Exists() {
				vi, err := vars.List()
				if err != nil {
					return nil, formatCUEError(err)
				}
				for vi.Next() {
					s, err := vi.Value().String()
					if err != nil {
						return nil, formatCUEError(err)
					}
					td.Variants = append(td.Variants, s)
				}
			}
		case "struct":
			if td.Fields, err = parseArgs(tv, "fields"); err != nil {
				return nil, err
			}
		}
		out = append(out, td)
	}
	return out, nil
}

// Message returns the message with the given label.
func (m *Metadata) Message(label string) (Message, bool) {
	for _, msg := range m.Messages {
		if msg.Label == label {
			return msg, true
		}
	}
	return Message{}, false
}

// ToIR renders the description for hashing and display.
func (m *Metadata) ToIR() ir.Value {
	args := func(as []Arg) ir.Array {
		out := make(ir.Array, len(as))
		for i, a := range as {
			out[i] = ir.Object{"name": ir.String(a.Name), "type": ir.String(a.Type)}
		}
		return out
	}

	ctors := make(ir.Array, len(m.Constructors))
	for i, c := range m.Constructors {
		ctors[i] = ir.Object{"label": ir.String(c.Label), "selector": ir.String(c.Selector), "args": args(c.Args)}
	}
	msgs := make(ir.Array, len(m.Messages))
	for i, msg := range m.Messages {
		msgs[i] = ir.Object{
			"label":    ir.String(msg.Label),
			"selector": ir.String(msg.Selector),
			"mutates":  ir.Bool(msg.Mutates),
			"args":     args(msg.Args),
			"returns":  ir.String(msg.Returns),
		}
	}
	fields := make(ir.Array, len(m.Storage))
	for i, f := range m.Storage {
		obj := ir.Object{
			"name":  ir.String(f.Name),
			"root":  ir.Int(f.Root),
			"kind":  ir.String(f.Kind),
			"value": ir.String(f.Value),
		}
		if f.Key != "" {
			obj["key"] = ir.String(f.Key)
		}
		fields[i] = obj
	}
	types := make(ir.Array, len(m.Types))
	for i, td := range m.Types {
		obj := ir.Object{"name": ir.String(td.Name), "kind": ir.String(td.Kind)}
		if td.Kind == "enum" {
			vs := make(ir.Array, len(td.Variants))
			for j, v := range td.Variants {
				vs[j] = ir.String(v)
			}
			obj["variants"] = vs
		} else {
			obj["fields"] = args(td.Fields)
		}
		types[i] = obj
	}

	return ir.Object{
		"name":         ir.String(m.Name),
		"version":      ir.String(m.Version),
		"constructors": ctors,
		"messages":     msgs,
		"storage":      fields,
		"types":        types,
	}
}

// Hash is the code hash: a domain-separated SHA-256 of the description's
// canonical JSON.
func (m *Metadata) Hash() (string, error) {
	return ir.Digest(ir.DomainMetadata, m.ToIR())
}
