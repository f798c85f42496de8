package engine

import (
	"encoding/hex"
	"strings"

	"github.com/roach88/advcases/internal/ir"
)

// Value decodes the output with the message's return type. Instantiate
// returns unit, rendered as an empty array.
func (r *Receipt) Value() (ir.Value, error) {
	if r.Message == nil {
		return ir.Array{}, nil
	}
	return r.Message.DecodeOutput(r.Call.Output)
}

// ToIR renders the receipt as a JSON object. Byte fields are 0x-prefixed hex.
func (r *Receipt) ToIR() (ir.Object, error) {
	value, err := r.Value()
	if err != nil {
		return nil, err
	}
	obj := ir.Object{
		"kind":     ir.String(r.Call.Kind),
		"message":  ir.String(r.Call.Message),
		"selector": ir.String(r.Call.Selector),
		"caller":   ir.String(r.Call.Caller),
		"seq":      ir.Int(r.Call.Seq),
		"writes":   ir.Int(r.Call.Writes),
		"input":    ir.String(Hex(r.Call.Input)),
		"output":   ir.String(Hex(r.Call.Output)),
		"value":    value,
	}
	if r.Call.ID != "" {
		obj["id"] = ir.String(r.Call.ID)
	}
	return obj, nil
}

// Hex renders b as 0x-prefixed lowercase hex.
func Hex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// ParseHex decodes hex with or without a 0x prefix.
func ParseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
}
