package dispatch

import (
	"context"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/scale"
)

func noArgs(run thunk) func(*scale.Decoder) (thunk, error) {
	return func(*scale.Decoder) (thunk, error) { return run, nil }
}

func messages() []*Message {
	return []*Message{
		{
			Label:   "add",
			Mutates: true,
			Args:    []Arg{{Name: "user", Type: abi.TypeUser}},
			Returns: abi.TypeUnit,
			bind: func(d *scale.Decoder) (thunk, error) {
				u, err := abi.DecodeUser(d)
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, _ *scale.Encoder) error {
					return c.Add(ctx, u)
				}, nil
			},
		},
		{
			Label:   "get_user",
			Args:    []Arg{{Name: "idx", Type: abi.TypeU32}},
			Returns: abi.TypeUser,
			bind: func(d *scale.Decoder) (thunk, error) {
				idx, err := d.U32()
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
					u, err := c.GetUser(ctx, idx)
					if err != nil {
						return err
					}
					return u.EncodeTo(out)
				}, nil
			},
		},
		{
			Label:   "get_user_by_result",
			Args:    []Arg{{Name: "idx", Type: abi.TypeU32}},
			Returns: abi.TypeUserResult,
			bind: func(d *scale.Decoder) (thunk, error) {
				idx, err := d.U32()
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
					r, err := c.GetUserByResult(ctx, idx)
					if err != nil {
						return err
					}
					return r.EncodeTo(out)
				}, nil
			},
		},
		{
			Label:   "get_integers",
			Returns: abi.TypeIntegers,
			bind: noArgs(func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
				return c.GetIntegers(ctx).EncodeTo(out)
			}),
		},
		{
			Label:   "get_array",
			Args:    []Arg{{Name: "text", Type: abi.TypeString}},
			Returns: abi.TypeU64s,
			bind: func(d *scale.Decoder) (thunk, error) {
				text, err := d.String()
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
					abi.EncodeU64s(out, c.GetArray(ctx, text))
					return nil
				}, nil
			},
		},
		{
			Label:   "get_tuple",
			Args:    []Arg{{Name: "text", Type: abi.TypeString}},
			Returns: abi.TypeTuple,
			bind: func(d *scale.Decoder) (thunk, error) {
				text, err := d.String()
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
					return c.GetTuple(ctx, text).EncodeTo(out)
				}, nil
			},
		},
		{
			Label:   "sample",
			Args:    []Arg{{Name: "value", Type: abi.TypeError2}},
			Returns: abi.TypeU8,
			bind: func(d *scale.Decoder) (thunk, error) {
				v, err := abi.DecodeError2(d)
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, c *contract.AdvCases, out *scale.Encoder) error {
					out.U8(c.Sample(ctx, v))
					return nil
				}, nil
			},
		},
		{
			Label:   "handle_req",
			Returns: abi.TypeUnit,
			bind: noArgs(func(ctx context.Context, c *contract.AdvCases, _ *scale.Encoder) error {
				c.HandleReq(ctx)
				return nil
			}),
		},
	}
}
