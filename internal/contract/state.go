package contract

import (
	"bytes"
	"fmt"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
)

// Field describes one persisted field.
type Field struct {
	Name      string          `json:"name"`
	Root      storage.RootKey `json:"root"`
	Kind      string          `json:"kind"` // "mapping" or "value"
	KeyType   string          `json:"key_type,omitempty"`
	ValueType string          `json:"value_type"`
}

// Layout lists the persisted fields in root key order.
func Layout() []Field {
	return []Field{
		{Name: "users", Root: RootUsers, Kind: "mapping", KeyType: abi.TypeU32, ValueType: abi.TypeUser},
		{Name: "users_num", Root: RootUsersNum, Kind: "value", ValueType: abi.TypeU32},
		{Name: "users_by_account", Root: RootUsersByAccount, Kind: "mapping", KeyType: abi.TypeAccountID, ValueType: abi.TypeU64},
	}
}

// StoredUser is a user together with the id it is stored under.
type StoredUser struct {
	ID   uint32
	User abi.User
}

// AccountEntry is one users_by_account entry.
type AccountEntry struct {
	Account abi.AccountID
	Value   uint64
}

// State is the decoded content of every persisted field.
type State struct {
	Instantiated bool
	UsersNum     uint32
	Users        []StoredUser
	Accounts     []AccountEntry
}

// Snapshot decodes a full cell listing. Cells under unknown roots are an
// error: the layout is closed.
func Snapshot(cells []storage.Cell) (State, error) {
	var s State
	for _, c := range cells {
		root, ok := storage.Root(c.Key)
		if !ok || root > RootUsersByAccount {
			return State{}, fmt.Errorf("%w: key %x outside the layout", storage.ErrCorrupt, c.Key)
		}
		if root == RootUsersNum {
			if !bytes.Equal(c.Key, RootUsersNum.Key(nil)) {
				return State{}, fmt.Errorf("%w: key %x under a single-value root", storage.ErrCorrupt, c.Key)
			}
			n, err := usersNum.Decode(c.Value)
			if err != nil {
				return State{}, err
			}
			s.Instantiated = true
			s.UsersNum = n
		}
	}

	ids, us, err := users.Entries(cells)
	if err != nil {
		return State{}, err
	}
	for i := range ids {
		s.Users = append(s.Users, StoredUser{ID: ids[i], User: us[i]})
	}

	accounts, vals, err := usersByAccount.Entries(cells)
	if err != nil {
		return State{}, err
	}
	for i := range accounts {
		s.Accounts = append(s.Accounts, AccountEntry{Account: accounts[i], Value: vals[i]})
	}
	return s, nil
}

// ToIR renders the state for display.
func (s State) ToIR() ir.Value {
	us := make(ir.Array, len(s.Users))
	for i, su := range s.Users {
		us[i] = ir.Object{"id": ir.Int(su.ID), "user": su.User.ToIR()}
	}
	accts := make(ir.Array, len(s.Accounts))
	for i, a := range s.Accounts {
		accts[i] = ir.Object{"account": a.Account.ToIR(), "value": ir.Uint64(a.Value)}
	}
	return ir.Object{
		"instantiated":     ir.Bool(s.Instantiated),
		"users_num":        ir.Int(s.UsersNum),
		"users":            us,
		"users_by_account": accts,
	}
}
