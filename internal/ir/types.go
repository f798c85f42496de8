package ir

// CallKind distinguishes journaled calls.
type CallKind string

const (
	// CallInstantiate runs a constructor against empty storage.
	CallInstantiate CallKind = "instantiate"
	// CallTransact runs a message and commits its storage writes.
	CallTransact CallKind = "tx"
	// CallQuery runs a message as a dry run. Queries are never journaled.
	CallQuery CallKind = "query"
)

// Call is one journaled, committed call.
type Call struct {
	ID       string   `json:"id"`       // UUIDv7
	Seq      int64    `json:"seq"`      // Logical clock
	Kind     CallKind `json:"kind"`     // instantiate | tx
	Caller   string   `json:"caller"`   // 0x-prefixed account id
	Message  string   `json:"message"`  // Message or constructor label
	Selector string   `json:"selector"` // 0x-prefixed 4-byte selector
	Input    []byte   `json:"input"`    // SCALE-encoded arguments
	Output   []byte   `json:"output"`   // SCALE-encoded return value
	Writes   int      `json:"writes"`   // Storage cells written or removed
}
