package runtime

import "encoding/json"

// Event is a program-emitted event captured in a transaction record.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// TransactionRecord is the confirmed outcome of a submitted
// transaction. Records exist for failed transactions too; Err carries
// the program failure in that case.
type TransactionRecord struct {
	Signature string   `json:"signature"`
	Slot      uint64   `json:"slot"`
	BlockTime int64    `json:"blockTime"`
	Fee       uint64   `json:"fee"`
	Logs      []string `json:"logs,omitempty"`
	Events    []Event  `json:"events,omitempty"`
	Err       string   `json:"err,omitempty"`
}

// Failed reports whether the transaction was recorded as failed.
func (r *TransactionRecord) Failed() bool { return r != nil && r.Err != "" }

// clone returns a copy so callers cannot mutate the committed record.
func (r *TransactionRecord) clone() *TransactionRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Logs = append([]string(nil), r.Logs...)
	if r.Events != nil {
		cp.Events = make([]Event, len(r.Events))
		for i, ev := range r.Events {
			ev.Data = append(json.RawMessage(nil), ev.Data...)
			cp.Events[i] = ev
		}
	}
	return &cp
}

// CanonicalBytes returns the canonical JSON encoding used for archival
// content addressing.
func (r *TransactionRecord) CanonicalBytes() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses bytes produced by CanonicalBytes.
func DecodeRecord(raw []byte) (*TransactionRecord, error) {
	var rec TransactionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, wrapError(KindParse, "LEDGER-REC-001", "malformed transaction record", err)
	}
	return &rec, nil
}
