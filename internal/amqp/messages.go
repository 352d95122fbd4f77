package amqp

import (
	"encoding/json"
	"time"
)

// ReadyToPayDigest summarizes the expenses currently payable for one
// fiscal host. Consumers fetch full expense data themselves; the digest
// carries only ids and the running total.
type ReadyToPayDigest struct {
	HostSlug   string    `json:"host_slug"`
	ExpenseIDs []int64   `json:"expense_ids"`
	TotalCents int64     `json:"total_cents"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewReadyToPayDigest(hostSlug string, expenseIDs []int64, totalCents int64) *ReadyToPayDigest {
	return &ReadyToPayDigest{
		HostSlug:   hostSlug,
		ExpenseIDs: expenseIDs,
		TotalCents: totalCents,
		Timestamp:  time.Now(),
	}
}

func (m *ReadyToPayDigest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReadyToPayDigestFromJSON(data []byte) (*ReadyToPayDigest, error) {
	var msg ReadyToPayDigest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
