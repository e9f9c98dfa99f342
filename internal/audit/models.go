package audit

import "time"

// Event records one lifecycle action. Events never carry secret material;
// a commitment is identified by its outpoint only.
type Event struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Action          Action    `json:"action"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	Outpoint        string    `json:"outpoint,omitempty"`
	TxID            string    `json:"txid,omitempty"`
	CertificateType string    `json:"certificate_type,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
}

// Key is the partitioning key: the serial number when known, otherwise
// the outpoint.
func (e Event) Key() string {
	if e.SerialNumber != "" {
		return e.SerialNumber
	}
	return e.Outpoint
}

type Action string

const (
	ActionCertificateIssued  Action = "certificate_issued"
	ActionCertificateRevoked Action = "certificate_revoked"
	ActionCommitmentOrphaned Action = "commitment_orphaned"
	ActionOrphanReclaimed    Action = "orphan_reclaimed"
	ActionOrphanAbandoned    Action = "orphan_abandoned"
	ActionStoreCorruption    Action = "store_corruption_detected"
)
