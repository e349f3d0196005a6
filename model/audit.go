package model

import "time"

// AuditEventName identifies an entry in the audit trail.
type AuditEventName string

const (
	EventRegistryInitialized  AuditEventName = "RegistryInitialized"
	EventMintAttempted        AuditEventName = "MintAttempted"
	EventRecordCreated        AuditEventName = "RecordCreated"
	EventMintCompleted        AuditEventName = "MintCompleted"
	EventUpdateAttempted      AuditEventName = "UpdateAttempted"
	EventRecordUpdated        AuditEventName = "RecordUpdated"
	EventMaintenanceAdded     AuditEventName = "MaintenanceAdded"
	EventOwnerRefUpdated      AuditEventName = "OwnerRefUpdated"
	EventUpdateCompleted      AuditEventName = "UpdateCompleted"
	EventSecurity             AuditEventName = "SecurityEvent"
	EventDelegateGranted      AuditEventName = "DelegateGranted"
	EventDelegateRevoked      AuditEventName = "DelegateRevoked"
	EventOwnershipTransferred AuditEventName = "OwnershipTransferred"
	EventPaused               AuditEventName = "Paused"
	EventUnpaused             AuditEventName = "Unpaused"
	EventMintingPaused        AuditEventName = "MintingPaused"
	EventMintingUnpaused      AuditEventName = "MintingUnpaused"
)

// SignalMeasureDecreased is the reason attached to a SecurityEvent raised when
// an update lowers a record's mileage. The update itself is still applied.
const SignalMeasureDecreased = "MeasureDecreased"

// AuditEntry is one ordered entry of a transaction's audit trail. Entries are
// persisted under Audit~<txId>~<seq> and published together as the
// transaction's RegistryAudit chaincode event.
type AuditEntry struct {
	ObjectType string            `json:"objectType"` // "Audit"
	EntryID    string            `json:"entryId"`    // UUIDv5 of txId and seq
	TxID       string            `json:"txId"`
	Seq        int               `json:"seq"`
	Event      AuditEventName    `json:"event"`
	Caller     string            `json:"caller"`
	Timestamp  time.Time         `json:"timestamp"`
	Record     *RecordRef        `json:"record,omitempty"` // Nil for registry-level entries
	VIN        string            `json:"vin,omitempty"`
	Recipient  string            `json:"recipient,omitempty"`
	Mileage    *MileageChange    `json:"mileage,omitempty"` // Set on UpdateAttempted
	Reason     string            `json:"reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// RecordRef names the record an audit entry concerns.
type RecordRef struct {
	ID uint64 `json:"id"`
}

// MileageChange carries the before and after values of an update.
type MileageChange struct {
	Old uint64 `json:"old"`
	New uint64 `json:"new"`
}
