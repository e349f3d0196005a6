package contract

import (
	"encoding/json"
	"fmt"
	"time"

	"vehicleregistry/model"

	"github.com/google/uuid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// auditEventName is the single chaincode event set per transaction. Fabric
// keeps only the last SetEvent call, so all entries travel together.
const auditEventName = "RegistryAudit"

// auditNamespace seeds the deterministic audit entry ids.
var auditNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:vehicleregistry:audit"))

// auditPayload is the body of the RegistryAudit event.
type auditPayload struct {
	TxID    string              `json:"txId"`
	Entries []*model.AuditEntry `json:"entries"`
}

// auditEmitter buffers a transaction's audit entries in production order.
// Entries leave the buffer only through flush, which the engine calls after
// every check of the operation has passed.
type auditEmitter struct {
	txID    string
	caller  string
	now     time.Time
	entries []*model.AuditEntry
}

func newAuditEmitter(txID, caller string, now time.Time) *auditEmitter {
	return &auditEmitter{txID: txID, caller: caller, now: now}
}

func (a *auditEmitter) emit(entry model.AuditEntry) {
	seq := len(a.entries)
	entry.ObjectType = auditObjectType
	entry.TxID = a.txID
	entry.Seq = seq
	entry.EntryID = uuid.NewSHA1(auditNamespace, []byte(fmt.Sprintf("%s:%d", a.txID, seq))).String()
	entry.Caller = a.caller
	entry.Timestamp = a.now
	a.entries = append(a.entries, &entry)
}

func (a *auditEmitter) reset() {
	a.entries = nil
}

// --- Entry builders ---

func (a *auditEmitter) mintAttempted(recipient, vin string) {
	a.emit(model.AuditEntry{Event: model.EventMintAttempted, Recipient: recipient, VIN: vin})
}

func (a *auditEmitter) recordCreated(id uint64, recipient, vin string) {
	a.emit(model.AuditEntry{Event: model.EventRecordCreated, Record: &model.RecordRef{ID: id}, Recipient: recipient, VIN: vin})
}

func (a *auditEmitter) mintCompleted(id uint64) {
	a.emit(model.AuditEntry{Event: model.EventMintCompleted, Record: &model.RecordRef{ID: id}})
}

func (a *auditEmitter) updateAttempted(id, oldMileage, newMileage uint64) {
	a.emit(model.AuditEntry{
		Event:   model.EventUpdateAttempted,
		Record:  &model.RecordRef{ID: id},
		Mileage: &model.MileageChange{Old: oldMileage, New: newMileage},
	})
}

func (a *auditEmitter) updateCompleted(id uint64) {
	a.emit(model.AuditEntry{Event: model.EventUpdateCompleted, Record: &model.RecordRef{ID: id}})
}

func (a *auditEmitter) securitySignal(id uint64, reason string) {
	a.emit(model.AuditEntry{Event: model.EventSecurity, Record: &model.RecordRef{ID: id}, Reason: reason})
}

// domain emits an operation-specific entry. record is nil for registry-level
// events.
func (a *auditEmitter) domain(event model.AuditEventName, record *model.RecordRef, details map[string]string) {
	a.emit(model.AuditEntry{Event: event, Record: record, Details: details})
}

// --- Flush ---

func auditKey(stub shim.ChaincodeStubInterface, txID string, seq int) (string, error) {
	return stub.CreateCompositeKey(auditObjectType, []string{txID, fmt.Sprintf("%06d", seq)})
}

// flush stages every buffered entry in the store, commits the store and
// publishes the RegistryAudit event. Fabric discards both the writes and the
// event if the transaction fails afterwards.
func (a *auditEmitter) flush(stub shim.ChaincodeStubInterface, store *registryStore) error {
	for _, entry := range a.entries {
		key, err := auditKey(stub, a.txID, entry.Seq)
		if err != nil {
			return fmt.Errorf("failed to create audit key for seq %d: %w", entry.Seq, err)
		}
		if err := store.putJSON(key, entry); err != nil {
			return err
		}
	}
	if err := store.commit(); err != nil {
		return err
	}
	if len(a.entries) == 0 {
		return nil
	}
	payload, err := json.Marshal(auditPayload{TxID: a.txID, Entries: a.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal audit event payload: %w", err)
	}
	if err := stub.SetEvent(auditEventName, payload); err != nil {
		return fmt.Errorf("failed to set %s event: %w", auditEventName, err)
	}
	a.reset()
	return nil
}
