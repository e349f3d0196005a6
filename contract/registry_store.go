package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"vehicleregistry/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Object types for composite keys, also usable as 'docType' in CouchDB.
const (
	registryStateKey   = "RegistryState"
	recordObjectType   = "VehicleRecord" // Attribute: zero-padded id.
	vinIndexObjectType = "VIN"           // Attribute: VIN. Value: decimal id.
	delegateObjectType = "Delegate"      // Attribute: FullID.
	auditObjectType    = "Audit"         // Attributes: txId, zero-padded seq.
	maintenanceObjType = "Maintenance"   // Attributes: zero-padded record id, zero-padded seq.
)

// registryStore stages every write of one transaction in memory. Reads see
// staged writes first, which plain GetState does not do within a Fabric
// transaction. Nothing reaches the stub until commit, so a rejected
// operation leaves the world state exactly as it found it.
type registryStore struct {
	stub    shim.ChaincodeStubInterface
	pending map[string][]byte
	deleted map[string]bool
	order   []string
}

func newRegistryStore(stub shim.ChaincodeStubInterface) *registryStore {
	return &registryStore{
		stub:    stub,
		pending: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (rs *registryStore) getRaw(key string) ([]byte, error) {
	if rs.deleted[key] {
		return nil, nil
	}
	if v, ok := rs.pending[key]; ok {
		return v, nil
	}
	return rs.stub.GetState(key)
}

func (rs *registryStore) track(key string) {
	if _, ok := rs.pending[key]; ok {
		return
	}
	if rs.deleted[key] {
		return
	}
	rs.order = append(rs.order, key)
}

func (rs *registryStore) putRaw(key string, value []byte) {
	rs.track(key)
	delete(rs.deleted, key)
	rs.pending[key] = value
}

func (rs *registryStore) delRaw(key string) {
	rs.track(key)
	delete(rs.pending, key)
	rs.deleted[key] = true
}

func (rs *registryStore) putJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key '%s': %w", key, err)
	}
	rs.putRaw(key, b)
	return nil
}

// commit flushes staged writes to the stub in the order they were made.
func (rs *registryStore) commit() error {
	for _, key := range rs.order {
		if rs.deleted[key] {
			if err := rs.stub.DelState(key); err != nil {
				return fmt.Errorf("failed to delete key '%s': %w", key, err)
			}
			continue
		}
		if err := rs.stub.PutState(key, rs.pending[key]); err != nil {
			return fmt.Errorf("failed to write key '%s': %w", key, err)
		}
	}
	rs.discard()
	return nil
}

// discard drops every staged write.
func (rs *registryStore) discard() {
	rs.pending = make(map[string][]byte)
	rs.deleted = make(map[string]bool)
	rs.order = nil
}

func (rs *registryStore) pendingWrites() int {
	return len(rs.order)
}

// --- Keys ---

func recordKeyAttr(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

func (rs *registryStore) recordKey(id uint64) (string, error) {
	return rs.stub.CreateCompositeKey(recordObjectType, []string{recordKeyAttr(id)})
}

func (rs *registryStore) vinKey(vin string) (string, error) {
	return rs.stub.CreateCompositeKey(vinIndexObjectType, []string{vin})
}

func (rs *registryStore) maintenanceKey(id, seq uint64) (string, error) {
	return rs.stub.CreateCompositeKey(maintenanceObjType, []string{recordKeyAttr(id), fmt.Sprintf("%010d", seq)})
}

func (rs *registryStore) delegateKey(fullID string) (string, error) {
	return rs.stub.CreateCompositeKey(delegateObjectType, []string{fullID})
}

// --- Registry state ---

func (rs *registryStore) loadState() (*model.RegistryState, error) {
	b, err := rs.getRaw(registryStateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry state: %w", err)
	}
	if b == nil {
		return nil, newRegistryError(ErrNotInitialized, "", "", "registry has not been initialized")
	}
	var state model.RegistryState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry state: %w", err)
	}
	return &state, nil
}

func (rs *registryStore) isInitialized() (bool, error) {
	b, err := rs.getRaw(registryStateKey)
	if err != nil {
		return false, fmt.Errorf("failed to read registry state: %w", err)
	}
	return b != nil, nil
}

func (rs *registryStore) saveState(state *model.RegistryState) error {
	state.ObjectType = registryStateKey
	return rs.putJSON(registryStateKey, state)
}

func (rs *registryStore) count() (uint64, error) {
	state, err := rs.loadState()
	if err != nil {
		return 0, err
	}
	return state.NextID, nil
}

// --- Records ---

func (rs *registryStore) vinExists(vin string) (bool, error) {
	key, err := rs.vinKey(vin)
	if err != nil {
		return false, fmt.Errorf("failed to create vin index key for '%s': %w", vin, err)
	}
	b, err := rs.getRaw(key)
	if err != nil {
		return false, fmt.Errorf("failed to read vin index for '%s': %w", vin, err)
	}
	return b != nil, nil
}

func (rs *registryStore) idForVIN(vin string) (uint64, error) {
	key, err := rs.vinKey(vin)
	if err != nil {
		return 0, fmt.Errorf("failed to create vin index key for '%s': %w", vin, err)
	}
	b, err := rs.getRaw(key)
	if err != nil {
		return 0, fmt.Errorf("failed to read vin index for '%s': %w", vin, err)
	}
	if b == nil {
		return 0, newRegistryError(ErrNotFound, "vin", "", "no record with vin '%s'", vin)
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt vin index for '%s': %w", vin, err)
	}
	return id, nil
}

func (rs *registryStore) get(id uint64) (*model.VehicleRecord, error) {
	key, err := rs.recordKey(id)
	if err != nil {
		return nil, fmt.Errorf("failed to create record key for id %d: %w", id, err)
	}
	b, err := rs.getRaw(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %d: %w", id, err)
	}
	if b == nil {
		return nil, newRegistryError(ErrNotFound, "id", "", "record %d does not exist", id)
	}
	var rec model.VehicleRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %d: %w", id, err)
	}
	return &rec, nil
}

// insert assigns the next id, stores the record and marks its VIN as used.
// The VIN check is a single key lookup.
func (rs *registryStore) insert(rec *model.VehicleRecord) (uint64, error) {
	state, err := rs.loadState()
	if err != nil {
		return 0, err
	}
	exists, err := rs.vinExists(rec.VIN)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, newRegistryError(ErrDuplicateIdentifier, "vin", "", "vin '%s' is already registered", rec.VIN)
	}
	if state.NextID >= state.MaxTokens {
		return 0, newRegistryError(ErrMintLimitReached, "maxTokens", strconv.FormatUint(state.MaxTokens, 10),
			"registry has reached its ceiling of %d records", state.MaxTokens)
	}

	rec.ObjectType = recordObjectType
	rec.ID = state.NextID

	recKey, err := rs.recordKey(rec.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to create record key for id %d: %w", rec.ID, err)
	}
	vinKey, err := rs.vinKey(rec.VIN)
	if err != nil {
		return 0, fmt.Errorf("failed to create vin index key for '%s': %w", rec.VIN, err)
	}
	if err := rs.putJSON(recKey, rec); err != nil {
		return 0, err
	}
	rs.putRaw(vinKey, []byte(strconv.FormatUint(rec.ID, 10)))

	state.NextID++
	if err := rs.saveState(state); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (rs *registryStore) put(rec *model.VehicleRecord) error {
	key, err := rs.recordKey(rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create record key for id %d: %w", rec.ID, err)
	}
	return rs.putJSON(key, rec)
}

func (rs *registryStore) updateMileageAndCondition(id, mileage uint64, condition string, at time.Time) (*model.VehicleRecord, error) {
	rec, err := rs.get(id)
	if err != nil {
		return nil, err
	}
	rec.Mileage = mileage
	rec.Condition = condition
	rec.LastUpdated = at
	return rec, rs.put(rec)
}

func (rs *registryStore) updateMileageAndServiceTime(id, mileage uint64, at time.Time) (*model.VehicleRecord, error) {
	rec, err := rs.get(id)
	if err != nil {
		return nil, err
	}
	rec.Mileage = mileage
	rec.LastServiceAt = at
	rec.LastUpdated = at
	return rec, rs.put(rec)
}

// appendMaintenance stores entry as the next service log line of rec and
// bumps the record's ServiceCount. Existing entries are never rewritten.
func (rs *registryStore) appendMaintenance(rec *model.VehicleRecord, entry *model.MaintenanceEntry) error {
	entry.ObjectType = maintenanceObjType
	entry.RecordID = rec.ID
	entry.Seq = rec.ServiceCount
	key, err := rs.maintenanceKey(rec.ID, entry.Seq)
	if err != nil {
		return fmt.Errorf("failed to create maintenance key for record %d: %w", rec.ID, err)
	}
	if err := rs.putJSON(key, entry); err != nil {
		return err
	}
	rec.ServiceCount++
	return rs.put(rec)
}

// maintenanceLog returns the committed service log of a record in seq order.
func (rs *registryStore) maintenanceLog(id uint64) ([]*model.MaintenanceEntry, error) {
	iter, err := rs.stub.GetStateByPartialCompositeKey(maintenanceObjType, []string{recordKeyAttr(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to get maintenance iterator for record %d: %w", id, err)
	}
	defer iter.Close()

	entries := []*model.MaintenanceEntry{}
	for iter.HasNext() {
		kv, iterErr := iter.Next()
		if iterErr != nil {
			return nil, fmt.Errorf("failed to iterate maintenance log of record %d: %w", id, iterErr)
		}
		var entry model.MaintenanceEntry
		if err := json.Unmarshal(kv.Value, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal maintenance entry '%s': %w", kv.Key, err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (rs *registryStore) updateOwnerRef(id uint64, owner string, at time.Time) (*model.VehicleRecord, error) {
	rec, err := rs.get(id)
	if err != nil {
		return nil, err
	}
	rec.CurrentOwner = owner
	rec.LastUpdated = at
	return rec, rs.put(rec)
}

// --- Delegates ---

func (rs *registryStore) isDelegated(fullID string) (bool, error) {
	key, err := rs.delegateKey(fullID)
	if err != nil {
		return false, fmt.Errorf("failed to create delegate key for '%s': %w", fullID, err)
	}
	b, err := rs.getRaw(key)
	if err != nil {
		return false, fmt.Errorf("failed to read delegate flag for '%s': %w", fullID, err)
	}
	return b != nil, nil
}

func (rs *registryStore) setDelegated(info *model.DelegateInfo, granted bool) error {
	key, err := rs.delegateKey(info.FullID)
	if err != nil {
		return fmt.Errorf("failed to create delegate key for '%s': %w", info.FullID, err)
	}
	if !granted {
		rs.delRaw(key)
		return nil
	}
	info.ObjectType = delegateObjectType
	return rs.putJSON(key, info)
}
