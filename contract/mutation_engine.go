package contract

import (
	"fmt"
	"strconv"
	"time"

	"vehicleregistry/metrics"
	"vehicleregistry/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// mutationEngine runs one state-changing transaction: authorize, validate,
// check against the store, mutate, then emit. Every check of an operation
// runs before its first audit entry, and nothing is written to the ledger
// until commit. One engine serves exactly one transaction.
type mutationEngine struct {
	stub   shim.ChaincodeStubInterface
	store  *registryStore
	access *AccessManager
	audit  *auditEmitter
	caller string
	now    time.Time
}

func newMutationEngine(ctx contractapi.TransactionContextInterface) (*mutationEngine, error) {
	stub := ctx.GetStub()
	store := newRegistryStore(stub)
	access := newAccessManager(ctx, store)

	caller, err := access.GetCurrentIdentityFullID()
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}
	now, err := getCurrentTxTimestamp(ctx)
	if err != nil {
		return nil, err
	}
	return &mutationEngine{
		stub:   stub,
		store:  store,
		access: access,
		audit:  newAuditEmitter(stub.GetTxID(), caller, now),
		caller: caller,
		now:    now,
	}, nil
}

// commit writes the staged state and the audit trail.
func (e *mutationEngine) commit() error {
	return e.audit.flush(e.stub, e.store)
}

// abort drops staged writes and buffered audit entries.
func (e *mutationEngine) abort() {
	e.store.discard()
	e.audit.reset()
}

// --- Initialization ---

func (e *mutationEngine) initRegistry(maxTokens uint64) (*model.RegistryState, error) {
	initialized, err := e.store.isInitialized()
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, newRegistryError(ErrAlreadyInitialized, "", "", "registry is already initialized")
	}
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	state := &model.RegistryState{
		Owner:         e.caller,
		MaxTokens:     maxTokens,
		NextID:        0,
		InitializedAt: e.now,
		LastUpdated:   e.now,
	}
	if err := e.store.saveState(state); err != nil {
		return nil, err
	}
	e.audit.domain(model.EventRegistryInitialized, nil, map[string]string{
		"owner":     e.caller,
		"maxTokens": strconv.FormatUint(maxTokens, 10),
	})
	return state, nil
}

// --- Mint ---

// requireMintAllowed checks the caller and the pause flags once per
// transaction, before any entry of a mint or batch mint is looked at.
func (e *mutationEngine) requireMintAllowed() error {
	if err := e.access.RequireOwner(e.caller); err != nil {
		return err
	}
	state, err := e.store.loadState()
	if err != nil {
		return err
	}
	if state.MintingPaused {
		return newRegistryError(ErrMintingPaused, "mintingPaused", "", "minting is paused")
	}
	if state.Paused {
		return newRegistryError(ErrRegistryPaused, "paused", "", "registry is paused")
	}
	return nil
}

func validateMintRequest(req model.MintRequest) error {
	if err := ValidateVIN(req.VIN); err != nil {
		return err
	}
	if err := ValidateYear(req.Year); err != nil {
		return err
	}
	if err := ValidateMileage(req.Mileage); err != nil {
		return err
	}
	if err := validateRequiredString(req.Recipient, "recipient", maxPrincipalLength); err != nil {
		return err
	}
	if err := validateOptionalString(req.Make, "make", maxTextLength); err != nil {
		return err
	}
	if err := validateOptionalString(req.Model, "model", maxTextLength); err != nil {
		return err
	}
	if err := validateOptionalString(req.Condition, "condition", maxTextLength); err != nil {
		return err
	}
	return validateOptionalString(req.TokenURI, "tokenURI", maxURILength)
}

// mintOne runs the single-record flow. Callers must have passed
// requireMintAllowed in the same transaction.
func (e *mutationEngine) mintOne(req model.MintRequest) (uint64, error) {
	if err := validateMintRequest(req); err != nil {
		return 0, err
	}

	exists, err := e.store.vinExists(req.VIN)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, newRegistryError(ErrDuplicateIdentifier, "vin", "", "vin '%s' is already registered", req.VIN)
	}
	state, err := e.store.loadState()
	if err != nil {
		return 0, err
	}
	if state.NextID >= state.MaxTokens {
		return 0, newRegistryError(ErrMintLimitReached, "maxTokens", strconv.FormatUint(state.MaxTokens, 10),
			"registry has reached its ceiling of %d records", state.MaxTokens)
	}

	e.audit.mintAttempted(req.Recipient, req.VIN)

	rec := &model.VehicleRecord{
		VIN:           req.VIN,
		Make:          req.Make,
		Model:         req.Model,
		Year:          req.Year,
		Mileage:       uint64(req.Mileage),
		Condition:     req.Condition,
		CurrentOwner:  req.Recipient,
		OriginalOwner: req.Recipient,
		TokenURI:      req.TokenURI,
		MintedAt:      e.now,
		MintedTxID:    e.stub.GetTxID(),
		LastUpdated:   e.now,
	}
	id, err := e.store.insert(rec)
	if err != nil {
		return 0, err
	}

	e.audit.recordCreated(id, req.Recipient, req.VIN)
	e.audit.mintCompleted(id)
	return id, nil
}

func (e *mutationEngine) mint(req model.MintRequest) (uint64, error) {
	if err := e.requireMintAllowed(); err != nil {
		return 0, err
	}
	id, err := e.mintOne(req)
	if err != nil {
		e.abort()
		return 0, err
	}
	return id, nil
}

// batchMint checks the caller and the batch size, then mints entries in input
// order against the same staged store, so entry k sees entries 0..k-1. The
// first failing entry aborts the whole batch.
func (e *mutationEngine) batchMint(reqs []model.MintRequest) ([]uint64, error) {
	if err := e.requireMintAllowed(); err != nil {
		return nil, err
	}
	if err := ValidateBatchShape(len(reqs)); err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(reqs))
	for i, req := range reqs {
		id, err := e.mintOne(req)
		if err != nil {
			e.abort()
			return nil, atBatchIndex(err, i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// --- Record updates ---

// recordMutation describes one update variant. newMileage is nil when the
// variant leaves mileage unchanged.
type recordMutation struct {
	newMileage *uint64
	event      model.AuditEventName
	details    map[string]string
	apply      func(old *model.VehicleRecord) (*model.VehicleRecord, error)
}

// runUpdate is the skeleton shared by every record update: read, Attempted,
// apply, domain event, Completed, then the advisory mileage signal.
func (e *mutationEngine) runUpdate(id uint64, m recordMutation) (*model.VehicleRecord, error) {
	old, err := e.store.get(id)
	if err != nil {
		return nil, err
	}
	newMileage := old.Mileage
	if m.newMileage != nil {
		newMileage = *m.newMileage
	}

	e.audit.updateAttempted(id, old.Mileage, newMileage)

	rec, err := m.apply(old)
	if err != nil {
		e.abort()
		return nil, err
	}

	e.audit.domain(m.event, &model.RecordRef{ID: id}, m.details)
	e.audit.updateCompleted(id)

	if newMileage < old.Mileage {
		e.audit.securitySignal(id, model.SignalMeasureDecreased)
		metrics.ObserveSecuritySignal(model.SignalMeasureDecreased)
		logger.Warningf("Mileage of record %d decreased from %d to %d by '%s'. Update applied.", id, old.Mileage, newMileage, e.caller)
	}
	return rec, nil
}

func (e *mutationEngine) updateMileageAndCondition(id uint64, mileage int64, condition string) (*model.VehicleRecord, error) {
	if err := e.access.RequireOwnerOrDelegate(e.caller); err != nil {
		return nil, err
	}
	if err := ValidateMileage(mileage); err != nil {
		return nil, err
	}
	if err := validateOptionalString(condition, "condition", maxTextLength); err != nil {
		return nil, err
	}
	m := uint64(mileage)
	return e.runUpdate(id, recordMutation{
		newMileage: &m,
		event:      model.EventRecordUpdated,
		details:    map[string]string{"condition": condition},
		apply: func(old *model.VehicleRecord) (*model.VehicleRecord, error) {
			return e.store.updateMileageAndCondition(old.ID, m, condition, e.now)
		},
	})
}

func (e *mutationEngine) addMaintenance(id uint64, mileage int64, notes string) (*model.VehicleRecord, error) {
	if err := e.access.RequireOwnerOrDelegate(e.caller); err != nil {
		return nil, err
	}
	if err := ValidateMileage(mileage); err != nil {
		return nil, err
	}
	if err := validateOptionalString(notes, "notes", maxNotesLength); err != nil {
		return nil, err
	}
	m := uint64(mileage)
	details := map[string]string{"notes": notes}
	return e.runUpdate(id, recordMutation{
		newMileage: &m,
		event:      model.EventMaintenanceAdded,
		details:    details,
		apply: func(old *model.VehicleRecord) (*model.VehicleRecord, error) {
			rec, err := e.store.updateMileageAndServiceTime(old.ID, m, e.now)
			if err != nil {
				return nil, err
			}
			entry := &model.MaintenanceEntry{
				Mileage:    m,
				Notes:      notes,
				ServicedAt: e.now,
				RecordedBy: e.caller,
				TxID:       e.stub.GetTxID(),
			}
			if err := e.store.appendMaintenance(rec, entry); err != nil {
				return nil, err
			}
			details["serviceSeq"] = strconv.FormatUint(entry.Seq, 10)
			return rec, nil
		},
	})
}

func (e *mutationEngine) recordOwnerChange(id uint64, newOwner string) (*model.VehicleRecord, error) {
	if err := e.access.RequireOwnerOrDelegate(e.caller); err != nil {
		return nil, err
	}
	if err := validateRequiredString(newOwner, "newOwner", maxPrincipalLength); err != nil {
		return nil, err
	}
	details := map[string]string{"newOwner": newOwner}
	return e.runUpdate(id, recordMutation{
		event:   model.EventOwnerRefUpdated,
		details: details,
		apply: func(old *model.VehicleRecord) (*model.VehicleRecord, error) {
			details["previousOwner"] = old.CurrentOwner
			return e.store.updateOwnerRef(old.ID, newOwner, e.now)
		},
	})
}

// --- Owner-only administration ---

func (e *mutationEngine) grantDelegate(fullID string) (bool, error) {
	if err := e.access.RequireOwner(e.caller); err != nil {
		return false, err
	}
	if err := validatePrincipal(fullID, "delegate"); err != nil {
		return false, err
	}
	already, err := e.store.isDelegated(fullID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}
	info := &model.DelegateInfo{FullID: fullID, GrantedBy: e.caller, GrantedAt: e.now}
	if err := e.store.setDelegated(info, true); err != nil {
		return false, err
	}
	e.audit.domain(model.EventDelegateGranted, nil, map[string]string{"delegate": fullID})
	return true, nil
}

func (e *mutationEngine) revokeDelegate(fullID string) (bool, error) {
	if err := e.access.RequireOwner(e.caller); err != nil {
		return false, err
	}
	if err := validatePrincipal(fullID, "delegate"); err != nil {
		return false, err
	}
	granted, err := e.store.isDelegated(fullID)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}
	if err := e.store.setDelegated(&model.DelegateInfo{FullID: fullID}, false); err != nil {
		return false, err
	}
	e.audit.domain(model.EventDelegateRevoked, nil, map[string]string{"delegate": fullID})
	return true, nil
}

func (e *mutationEngine) transferOwnership(newOwner string) error {
	if err := e.access.RequireOwner(e.caller); err != nil {
		return err
	}
	if err := validatePrincipal(newOwner, "newOwner"); err != nil {
		return err
	}
	state, err := e.store.loadState()
	if err != nil {
		return err
	}
	previous := state.Owner
	state.Owner = newOwner
	state.LastUpdated = e.now
	if err := e.store.saveState(state); err != nil {
		return err
	}
	e.audit.domain(model.EventOwnershipTransferred, nil, map[string]string{
		"previousOwner": previous,
		"newOwner":      newOwner,
	})
	return nil
}

// pauseFlag selects which of the two pause flags setPauseFlag touches.
type pauseFlag int

const (
	globalPause pauseFlag = iota
	mintingPause
)

// setPauseFlag returns false when the flag already had the requested value;
// no state is written and no entry is emitted in that case.
func (e *mutationEngine) setPauseFlag(flag pauseFlag, value bool) (bool, error) {
	if err := e.access.RequireOwner(e.caller); err != nil {
		return false, err
	}
	state, err := e.store.loadState()
	if err != nil {
		return false, err
	}

	var current *bool
	var event model.AuditEventName
	switch flag {
	case globalPause:
		current = &state.Paused
		event = model.EventUnpaused
		if value {
			event = model.EventPaused
		}
	case mintingPause:
		current = &state.MintingPaused
		event = model.EventMintingUnpaused
		if value {
			event = model.EventMintingPaused
		}
	default:
		return false, fmt.Errorf("unknown pause flag %d", flag)
	}

	if *current == value {
		return false, nil
	}
	*current = value
	state.LastUpdated = e.now
	if err := e.store.saveState(state); err != nil {
		return false, err
	}
	e.audit.domain(event, nil, nil)
	return true, nil
}
