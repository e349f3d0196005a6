package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"vehicleregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Queries ---
// Read-only transactions. They never stage writes and never emit events.

func (s *VehicleRegistryContract) GetRecord(ctx contractapi.TransactionContextInterface, id uint64) (*model.VehicleRecord, error) {
	logger.Debugf("GetRecord: Querying record %d", id)
	return newRegistryStore(ctx.GetStub()).get(id)
}

func (s *VehicleRegistryContract) GetRecordByVIN(ctx contractapi.TransactionContextInterface, vin string) (*model.VehicleRecord, error) {
	logger.Debugf("GetRecordByVIN: Querying record for VIN '%s'", vin)
	store := newRegistryStore(ctx.GetStub())
	id, err := store.idForVIN(vin)
	if err != nil {
		return nil, err
	}
	return store.get(id)
}

func (s *VehicleRegistryContract) VINExists(ctx contractapi.TransactionContextInterface, vin string) (bool, error) {
	return newRegistryStore(ctx.GetStub()).vinExists(vin)
}

// TotalMinted returns the number of records ever minted, 0 before
// initialization.
func (s *VehicleRegistryContract) TotalMinted(ctx contractapi.TransactionContextInterface) (uint64, error) {
	count, err := newRegistryStore(ctx.GetStub()).count()
	if errors.Is(err, ErrNotInitialized) {
		return 0, nil
	}
	return count, err
}

func (s *VehicleRegistryContract) GetRegistryStatus(ctx contractapi.TransactionContextInterface) (*model.RegistryStatus, error) {
	state, err := newRegistryStore(ctx.GetStub()).loadState()
	if err != nil {
		return nil, err
	}
	return &model.RegistryStatus{
		Owner:         state.Owner,
		MaxTokens:     state.MaxTokens,
		TotalMinted:   state.NextID,
		Paused:        state.Paused,
		MintingPaused: state.MintingPaused,
		InitializedAt: state.InitializedAt,
	}, nil
}

func (s *VehicleRegistryContract) IsDelegate(ctx contractapi.TransactionContextInterface, fullID string) (bool, error) {
	store := newRegistryStore(ctx.GetStub())
	return newAccessManager(ctx, store).IsDelegate(fullID)
}

// WhoAmI reports the caller's identity and what it may do in the registry.
func (s *VehicleRegistryContract) WhoAmI(ctx contractapi.TransactionContextInterface) (*model.CallerInfo, error) {
	store := newRegistryStore(ctx.GetStub())
	am := newAccessManager(ctx, store)
	fullID, err := am.GetCurrentIdentityFullID()
	if err != nil {
		return nil, fmt.Errorf("WhoAmI: %w", err)
	}
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return nil, fmt.Errorf("WhoAmI: failed to get MSP ID: %w", err)
	}
	info := &model.CallerInfo{FullID: fullID, MSPID: mspID}
	if info.IsOwner, err = am.IsOwner(fullID); err != nil && !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}
	if info.IsDelegate, err = am.IsDelegate(fullID); err != nil {
		return nil, err
	}
	return info, nil
}

// GetAllRecords pages through every record in id order.
func (s *VehicleRegistryContract) GetAllRecords(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedRecordResponse, error) {
	pageSize := parsePageSize(pageSizeStr)
	logger.Debugf("GetAllRecords: pageSize %d, bookmark '%s'", pageSize, bookmark)

	resultsIterator, metadata, err := ctx.GetStub().GetStateByPartialCompositeKeyWithPagination(recordObjectType, []string{}, pageSize, bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetAllRecords: failed to get records iterator: %w", err)
	}
	defer resultsIterator.Close()

	records := []*model.VehicleRecord{}
	fetchedCount := int32(0)
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAllRecords: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var rec model.VehicleRecord
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &rec); errUnmarshal != nil {
			logger.Warningf("GetAllRecords: Error unmarshalling record at key '%s': %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		records = append(records, &rec)
		fetchedCount++
	}

	return &model.PaginatedRecordResponse{
		Records:      records,
		NextBookmark: metadata.GetBookmark(),
		FetchedCount: fetchedCount,
	}, nil
}

// GetRecordHistory returns every committed state of a record, oldest first.
func (s *VehicleRegistryContract) GetRecordHistory(ctx contractapi.TransactionContextInterface, id uint64) ([]model.RecordHistoryEntry, error) {
	store := newRegistryStore(ctx.GetStub())
	if _, err := store.get(id); err != nil {
		return nil, err
	}
	key, err := store.recordKey(id)
	if err != nil {
		return nil, fmt.Errorf("GetRecordHistory: failed to create record key for id %d: %w", id, err)
	}
	historyIter, err := ctx.GetStub().GetHistoryForKey(key)
	if err != nil {
		return nil, fmt.Errorf("GetRecordHistory: failed to get history for record %d: %w", id, err)
	}
	defer historyIter.Close()

	history := []model.RecordHistoryEntry{}
	for historyIter.HasNext() {
		historyItem, iterErr := historyIter.Next()
		if iterErr != nil {
			logger.Warningf("GetRecordHistory: Error iterating history of record %d: %v. Skipping entry.", id, iterErr)
			continue
		}
		entry := model.RecordHistoryEntry{
			TxID:     historyItem.TxId,
			IsDelete: historyItem.IsDelete,
		}
		if historyItem.Timestamp != nil {
			entry.Timestamp = historyItem.Timestamp.AsTime()
		}
		if !historyItem.IsDelete {
			var past model.VehicleRecord
			if errUnmarshal := json.Unmarshal(historyItem.Value, &past); errUnmarshal != nil {
				logger.Warningf("GetRecordHistory: Undecodable state of record %d in tx '%s': %v", id, historyItem.TxId, errUnmarshal)
			} else {
				entry.Record = &past
			}
		}
		history = append(history, entry)
	}
	return history, nil
}

// GetAuditEntries returns the audit trail written by one transaction, in
// emission order.
func (s *VehicleRegistryContract) GetAuditEntries(ctx contractapi.TransactionContextInterface, txID string) ([]*model.AuditEntry, error) {
	if err := validateRequiredString(txID, "txId", maxTextLength); err != nil {
		return nil, err
	}
	resultsIterator, err := ctx.GetStub().GetStateByPartialCompositeKey(auditObjectType, []string{txID})
	if err != nil {
		return nil, fmt.Errorf("GetAuditEntries: failed to get audit iterator for tx '%s': %w", txID, err)
	}
	defer resultsIterator.Close()

	entries := []*model.AuditEntry{}
	for resultsIterator.HasNext() {
		queryResponse, iterErr := resultsIterator.Next()
		if iterErr != nil {
			logger.Warningf("GetAuditEntries: Error iterating results: %v. Skipping.", iterErr)
			continue
		}
		var entry model.AuditEntry
		if errUnmarshal := json.Unmarshal(queryResponse.Value, &entry); errUnmarshal != nil {
			logger.Warningf("GetAuditEntries: Error unmarshalling entry at key '%s': %v. Skipping.", queryResponse.Key, errUnmarshal)
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
