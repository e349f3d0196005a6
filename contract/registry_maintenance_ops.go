package contract

import (
	"vehicleregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Service Log: Owner or Delegate Operations ---

// AddMaintenance appends a service log line to a record, sets its mileage
// and stamps its service time.
func (s *VehicleRegistryContract) AddMaintenance(ctx contractapi.TransactionContextInterface,
	id uint64, mileage int64, notes string) (*model.VehicleRecord, error) {

	var rec *model.VehicleRecord
	err := runMutation(ctx, "AddMaintenance", func(e *mutationEngine) error {
		var updateErr error
		rec, updateErr = e.addMaintenance(id, mileage, notes)
		return updateErr
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Maintenance entry %d recorded on record %d at mileage %d", rec.ServiceCount-1, id, rec.Mileage)
	return rec, nil
}

// GetMaintenanceHistory retrieves every service log line of a record, oldest first.
func (s *VehicleRegistryContract) GetMaintenanceHistory(ctx contractapi.TransactionContextInterface, id uint64) ([]*model.MaintenanceEntry, error) {
	logger.Debugf("GetMaintenanceHistory: Querying service log of record %d", id)
	store := newRegistryStore(ctx.GetStub())
	if _, err := store.get(id); err != nil {
		return nil, err
	}
	return store.maintenanceLog(id)
}
