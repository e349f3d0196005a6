package contract

import (
	"vehicleregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Record Updates: Owner or Delegate Operations ---

func (s *VehicleRegistryContract) UpdateMileageAndCondition(ctx contractapi.TransactionContextInterface,
	id uint64, mileage int64, condition string) (*model.VehicleRecord, error) {

	var rec *model.VehicleRecord
	err := runMutation(ctx, "UpdateMileageAndCondition", func(e *mutationEngine) error {
		var updateErr error
		rec, updateErr = e.updateMileageAndCondition(id, mileage, condition)
		return updateErr
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Record %d updated: mileage %d, condition '%s'", id, rec.Mileage, rec.Condition)
	return rec, nil
}

// RecordOwnerChange mirrors a transfer made elsewhere into the record's
// currentOwner. The original owner is never touched.
func (s *VehicleRegistryContract) RecordOwnerChange(ctx contractapi.TransactionContextInterface,
	id uint64, newOwner string) (*model.VehicleRecord, error) {

	var rec *model.VehicleRecord
	err := runMutation(ctx, "RecordOwnerChange", func(e *mutationEngine) error {
		var updateErr error
		rec, updateErr = e.recordOwnerChange(id, newOwner)
		return updateErr
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Record %d current owner set to '%s'", id, newOwner)
	return rec, nil
}
