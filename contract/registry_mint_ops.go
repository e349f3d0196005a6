package contract

import (
	"vehicleregistry/metrics"
	"vehicleregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Issuance: Owner Operations ---

// Mint registers a single vehicle and returns its id.
func (s *VehicleRegistryContract) Mint(ctx contractapi.TransactionContextInterface,
	recipient string, vin string, vehicleMake string, vehicleModel string, year int, mileage int64,
	condition string, tokenURI string) (uint64, error) {

	req := model.MintRequest{
		Recipient: recipient, VIN: vin, Make: vehicleMake, Model: vehicleModel,
		Year: year, Mileage: mileage, Condition: condition, TokenURI: tokenURI,
	}
	var id uint64
	err := runMutation(ctx, "Mint", func(e *mutationEngine) error {
		var mintErr error
		id, mintErr = e.mint(req)
		return mintErr
	})
	if err != nil {
		return 0, err
	}
	logger.Infof("Record %d minted for VIN '%s' to '%s'", id, vin, recipient)
	return id, nil
}

// BatchMint registers up to 100 vehicles atomically. The arrays are parallel:
// entry i is built from element i of each.
func (s *VehicleRegistryContract) BatchMint(ctx contractapi.TransactionContextInterface,
	recipients []string, vins []string, makes []string, models []string, years []int, mileages []int64,
	conditions []string, tokenURIs []string) ([]uint64, error) {

	if err := ValidateBatchArity(len(recipients), len(vins), len(makes), len(models),
		len(years), len(mileages), len(conditions), len(tokenURIs)); err != nil {
		observe("BatchMint", err)
		return nil, err
	}
	metrics.ObserveBatchSize(len(vins))

	reqs := make([]model.MintRequest, len(vins))
	for i := range vins {
		reqs[i] = model.MintRequest{
			Recipient: recipients[i], VIN: vins[i], Make: makes[i], Model: models[i],
			Year: years[i], Mileage: mileages[i], Condition: conditions[i], TokenURI: tokenURIs[i],
		}
	}

	var ids []uint64
	err := runMutation(ctx, "BatchMint", func(e *mutationEngine) error {
		var mintErr error
		ids, mintErr = e.batchMint(reqs)
		return mintErr
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Batch of %d records minted (ids %d..%d)", len(ids), ids[0], ids[len(ids)-1])
	return ids, nil
}
