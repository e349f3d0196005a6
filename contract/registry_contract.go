package contract

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("vehicleregistry.registrycontract")

// Constants for input validation and limits
const (
	defaultMaxTokens   = 10000 // Ceiling used when InitRegistry is called with 0
	maxPrincipalLength = 1024  // Base64 X.509 IDs run long
	defaultPageSize    = 10
	maxPageSize        = 100
)

// VehicleRegistryContract issues, validates and audits vehicle records.
// @contract:VehicleRegistryContract
type VehicleRegistryContract struct {
	contractapi.Contract
}

// Instantiate is called during chaincode instantiation.
func (s *VehicleRegistryContract) Instantiate(ctx contractapi.TransactionContextInterface) {
	logger.Info("VehicleRegistryContract Instantiated/Upgraded")
}
