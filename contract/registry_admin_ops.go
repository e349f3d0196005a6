package contract

import (
	"vehicleregistry/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Administration ---

// InitRegistry creates the registry state and makes the caller its owner.
// A maxTokens of 0 selects the default ceiling.
func (s *VehicleRegistryContract) InitRegistry(ctx contractapi.TransactionContextInterface, maxTokens uint64) (*model.RegistryState, error) {
	var state *model.RegistryState
	err := runMutation(ctx, "InitRegistry", func(e *mutationEngine) error {
		var initErr error
		state, initErr = e.initRegistry(maxTokens)
		return initErr
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("Registry initialized by '%s' with ceiling %d", state.Owner, state.MaxTokens)
	return state, nil
}

func (s *VehicleRegistryContract) GrantDelegate(ctx contractapi.TransactionContextInterface, delegateFullID string) error {
	var changed bool
	err := runMutation(ctx, "GrantDelegate", func(e *mutationEngine) error {
		var grantErr error
		changed, grantErr = e.grantDelegate(delegateFullID)
		return grantErr
	})
	if err != nil {
		return err
	}
	if !changed {
		logger.Infof("'%s' is already a delegate. No change made.", delegateFullID)
		return nil
	}
	logger.Infof("Delegate rights granted to '%s'", delegateFullID)
	return nil
}

func (s *VehicleRegistryContract) RevokeDelegate(ctx contractapi.TransactionContextInterface, delegateFullID string) error {
	var changed bool
	err := runMutation(ctx, "RevokeDelegate", func(e *mutationEngine) error {
		var revokeErr error
		changed, revokeErr = e.revokeDelegate(delegateFullID)
		return revokeErr
	})
	if err != nil {
		return err
	}
	if !changed {
		logger.Infof("'%s' is not a delegate. No change made.", delegateFullID)
		return nil
	}
	logger.Infof("Delegate rights revoked from '%s'", delegateFullID)
	return nil
}

// TransferRegistryOwnership hands every owner-only right to newOwner. The
// previous owner keeps no residual rights, delegate or otherwise.
func (s *VehicleRegistryContract) TransferRegistryOwnership(ctx contractapi.TransactionContextInterface, newOwner string) error {
	err := runMutation(ctx, "TransferRegistryOwnership", func(e *mutationEngine) error {
		return e.transferOwnership(newOwner)
	})
	if err != nil {
		return err
	}
	logger.Infof("Registry ownership transferred to '%s'", newOwner)
	return nil
}

func (s *VehicleRegistryContract) Pause(ctx contractapi.TransactionContextInterface) error {
	return s.setPause(ctx, "Pause", globalPause, true)
}

func (s *VehicleRegistryContract) Unpause(ctx contractapi.TransactionContextInterface) error {
	return s.setPause(ctx, "Unpause", globalPause, false)
}

func (s *VehicleRegistryContract) PauseMinting(ctx contractapi.TransactionContextInterface) error {
	return s.setPause(ctx, "PauseMinting", mintingPause, true)
}

func (s *VehicleRegistryContract) UnpauseMinting(ctx contractapi.TransactionContextInterface) error {
	return s.setPause(ctx, "UnpauseMinting", mintingPause, false)
}

func (s *VehicleRegistryContract) setPause(ctx contractapi.TransactionContextInterface, operation string, flag pauseFlag, value bool) error {
	var changed bool
	err := runMutation(ctx, operation, func(e *mutationEngine) error {
		var pauseErr error
		changed, pauseErr = e.setPauseFlag(flag, value)
		return pauseErr
	})
	if err != nil {
		return err
	}
	if changed {
		logger.Infof("%s applied", operation)
	} else {
		logger.Infof("%s: flag already set. No change made.", operation)
	}
	return nil
}
