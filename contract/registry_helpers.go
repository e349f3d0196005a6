package contract

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"vehicleregistry/metrics"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// runMutation builds the engine for one transaction, runs op and commits.
// On error the staged writes and buffered audit entries are dropped.
func runMutation(ctx contractapi.TransactionContextInterface, operation string, op func(e *mutationEngine) error) error {
	e, err := newMutationEngine(ctx)
	if err != nil {
		observe(operation, err)
		logger.Errorf("%s: could not start for caller '%s': %v", operation, MustGetCallerFullID(ctx), err)
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := op(e); err != nil {
		e.abort()
		observe(operation, err)
		logger.Debugf("%s rejected for caller '%s': %v", operation, e.caller, err)
		return err
	}
	if err := e.commit(); err != nil {
		observe(operation, err)
		return fmt.Errorf("%s: failed to commit: %w", operation, err)
	}
	observe(operation, nil)
	return nil
}

// getCurrentTxTimestamp retrieves the current transaction timestamp from the stub.
func getCurrentTxTimestamp(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

// observe records the outcome of a state-changing operation. Registry
// errors are caller rejections; anything else is an infrastructure error.
func observe(operation string, err error) {
	switch {
	case err == nil:
		metrics.ObserveTransaction(operation, metrics.OutcomeOK)
	case errors.As(err, new(*RegistryError)):
		metrics.ObserveTransaction(operation, metrics.OutcomeRejected)
	default:
		metrics.ObserveTransaction(operation, metrics.OutcomeError)
	}
}

// parsePageSize clamps a caller-supplied page size to [1, maxPageSize].
func parsePageSize(pageSizeStr string) int32 {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return int32(pageSize)
}
