package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var accessLogger = flogging.MustGetLogger("vehicleregistry.accessmanager")

// AccessManager answers who may do what: the registry owner, and the
// principals the owner has explicitly delegated mutation rights to.
type AccessManager struct {
	Ctx   contractapi.TransactionContextInterface
	store *registryStore
}

func newAccessManager(ctx contractapi.TransactionContextInterface, store *registryStore) *AccessManager {
	return &AccessManager{Ctx: ctx, store: store}
}

func isValidX509ID(id string) bool {
	return strings.HasPrefix(id, "x509::") || strings.HasPrefix(id, "eDUwOTo6") // "eDUwOTo6" is "x509::" base64 encoded
}

// GetCurrentIdentityFullID retrieves the full X.509 ID of the current transactor.
func (am *AccessManager) GetCurrentIdentityFullID() (string, error) {
	clientIdentity := am.Ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "", errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return "", errors.New("client identity ID from context is empty")
	}
	if !isValidX509ID(id) {
		accessLogger.Warningf("Current client ID '%s' does not appear to be a standard X.509 format.", id)
	}
	return id, nil
}

// MustGetCallerFullID returns the caller's ID or a placeholder, for logging.
func MustGetCallerFullID(ctx contractapi.TransactionContextInterface) string {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return "ERROR_NIL_CLIENT_IDENTITY"
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return "ERROR_GETTING_CALLER_ID"
	}
	if id == "" {
		return "ERROR_EMPTY_CALLER_ID"
	}
	return id
}

// IsOwner reports whether fullID is the registry owner.
func (am *AccessManager) IsOwner(fullID string) (bool, error) {
	state, err := am.store.loadState()
	if err != nil {
		return false, err
	}
	return state.Owner == fullID, nil
}

// IsDelegate reports whether fullID currently holds a delegate grant.
func (am *AccessManager) IsDelegate(fullID string) (bool, error) {
	if strings.TrimSpace(fullID) == "" {
		return false, nil
	}
	return am.store.isDelegated(fullID)
}

// RequireOwner fails with Unauthorized unless caller is the registry owner.
func (am *AccessManager) RequireOwner(caller string) error {
	isOwner, err := am.IsOwner(caller)
	if err != nil {
		return err
	}
	if !isOwner {
		return newRegistryError(ErrUnauthorized, "caller", "owner", "caller '%s' is not the registry owner", caller)
	}
	return nil
}

// RequireOwnerOrDelegate fails with Unauthorized unless caller is the owner or
// a delegate.
func (am *AccessManager) RequireOwnerOrDelegate(caller string) error {
	isOwner, err := am.IsOwner(caller)
	if err != nil {
		return err
	}
	if isOwner {
		return nil
	}
	isDelegate, err := am.IsDelegate(caller)
	if err != nil {
		return fmt.Errorf("failed to check delegate status for '%s': %w", caller, err)
	}
	if !isDelegate {
		return newRegistryError(ErrUnauthorized, "caller", "owner|delegate",
			"caller '%s' is neither the registry owner nor a delegate", caller)
	}
	accessLogger.Debugf("Delegate '%s' authorized for record mutation.", caller)
	return nil
}

func validatePrincipal(fullID, field string) error {
	trimmed := strings.TrimSpace(fullID)
	if trimmed == "" {
		return newRegistryError(ErrInvalidInput, field, "", "%s cannot be empty", field)
	}
	if len(fullID) > maxPrincipalLength {
		return newRegistryError(ErrInvalidInput, field, strconv.Itoa(maxPrincipalLength), "%s exceeds max length %d", field, maxPrincipalLength)
	}
	if !isValidX509ID(trimmed) {
		return newRegistryError(ErrInvalidInput, field, "x509", "%s '%s' is not a valid X.509 ID format", field, fullID)
	}
	return nil
}
