package contract

import (
	"strconv"
	"strings"
)

const (
	vinLength      = 17
	minModelYear   = 1900
	maxModelYear   = 2100
	maxMileage     = 100_000_000
	minBatchSize   = 1
	maxBatchSize   = 100
	maxTextLength  = 256
	maxURILength   = 512
	maxNotesLength = 1024
)

// ValidateVIN accepts exactly 17 ASCII letters or digits. Case is preserved
// and significant.
func ValidateVIN(vin string) error {
	if len(vin) != vinLength {
		return newRegistryError(ErrInvalidIdentifier, "vin", strconv.Itoa(vinLength),
			"vin must be exactly %d characters, got %d", vinLength, len(vin))
	}
	for i := 0; i < len(vin); i++ {
		if !isASCIIAlnum(vin[i]) {
			return newRegistryError(ErrInvalidIdentifier, "vin", "[0-9A-Za-z]",
				"vin contains invalid character %q at position %d", vin[i], i)
		}
	}
	return nil
}

func isASCIIAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// ValidateYear accepts model years in [1900, 2100].
func ValidateYear(year int) error {
	if year < minModelYear || year > maxModelYear {
		return newRegistryError(ErrInvalidYear, "year", "[1900, 2100]",
			"year %d is outside the accepted range", year)
	}
	return nil
}

// ValidateMileage accepts values in [0, 100000000]. The input is signed so
// that negative values coming off the wire are rejected instead of wrapping.
func ValidateMileage(mileage int64) error {
	if mileage < 0 || mileage > maxMileage {
		return newRegistryError(ErrInvalidMeasure, "mileage", "[0, 100000000]",
			"mileage %d is outside the accepted range", mileage)
	}
	return nil
}

// ValidateBatchArity checks that every parallel input has the same length.
func ValidateBatchArity(lengths ...int) error {
	if len(lengths) == 0 {
		return nil
	}
	n := lengths[0]
	for i, l := range lengths[1:] {
		if l != n {
			return newRegistryError(ErrArityMismatch, "batch", strconv.Itoa(n),
				"input %d has %d entries, expected %d", i+1, l, n)
		}
	}
	return nil
}

// ValidateBatchShape checks arity, then that the batch holds between 1 and
// 100 entries. A malformed call reports the shape problem rather than its size.
func ValidateBatchShape(lengths ...int) error {
	if len(lengths) == 0 {
		return newRegistryError(ErrBatchTooLarge, "batch", "[1, 100]", "batch is empty")
	}
	if err := ValidateBatchArity(lengths...); err != nil {
		return err
	}
	if n := lengths[0]; n < minBatchSize || n > maxBatchSize {
		return newRegistryError(ErrBatchTooLarge, "batch", "[1, 100]",
			"batch size %d is outside the accepted range", n)
	}
	return nil
}

func validateRequiredString(input, field string, max int) error {
	if strings.TrimSpace(input) == "" {
		return newRegistryError(ErrInvalidInput, field, "", "%s cannot be empty", field)
	}
	if len(input) > max {
		return newRegistryError(ErrInvalidInput, field, strconv.Itoa(max), "%s exceeds max length %d", field, max)
	}
	return nil
}

func validateOptionalString(input, field string, max int) error {
	if len(input) > max {
		return newRegistryError(ErrInvalidInput, field, strconv.Itoa(max), "%s exceeds max length %d", field, max)
	}
	return nil
}
