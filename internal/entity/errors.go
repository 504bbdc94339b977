package entity

import (
	"errors"
	"fmt"
)

const regionRestrictedCode = "2002"

var (
	// ErrRegionRestricted matches an Unavailable error caused by a region restriction.
	ErrRegionRestricted = errors.New("not available in this region")
	// ErrFieldMissing is wrapped by ExtractionFailure when the page does not hold the field.
	ErrFieldMissing = errors.New("field not present")
)

// Unavailable is reported by the structured endpoint when it refuses to serve
// an entity (withdrawn, restricted, ...).
type Unavailable struct {
	Locator string
	Code    string
	Message string
}

func (e *Unavailable) Error() string {
	if e.Restricted() {
		return fmt.Sprintf("%s: %s", e.Locator, ErrRegionRestricted)
	}
	return fmt.Sprintf("%s: unavailable (code %s): %s", e.Locator, e.Code, e.Message)
}

// Restricted reports whether the entity is blocked in the caller's region.
func (e *Unavailable) Restricted() bool {
	return e.Code == regionRestrictedCode
}

func (e *Unavailable) Is(target error) bool {
	return target == ErrRegionRestricted && e.Restricted()
}

// ExtractionFailure is returned when a requested scrape field cannot be
// derived from the entity page.
type ExtractionFailure struct {
	Locator string
	Field   string
	Err     error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("%s: extract %q: %v", e.Locator, e.Field, e.Err)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// CheckPayload turns the error shape of the structured endpoint
// ({"code": ..., "message": ...}) into an Unavailable error.
func CheckPayload(locator string, payload map[string]any) error {
	message, ok := payload["message"]
	if !ok {
		return nil
	}
	code := ""
	if raw, ok := payload["code"]; ok && raw != nil {
		code = fmt.Sprint(raw)
	}
	return &Unavailable{
		Locator: locator,
		Code:    code,
		Message: fmt.Sprint(message),
	}
}
