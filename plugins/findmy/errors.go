package findmy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthentication is returned when the API answers 401.
	ErrAuthentication = errors.New("findmy: authentication failed")

	// ErrNoDevices is returned when a decoded response carries no content list.
	ErrNoDevices = errors.New("findmy: response has no device content")

	// ErrNoLocation is returned when a device record has no location field.
	ErrNoLocation = errors.New("findmy: device has no location")

	ErrMissingCredentials = errors.New("findmy: account id and password are required")
)

// APIError surfaces non-success HTTP statuses other than 401.
type APIError struct {
	Status int
	Body   string
}

func (e APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("findmy api error %d", e.Status)
	}
	return fmt.Sprintf("findmy api error %d: %s", e.Status, body)
}

// ParseError wraps a response body that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("findmy: decode response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
