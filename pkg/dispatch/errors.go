package dispatch

import (
	"errors"
	"fmt"

	"github.com/go-go-golems/canvas-chat/pkg/steps"
)

// The dispatch error taxonomy. Use errors.Is with the sentinels and
// errors.As with the typed errors.
var (
	ErrMissingCredential = steps.ErrMissingCredential
	ErrTransport         = steps.ErrTransport
	ErrProvider          = steps.ErrProvider
	ErrMalformedResponse = steps.ErrMalformedResponse
	ErrInvalidEndpoint   = errors.New("invalid endpoint")
)

type (
	MissingCredentialError = steps.MissingCredentialError
	TransportError         = steps.TransportError
	ProviderError          = steps.ProviderError
	MalformedResponseError = steps.MalformedResponseError
)

// InvalidEndpointError is returned before any I/O when a model resolves to
// an endpoint its policy does not allow.
type InvalidEndpointError struct {
	Model    string
	Endpoint string
	Err      error
}

func (e *InvalidEndpointError) Error() string {
	if e == nil {
		return ErrInvalidEndpoint.Error()
	}
	return fmt.Sprintf("%s %q for model %q: %v", ErrInvalidEndpoint, e.Endpoint, e.Model, e.Err)
}

func (e *InvalidEndpointError) Is(target error) bool { return target == ErrInvalidEndpoint }

func (e *InvalidEndpointError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
