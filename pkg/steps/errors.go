package steps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrTransport         = errors.New("transport error")
	ErrProvider          = errors.New("provider error")
	ErrMalformedResponse = errors.New("malformed response")
)

// InvalidResponseFormat is the message used when a 2xx reply lacks content.
const InvalidResponseFormat = "invalid response format"

// MissingCredentialError is returned before any I/O when a model requires a
// key and none is configured.
type MissingCredentialError struct {
	Provider string
	Model    string
}

func (e *MissingCredentialError) Error() string {
	if e == nil {
		return ErrMissingCredential.Error()
	}
	return fmt.Sprintf("%s: no API key configured for provider %q (model %q)", ErrMissingCredential, e.Provider, e.Model)
}

func (e *MissingCredentialError) Is(target error) bool { return target == ErrMissingCredential }

// TransportError wraps network failures, cancellation and timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ErrTransport.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
	}
	return fmt.Sprintf("%s during %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderError is a non-2xx reply, or a 2xx reply without usable content.
// Body holds the raw response body so the provider's own message surfaces.
type ProviderError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ErrProvider.Error()
	}
	detail := e.Message
	if detail == "" {
		detail = strings.TrimSpace(e.Body)
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, detail)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// MalformedResponseError is a reply whose body could not be decoded.
type MalformedResponseError struct {
	ContentType string
	Err         error
}

func (e *MalformedResponseError) Error() string {
	if e == nil {
		return ErrMalformedResponse.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: unexpected content type %q", ErrMalformedResponse, e.ContentType)
	}
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *MalformedResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
