package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// JSONRequest describes a single JSON POST to a provider.
type JSONRequest struct {
	Op      string
	URL     string
	Headers map[string]string
	Body    interface{}
}

// PostJSON sends one request, with no retries, and decodes a 2xx JSON reply
// into out. Failures are classified into the error taxonomy: network errors
// become *TransportError, non-2xx replies *ProviderError carrying the raw
// body, and undecodable or non-JSON replies *MalformedResponseError.
func PostJSON(ctx context.Context, client *http.Client, r JSONRequest, out interface{}) (int, error) {
	body, err := json.Marshal(r.Body)
	if err != nil {
		return 0, errors.Wrap(err, "could not marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrapf(err, "could not create request for %s", r.URL)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}

	log.Debug().Str("op", r.Op).Str("url", r.URL).Int("bytes", len(body)).Msg("sending provider request")
	resp, err := client.Do(req)
	if err != nil {
		return 0, &TransportError{Op: r.Op, Err: err}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Op: r.Op, Err: err}
	}

	log.Debug().Str("op", r.Op).Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("provider replied")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !IsJSONContentType(contentType) {
		return resp.StatusCode, &MalformedResponseError{ContentType: contentType}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, &MalformedResponseError{ContentType: contentType, Err: err}
	}
	return resp.StatusCode, nil
}

// IsJSONContentType accepts application/json and +json media types.
// An empty content type is treated as JSON.
func IsJSONContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
