package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
	ErrMalformedBody     = errors.New("malformed body")
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// CheckResponse verifies that a raw invocation result honours the Hello
// contract: status 200 and a body whose message field equals Message.
func CheckResponse(payload []byte) error {
	var raw struct {
		StatusCode *int             `json:"statusCode"`
		Body       *json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.StatusCode == nil || raw.Body == nil {
		return fmt.Errorf("%w: statusCode and body are required", ErrMalformedResponse)
	}
	if *raw.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedStatus, *raw.StatusCode, http.StatusOK)
	}

	// body travels as a string holding JSON, not as a nested object.
	var body string
	if err := json.Unmarshal(*raw.Body, &body); err != nil {
		return fmt.Errorf("%w: body is not a string: %v", ErrMalformedResponse, err)
	}

	var hb struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &hb); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if hb.Message == nil {
		return fmt.Errorf("%w: message field missing", ErrMalformedBody)
	}
	if *hb.Message != Message {
		return fmt.Errorf("%w: got %q", ErrUnexpectedMessage, *hb.Message)
	}
	return nil
}
