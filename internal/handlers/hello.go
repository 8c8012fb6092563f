package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// Message is the greeting every invocation returns. Consumers match on it
// byte for byte, so it must not change.
const Message = "Hello from AWS Lambda 🚀"

// Event is the invocation payload. Any JSON value is accepted and none of it
// is read.
type Event struct{}

// UnmarshalJSON accepts any JSON value and discards it.
func (*Event) UnmarshalJSON([]byte) error { return nil }

// Response is what the hosting platform gets back: a status code and a JSON
// encoded body, nothing else.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type HelloBody struct {
	Message string `json:"message"`
}

// Hello returns the same response for every event. It has no side effects
// and is safe to call concurrently.
func Hello(ctx context.Context, _ Event) (Response, error) {
	// HelloBody only holds a string, so Marshal cannot fail.
	body, _ := json.Marshal(HelloBody{
		Message: Message,
	})

	return Response{
		StatusCode: http.StatusOK,
		Body:       string(body),
	}, nil
}
