// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON responses so handlers
// produce consistent payloads and error envelopes.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"paydesk/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Payload sets the body that will be marshalled to JSON.
func (b *JSONResponseBuilder) Payload(payload any) *JSONResponseBuilder {
	b.payload = payload
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if b.payload != nil {
		_ = json.NewEncoder(w).Encode(b.payload)
	}
}

type errorPayload struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard error envelope.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Payload(errorPayload{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 response with a fixed opaque message.
// Store failure details never leave the process.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

// expenseNode is the wire shape of one expense in a collection.
type expenseNode struct {
	ID                 int64    `json:"id"`
	Type               string   `json:"type"`
	Status             string   `json:"status"`
	Description        string   `json:"description"`
	AmountCents        int64    `json:"amountCents"`
	CreatedAt          string   `json:"createdAt"`
	FromCollectiveID   int64    `json:"fromCollectiveId"`
	CollectiveID       int64    `json:"collectiveId"`
	CreatedByAccountID int64    `json:"createdByAccountId"`
	PayoutMethodID     *int64   `json:"payoutMethodId"`
	Tags               []string `json:"tags"`
}

type collectionPayload struct {
	Nodes      []expenseNode `json:"nodes"`
	TotalCount int           `json:"totalCount"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// BuildCollection maps a result page onto the wire shape. Nodes is always
// a JSON array, never null.
func BuildCollection(c core.Collection) collectionPayload {
	nodes := make([]expenseNode, 0, len(c.Nodes))
	for _, e := range c.Nodes {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		nodes = append(nodes, expenseNode{
			ID:                 e.ID,
			Type:               string(e.Type),
			Status:             string(e.Status),
			Description:        e.Description,
			AmountCents:        e.Amount.Cents,
			CreatedAt:          e.CreatedAt.UTC().Format(time.RFC3339),
			FromCollectiveID:   e.FromCollectiveID,
			CollectiveID:       e.CollectiveID,
			CreatedByAccountID: e.CreatedByAccountID,
			PayoutMethodID:     e.PayoutMethodID,
			Tags:               tags,
		})
	}
	return collectionPayload{
		Nodes:      nodes,
		TotalCount: c.TotalCount,
		Limit:      c.Limit,
		Offset:     c.Offset,
	}
}
