// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a type-safe, fluent API for building HX-Trigger headers and
// consistent response formatting.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"royalties/internal/notify"
)

// Client-side event names carried in HX-Trigger.
const (
	EventWorkReviewed   = "work:reviewed"
	EventReportCreated  = "report:created"
	EventInvoiceCreated = "invoice:created"
	EventFormReset      = "form:reset"
	EventNotification   = "show-notification"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerWorkReviewed tells the works table which row changed.
func (b *HTMXResponseBuilder) TriggerWorkReviewed(id int64, status string) *HTMXResponseBuilder {
	return b.Trigger(EventWorkReviewed, map[string]any{"id": id, "status": status})
}

func (b *HTMXResponseBuilder) TriggerReportCreated(id string, artistID int64) *HTMXResponseBuilder {
	return b.Trigger(EventReportCreated, map[string]any{"id": id, "artistId": artistID})
}

func (b *HTMXResponseBuilder) TriggerInvoiceCreated(id string, companyID int64) *HTMXResponseBuilder {
	return b.Trigger(EventInvoiceCreated, map[string]any{"id": id, "companyId": companyID})
}

// TriggerUpdate relays a change notification to the submitting tab. Other
// tabs receive the same payload over the websocket.
func (b *HTMXResponseBuilder) TriggerUpdate(u notify.Update) *HTMXResponseBuilder {
	if u.At.IsZero() {
		u.At = time.Now().UTC()
	}
	return b.Trigger(notify.Key, map[string]any{"type": u.Type, "id": u.ID, "status": u.Status, "at": u.At})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a toast with the given type, message and duration.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// ValidationErrorResponse lists every problem of a rejected form.
func ValidationErrorResponse(problems []string) *HTMXResponseBuilder {
	var sb strings.Builder
	sb.WriteString(`<div class="error"><p>Please fix the following:</p><ul>`)
	for _, p := range problems {
		sb.WriteString("<li>" + template.HTMLEscapeString(p) + "</li>")
	}
	sb.WriteString("</ul></div>")
	return NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		TriggerErrorNotification("Please fix the highlighted fields").
		BodyHTML(sb.String())
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError is returned when the request clashes with current state, such
// as reviewing an already reviewed work.
func ConflictError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusConflict, message).TriggerErrorNotification(message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
