package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"royalties/internal/notify"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerWorkReviewed(7, "APPROVED").
		TriggerUpdate(notify.Update{Type: notify.TypeMusic, ID: 7, Status: "APPROVED"}).
		TriggerFormReset().
		TriggerSuccessNotification("Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	// Verify trigger contains expected events
	expectedParts := []string{
		`"work:reviewed"`,
		`"namsa:update"`,
		`"form:reset"`,
		`"show-notification"`,
		`"id":7`,
		`"type":"music"`,
		`"type":"success"`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_ReportTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerReportCreated("rep-1", 4).
		TriggerInvoiceCreated("inv-1", 2).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"report:created"`) {
		t.Errorf("Missing report:created trigger: %s", trigger)
	}
	if !strings.Contains(trigger, `"invoice:created"`) {
		t.Errorf("Missing invoice:created trigger: %s", trigger)
	}
	if !strings.Contains(trigger, `"artistId":4`) || !strings.Contains(trigger, `"companyId":2`) {
		t.Errorf("Missing trigger details: %s", trigger)
	}
}

func TestValidationErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	ValidationErrorResponse([]string{"bank name is required", "<b>bad</b>"}).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<li>bank name is required</li>") {
		t.Errorf("Missing problem item: %s", body)
	}
	if strings.Contains(body, "<b>") {
		t.Error("Problems must be escaped")
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Error("Validation errors should raise an error toast")
	}
}

func TestConflictError(t *testing.T) {
	w := httptest.NewRecorder()

	ConflictError("Already reviewed").Write(w)

	if w.Code != http.StatusConflict {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusConflict)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "Already reviewed") {
		t.Errorf("Conflict should carry a notification: %s", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid input</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Validation failed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">Validation failed</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Resource not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error">Resource not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, POST")
	}
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		notifType NotificationType
		want      string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(tt.notifType, "test", 1000).
			Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, `"type":"`+tt.want+`"`) {
			t.Errorf("Notification type %q not found in trigger: %s", tt.want, trigger)
		}
	}
}
