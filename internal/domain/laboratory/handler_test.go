package laboratory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/middleware"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	e := echo.New()
	e.Validator = middleware.NewValidator()
	return NewHandler(f.svc), f, e
}

func expectCode(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
	return he
}

func newContext(e *echo.Echo, method, target, body string, actor *auth.Actor) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateRequest(t *testing.T) {
	h, f, e := newTestHandler()
	doctor := f.doctor()

	body := `{"patient_id":"` + f.patientID.String() + `","test_name":"HbA1c","priority":"urgent"}`
	c, rec := newContext(e, http.MethodPost, "/lab-requests", body, &doctor)
	if err := h.CreateRequest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got Request
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.DoctorID != f.doctorID || got.Status != StatusRequested || got.Priority != PriorityUrgent {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CreateRequest_Errors(t *testing.T) {
	h, f, e := newTestHandler()
	doctor := f.doctor()

	c, _ := newContext(e, http.MethodPost, "/lab-requests", `{"patient_id":"`+f.patientID.String()+`","test_name":"HbA1c"}`, nil)
	expectCode(t, h.CreateRequest(c), http.StatusUnauthorized)

	tests := []string{
		`{"test_name":"HbA1c"}`,
		`{"patient_id":"` + f.patientID.String() + `","test_name":"HbA1c","priority":"asap"}`,
		`{"patient_id":"` + f.patientID.String() + `"}`,
	}
	for _, body := range tests {
		c, _ := newContext(e, http.MethodPost, "/lab-requests", body, &doctor)
		expectCode(t, h.CreateRequest(c), http.StatusBadRequest)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	h, f, e := newTestHandler()
	req := f.request(t)

	c, rec := newContext(e, http.MethodPost, "/", `{"status":"in_progress"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(req.ID.String())
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || f.req.items[req.ID].Status != StatusInProgress {
		t.Errorf("expected in_progress, got %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newContext(e, http.MethodPost, "/", `{"status":"misplaced"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(req.ID.String())
	he := expectCode(t, h.UpdateStatus(c), http.StatusBadRequest)
	if he.Message != "Invalid status" {
		t.Errorf("unexpected message: %v", he.Message)
	}

	c, _ = newContext(e, http.MethodPost, "/", `{"status":"in_progress"}`, nil)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	expectCode(t, h.UpdateStatus(c), http.StatusNotFound)
}

func TestHandler_DoctorRequests(t *testing.T) {
	h, f, e := newTestHandler()
	f.request(t)
	f.request(t)
	doctor := f.doctor()

	c, rec := newContext(e, http.MethodGet, "/lab-requests/mine", "", &doctor)
	if err := h.DoctorRequests(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res["total"].(float64) != 2 {
		t.Errorf("expected 2 requests, got %s", rec.Body.String())
	}

	tech := f.technician()
	c, _ = newContext(e, http.MethodGet, "/lab-requests/mine", "", &tech)
	expectCode(t, h.DoctorRequests(c), http.StatusForbidden)
}

func TestHandler_RecordAndVerifyResult(t *testing.T) {
	h, f, e := newTestHandler()
	req := f.request(t)
	tech, doctor := f.technician(), f.doctor()

	body := `{"request_id":"` + req.ID.String() + `","test_value":"142 mmol/L","is_abnormal":true}`
	c, rec := newContext(e, http.MethodPost, "/lab-results", body, &tech)
	if err := h.RecordResult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var res Result
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.PerformedBy != f.techID || !res.IsAbnormal {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	c, rec = newContext(e, http.MethodPost, "/", "", &doctor)
	c.SetParamNames("id")
	c.SetParamValues(res.ID.String())
	if err := h.VerifyResult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(e, http.MethodPost, "/", "", &doctor)
	c.SetParamNames("id")
	c.SetParamValues(res.ID.String())
	he := expectCode(t, h.VerifyResult(c), http.StatusBadRequest)
	if he.Message != "Result already verified" {
		t.Errorf("unexpected message: %v", he.Message)
	}
}

func TestHandler_ListResults_IsAbnormalFilter(t *testing.T) {
	h, f, e := newTestHandler()
	f.result(t, f.request(t).ID, false)
	f.result(t, f.request(t).ID, true)

	tests := []struct {
		query string
		want  float64
	}{
		{"", 2},
		{"?is_abnormal=true", 1},
		{"?is_abnormal=false", 1},
		{"?patient_id=" + f.patientID.String(), 2},
	}
	for _, tt := range tests {
		c, rec := newContext(e, http.MethodGet, "/lab-results"+tt.query, "", nil)
		if err := h.ListResults(c); err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.query, err)
		}
		var res map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &res)
		if res["total"].(float64) != tt.want {
			t.Errorf("%q: expected %v results, got %s", tt.query, tt.want, rec.Body.String())
		}
	}

	c, _ := newContext(e, http.MethodGet, "/lab-results?is_abnormal=maybe", "", nil)
	expectCode(t, h.ListResults(c), http.StatusBadRequest)
}
