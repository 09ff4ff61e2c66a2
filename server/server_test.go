package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulfillkit/inboundplan"
)

type fakePreparer struct {
	out *inboundplan.PreparePlanOutput
	err error
}

func (f fakePreparer) PreparePlan(ctx context.Context, params *inboundplan.PreparePlanInput) (*inboundplan.PreparePlanOutput, error) {
	return f.out, f.err
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/inbound-plans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPreparePlanEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		preparer   fakePreparer
		body       string
		wantStatus int
	}{
		{
			name: "success",
			preparer: fakePreparer{out: &inboundplan.PreparePlanOutput{
				TraceID: "trace-1",
				Result:  &inboundplan.PlanResult{PlanID: "wf1"},
			}},
			body:       `{"requestId": "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name: "blocking result is still a 200",
			preparer: fakePreparer{out: &inboundplan.PreparePlanOutput{
				TraceID: "trace-2",
				Result: &inboundplan.PlanResult{
					Blocking:     true,
					BlockedItems: []inboundplan.BlockedItem{{SKU: "s", Reason: inboundplan.BlockedReasonIneligible}},
				},
			}},
			body:       `{"requestId": "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid request id",
			preparer:   fakePreparer{err: &inboundplan.InvalidRequestIDError{ID: "nope"}},
			body:       `{"requestId": "nope"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing request id",
			preparer:   fakePreparer{err: &inboundplan.RequestIDNotProvidedError{}},
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown request",
			preparer:   fakePreparer{err: &inboundplan.RequestNotFoundError{ID: "x"}},
			body:       `{"requestId": "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "infrastructure failure",
			preparer:   fakePreparer{err: errors.New("dynamodb is down")},
			body:       `{"requestId": "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"}`,
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.preparer)
			rec := post(t, s.Handler(), tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp preparePlanResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not json: %v", err)
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Error == "dynamodb is down" {
				t.Error("internal error detail must not leak to the client")
			}
		})
	}
}

func TestPreparePlanRejectsMalformedBody(t *testing.T) {
	s := New(fakePreparer{})
	rec := post(t, s.Handler(), "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestPreparePlanRejectsWrongMethod(t *testing.T) {
	s := New(fakePreparer{})
	req := httptest.NewRequest(http.MethodGet, "/inbound-plans", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := New(fakePreparer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	s := New(fakePreparer{out: &inboundplan.PreparePlanOutput{TraceID: "t", Result: &inboundplan.PlanResult{}}})
	post(t, s.Handler(), `{"requestId": "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "inboundplan_http_requests_total") {
		t.Error("request counter not exposed")
	}
}
