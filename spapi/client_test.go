package spapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

type staticSessions struct{}

func (staticSessions) Acquire(ctx context.Context) (*Session, error) {
	return &Session{
		AccessToken: "Atza|test-access-token-value",
		Credentials: aws.Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			SessionToken:    "session",
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "us-east-1", staticSessions{},
		WithSleep(func(time.Duration) {}),
	)
}

func TestClientRetriesThrottling(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"operationId": "op-1", "operationStatus": "SUCCESS"}`))
	})

	out, err := c.GetOperation(context.Background(), &GetOperationInput{OperationID: "op-1"})
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if out.Operation.Status != OperationStatusSuccess {
		t.Errorf("status: %q", out.Operation.Status)
	}
}

func TestClientStopsAfterRetryBudget(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetOperation(context.Background(), &GetOperationInput{OperationID: "op-1"})
	var statusErr APIStatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors": [{"code": "InvalidInput", "message": "bad prep owner"}]}`))
	})

	_, err := c.CreateInboundPlan(context.Background(), &CreateInboundPlanInput{Name: "x"})
	var statusErr APIStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1 (4xx must not retry)", calls)
	}
	if len(statusErr.Errors) != 1 || statusErr.Errors[0].Code != "InvalidInput" {
		t.Errorf("parsed errors: %+v", statusErr.Errors)
	}
}

func TestClientSignsAndCarriesToken(t *testing.T) {
	var seen http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Write([]byte(`{}`))
	})

	if _, err := c.GetInboundPlan(context.Background(), &GetInboundPlanInput{InboundPlanID: "wf1"}); err != nil {
		t.Fatal(err)
	}
	if seen.Get("X-Amz-Access-Token") != "Atza|test-access-token-value" {
		t.Errorf("access token header: %q", seen.Get("X-Amz-Access-Token"))
	}
	if seen.Get("Authorization") == "" {
		t.Error("request was not signed")
	}
	if seen.Get("X-Amz-Date") == "" {
		t.Error("signature is missing the date header")
	}
}

func TestMaskHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE")
	h.Set("X-Amz-Access-Token", "Atza|supersecrettokenvalue")
	h.Set("Content-Type", "application/json")
	masked := maskHeaders(h)
	if masked["Content-Type"] != "application/json" {
		t.Errorf("plain header changed: %q", masked["Content-Type"])
	}
	if masked["Authorization"] == h.Get("Authorization") {
		t.Error("authorization header was not masked")
	}
	if masked["X-Amz-Access-Token"] == h.Get("X-Amz-Access-Token") {
		t.Error("access token header was not masked")
	}
}
