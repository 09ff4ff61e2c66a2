package spapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestSignerSignsRequest(t *testing.T) {
	s := NewSigner("us-east-1")
	body := []byte(`{"name": "plan"}`)
	req, err := http.NewRequest(http.MethodPost, "https://sellingpartnerapi-na.amazon.com/inbound/fba/2024-03-20/inboundPlans", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	creds := aws.Credentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		SessionToken:    "session-token",
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Sign(context.Background(), req, body, creds, now); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	auth := req.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256") {
		t.Errorf("authorization scheme: %q", auth)
	}
	if !strings.Contains(auth, "/us-east-1/execute-api/aws4_request") {
		t.Errorf("credential scope: %q", auth)
	}
	if got := req.Header.Get("X-Amz-Date"); got != "20260301T120000Z" {
		t.Errorf("date header: %q", got)
	}
	if req.Header.Get("X-Amz-Security-Token") == "" {
		t.Error("session token header missing")
	}
}

func TestSignerDeterministic(t *testing.T) {
	s := NewSigner("us-east-1")
	creds := aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sign := func() string {
		req, err := http.NewRequest(http.MethodGet, "https://sellingpartnerapi-na.amazon.com/inbound/fba/2024-03-20/operations/op-1", nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Sign(context.Background(), req, nil, creds, now); err != nil {
			t.Fatal(err)
		}
		return req.Header.Get("Authorization")
	}
	if sign() != sign() {
		t.Error("signing the same request twice should produce the same signature")
	}
}
