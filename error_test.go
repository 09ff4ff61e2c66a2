package inboundplan_test

import (
	"errors"
	"testing"

	"github.com/fulfillkit/inboundplan"
)

func TestErrors(t *testing.T) {
	type testCase struct {
		err      error
		expected string
	}
	tests := []testCase{
		{inboundplan.RequestIDNotProvidedError{}, "Request ID was not provided."},
		{inboundplan.InvalidRequestIDError{ID: "abc"}, `Request ID "abc" is not a valid UUID.`},
		{inboundplan.RequestNotFoundError{ID: "abc"}, `Shipment request "abc" was not found.`},
		{inboundplan.ConditionalCheckFailedError{Cause: errors.New("sample cause")}, "Conditional update was rejected by the store: sample cause."},
		{inboundplan.BuildingExpressionError{Cause: errors.New("sample cause")}, "Failed to build expression: sample cause."},
		{inboundplan.DynamoDBAPIError{Cause: errors.New("sample cause")}, "Failed DynamoDB API: sample cause."},
		{inboundplan.UnmarshalingAttributeError{Cause: errors.New("sample cause")}, "Failed to unmarshal: sample cause."},
		{inboundplan.MarshalingAttributeError{Cause: errors.New("sample cause")}, "Failed to marshal: sample cause."},
		{inboundplan.SettingNotFoundError{Key: "endpoint"}, `Setting "endpoint" was not found.`},
		{inboundplan.ConfigMissingError{Field: "seller-id"}, `Required configuration "seller-id" is missing.`},
		{inboundplan.PlanErroredError{PlanID: "wf1"}, `Inbound plan "wf1" entered ERRORED status and was discarded.`},
	}
	for _, tc := range tests {
		if tc.err.Error() != tc.expected {
			t.Errorf("Unexpected error message. Expected: %v, got: %v", tc.expected, tc.err.Error())
		}
	}
}
