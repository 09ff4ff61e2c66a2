package inboundplan

import "fmt"

type RequestIDNotProvidedError struct{}

func (e RequestIDNotProvidedError) Error() string {
	return "Request ID was not provided."
}

type InvalidRequestIDError struct {
	ID string
}

func (e InvalidRequestIDError) Error() string {
	return fmt.Sprintf("Request ID %q is not a valid UUID.", e.ID)
}

type RequestNotFoundError struct {
	ID string
}

func (e RequestNotFoundError) Error() string {
	return fmt.Sprintf("Shipment request %q was not found.", e.ID)
}

type ConditionalCheckFailedError struct {
	Cause error
}

func (e ConditionalCheckFailedError) Error() string {
	return fmt.Sprintf("Conditional update was rejected by the store: %v.", e.Cause)
}

type BuildingExpressionError struct {
	Cause error
}

func (e BuildingExpressionError) Error() string {
	return fmt.Sprintf("Failed to build expression: %v.", e.Cause)
}

type DynamoDBAPIError struct {
	Cause error
}

func (e DynamoDBAPIError) Error() string {
	return fmt.Sprintf("Failed DynamoDB API: %v.", e.Cause)
}

type UnmarshalingAttributeError struct {
	Cause error
}

func (e UnmarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to unmarshal: %v.", e.Cause)
}

type MarshalingAttributeError struct {
	Cause error
}

func (e MarshalingAttributeError) Error() string {
	return fmt.Sprintf("Failed to marshal: %v.", e.Cause)
}

type SettingNotFoundError struct {
	Key string
}

func (e SettingNotFoundError) Error() string {
	return fmt.Sprintf("Setting %q was not found.", e.Key)
}

type ConfigMissingError struct {
	Field string
}

func (e ConfigMissingError) Error() string {
	return fmt.Sprintf("Required configuration %q is missing.", e.Field)
}

// PlanCreationError carries the raw remote diagnostics after the
// create-and-repair loop exhausted its attempt budget without producing a
// plan. It is surfaced as a blocking result, not an HTTP failure.
type PlanCreationError struct {
	Attempts    int
	Diagnostics []string
}

func (e PlanCreationError) Error() string {
	return fmt.Sprintf("Plan creation failed after %d attempts: %v.", e.Attempts, e.Diagnostics)
}

// PlanErroredError reports that the remote plan reached a terminal ERRORED
// status. The persisted plan state has already been cleared; the condition
// is retryable by a later invocation.
type PlanErroredError struct {
	PlanID string
}

func (e PlanErroredError) Error() string {
	return fmt.Sprintf("Inbound plan %q entered ERRORED status and was discarded.", e.PlanID)
}
