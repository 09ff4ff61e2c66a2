package spapi

import "fmt"

type TokenExchangeError struct {
	Status int
	Body   string
}

func (e TokenExchangeError) Error() string {
	return fmt.Sprintf("Token endpoint rejected the refresh token: status %d.", e.Status)
}

type AssumeRoleError struct {
	Cause error
}

func (e AssumeRoleError) Error() string {
	return fmt.Sprintf("Failed to assume delegated role: %v.", e.Cause)
}

type SigningError struct {
	Cause error
}

func (e SigningError) Error() string {
	return fmt.Sprintf("Failed to sign request: %v.", e.Cause)
}

type RequestError struct {
	Operation string
	Cause     error
}

func (e RequestError) Error() string {
	return fmt.Sprintf("Request for %s failed: %v.", e.Operation, e.Cause)
}

type MalformedResponseError struct {
	Operation string
	Cause     error
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("Response for %s could not be parsed: %v.", e.Operation, e.Cause)
}

// APIError is one entry of the remote error list.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// APIStatusError is a non-2xx response after the retry budget, carrying the
// parsed remote error list when one was present.
type APIStatusError struct {
	Operation string
	Status    int
	Body      string
	Errors    []APIError
}

func (e APIStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s.", e.Operation, e.Status, e.Body)
}

func (e APIStatusError) NotFound() bool { return e.Status == 404 }

func (e APIStatusError) Conflict() bool { return e.Status == 409 }
