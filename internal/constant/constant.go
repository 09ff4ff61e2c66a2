package constant

import "time"

const (
	DefaultTableName         = "inbound-plan-requests"
	DefaultSettingsTableName = "inbound-plan-settings"
	DefaultRetryMaxAttempts  = 10

	// Bounded attempt caps for the gateway retry loop and the
	// create-and-repair loop.
	DefaultGatewayRetryAttempts = 3
	DefaultGatewayRetryDelay    = 500 * time.Millisecond
	DefaultPlanCreateAttempts   = 3

	// Budget for polling asynchronous remote operations.
	DefaultOperationPollAttempts = 10
	DefaultOperationPollInitial  = time.Second
	DefaultOperationPollMax      = 15 * time.Second

	// Bounded retries for per-group item fetches before falling back
	// to a cached set.
	DefaultPackingFetchAttempts = 3

	// Auto-filled expiration dates land this far in the future.
	AutoExpirationMonths = 16
)
