package spapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan/internal/clock"
	"github.com/fulfillkit/inboundplan/internal/constant"
)

// API is the operation surface the orchestrator drives. All methods are
// synchronous; asynchronous remote work is exposed through operation ids
// polled via GetOperation.
type API interface {
	CreateInboundPlan(ctx context.Context, params *CreateInboundPlanInput) (*CreateInboundPlanOutput, error)
	GetInboundPlan(ctx context.Context, params *GetInboundPlanInput) (*GetInboundPlanOutput, error)
	GetOperation(ctx context.Context, params *GetOperationInput) (*GetOperationOutput, error)
	ListPackingOptions(ctx context.Context, params *ListPackingOptionsInput) (*ListPackingOptionsOutput, error)
	GeneratePackingOptions(ctx context.Context, params *GeneratePackingOptionsInput) (*GeneratePackingOptionsOutput, error)
	ConfirmPackingOption(ctx context.Context, params *ConfirmPackingOptionInput) (*ConfirmPackingOptionOutput, error)
	ListPackingGroupItems(ctx context.Context, params *ListPackingGroupItemsInput) (*ListPackingGroupItemsOutput, error)
	GetListingsItem(ctx context.Context, params *GetListingsItemInput) (*GetListingsItemOutput, error)
	GetCatalogItem(ctx context.Context, params *GetCatalogItemInput) (*GetCatalogItemOutput, error)
	GetListingsRestrictions(ctx context.Context, params *GetListingsRestrictionsInput) (*GetListingsRestrictionsOutput, error)
	GetPrepInstructions(ctx context.Context, params *GetPrepInstructionsInput) (*GetPrepInstructionsOutput, error)
}

// ClientOptions configures the gateway client.
//
// Sleep and Clock are primarily test hooks; in typical use they should not
// be modified.
type ClientOptions struct {
	HTTPClient       *http.Client
	Logger           *zap.Logger
	Clock            clock.Clock
	RetryMaxAttempts int
	RetryDelay       time.Duration
	Sleep            func(time.Duration)
}

func WithHTTPClient(c *http.Client) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.HTTPClient = c
	}
}

func WithLogger(l *zap.Logger) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Logger = l
	}
}

func WithClock(c clock.Clock) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Clock = c
	}
}

func WithRetryMaxAttempts(n int) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.RetryMaxAttempts = n
	}
}

func WithRetryDelay(d time.Duration) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.RetryDelay = d
	}
}

func WithSleep(f func(time.Duration)) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Sleep = f
	}
}

// NewClient creates a gateway client for the given endpoint. Every call is
// signed with credentials from the session provider and carries the bearer
// token it supplies.
func NewClient(endpoint, region string, sessions SessionProvider, optFns ...func(*ClientOptions)) *Client {
	o := &ClientOptions{
		HTTPClient:       http.DefaultClient,
		Logger:           zap.NewNop(),
		Clock:            clock.RealClock{},
		RetryMaxAttempts: constant.DefaultGatewayRetryAttempts,
		RetryDelay:       constant.DefaultGatewayRetryDelay,
		Sleep:            time.Sleep,
	}
	for _, opt := range optFns {
		opt(o)
	}
	return &Client{
		endpoint:         endpoint,
		sessions:         sessions,
		signer:           NewSigner(region),
		httpClient:       o.HTTPClient,
		logger:           o.Logger,
		clock:            o.Clock,
		retryMaxAttempts: o.RetryMaxAttempts,
		retryDelay:       o.RetryDelay,
		sleep:            o.Sleep,
	}
}

// Client is the concrete API implementation. Always construct it with
// NewClient.
type Client struct {
	endpoint         string
	sessions         SessionProvider
	signer           *Signer
	httpClient       *http.Client
	logger           *zap.Logger
	clock            clock.Clock
	retryMaxAttempts int
	retryDelay       time.Duration
	sleep            func(time.Duration)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// do performs one signed gateway call with bounded retries on 429/5xx. The
// delay between attempts grows linearly with the attempt number. Request and
// response metadata is logged on every attempt with secrets masked.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return nil, RequestError{Operation: op, Cause: err}
		}
	}
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	session, err := c.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		respBody, status, err := c.doOnce(ctx, op, method, u, body, session)
		if err != nil {
			lastErr = RequestError{Operation: op, Cause: err}
		} else if status >= 200 && status <= 299 {
			return respBody, nil
		} else {
			lastErr = APIStatusError{
				Operation: op,
				Status:    status,
				Body:      string(respBody),
				Errors:    decodeAPIErrors(respBody),
			}
			if !retryableStatus(status) {
				return nil, lastErr
			}
		}
		if attempt < c.retryMaxAttempts {
			c.sleep(time.Duration(attempt) * c.retryDelay)
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, op, method, u string, body []byte, session *Session) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Amz-Access-Token", session.AccessToken)
	if err := c.signer.Sign(ctx, req, body, session.Credentials, c.clock.Now()); err != nil {
		return nil, 0, err
	}

	c.logger.Info("gateway request",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("url", u),
		zap.Any("headers", maskHeaders(req.Header)),
		zap.ByteString("body", body),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("gateway transport failure",
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	c.logger.Info("gateway response",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Any("headers", maskHeaders(resp.Header)),
		zap.ByteString("body", respBody),
	)
	return respBody, resp.StatusCode, nil
}

var secretHeaders = map[string]struct{}{
	"Authorization":        {},
	"X-Amz-Access-Token":   {},
	"X-Amz-Security-Token": {},
	"X-Amz-Session-Token":  {},
}

func maskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		v := ""
		if len(vs) > 0 {
			v = vs[0]
		}
		if _, secret := secretHeaders[http.CanonicalHeaderKey(k)]; secret {
			v = MaskSecret(v)
		}
		out[k] = v
	}
	return out
}
