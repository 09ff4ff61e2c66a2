package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"

	"github.com/fulfillkit/inboundplan/internal/clock"
)

// Session holds everything one invocation needs to call the gateway: the
// bearer token from the refresh grant and the temporary signing keys from
// role assumption. Both are acquired together and reused for every signed
// call of the invocation.
type Session struct {
	AccessToken string
	Credentials aws.Credentials
	ExpiresAt   time.Time
}

// SessionProvider is implemented by Broker and faked in tests.
type SessionProvider interface {
	Acquire(ctx context.Context) (*Session, error)
}

type BrokerConfig struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	RefreshToken  string
	RoleARN       string
	SessionName   string
}

type BrokerOptions struct {
	HTTPClient *http.Client
	Clock      clock.Clock
}

func WithBrokerHTTPClient(c *http.Client) func(*BrokerOptions) {
	return func(o *BrokerOptions) {
		o.HTTPClient = c
	}
}

func WithBrokerClock(c clock.Clock) func(*BrokerOptions) {
	return func(o *BrokerOptions) {
		o.Clock = c
	}
}

// Broker performs the two credential exchanges: refresh token to bearer
// token at the token endpoint, and role assumption to temporary signing
// keys. A rejected refresh token is fatal and is never retried here.
type Broker struct {
	cfg        BrokerConfig
	httpClient *http.Client
	provider   aws.CredentialsProvider
	clock      clock.Clock

	mu      sync.Mutex
	session *Session
}

func NewBroker(cfg BrokerConfig, stsClient stscreds.AssumeRoleAPIClient, optFns ...func(*BrokerOptions)) *Broker {
	o := &BrokerOptions{
		HTTPClient: http.DefaultClient,
		Clock:      clock.RealClock{},
	}
	for _, opt := range optFns {
		opt(o)
	}
	provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(aro *stscreds.AssumeRoleOptions) {
		if cfg.SessionName != "" {
			aro.RoleSessionName = cfg.SessionName
		}
	})
	return &Broker{
		cfg:        cfg,
		httpClient: o.HTTPClient,
		provider:   aws.NewCredentialsCache(provider),
		clock:      o.Clock,
	}
}

// Acquire returns a valid session, performing both exchanges on first use
// and again once the previous session nears expiry.
func (b *Broker) Acquire(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	if b.session != nil && now.Add(time.Minute).Before(b.session.ExpiresAt) {
		return b.session, nil
	}
	token, expiresIn, err := b.exchangeRefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	creds, err := b.provider.Retrieve(ctx)
	if err != nil {
		return nil, AssumeRoleError{Cause: err}
	}
	b.session = &Session{
		AccessToken: token,
		Credentials: creds,
		ExpiresAt:   now.Add(time.Duration(expiresIn) * time.Second),
	}
	return b.session, nil
}

func (b *Broker) exchangeRefreshToken(ctx context.Context) (token string, expiresIn int, err error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", b.cfg.RefreshToken)
	form.Set("client_id", b.cfg.ClientID)
	form.Set("client_secret", b.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, RequestError{Operation: "exchangeRefreshToken", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", 0, RequestError{Operation: "exchangeRefreshToken", Cause: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, RequestError{Operation: "exchangeRefreshToken", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, TokenExchangeError{Status: resp.StatusCode, Body: string(body)}
	}
	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, MalformedResponseError{Operation: "exchangeRefreshToken", Cause: err}
	}
	if parsed.AccessToken == "" {
		return "", 0, TokenExchangeError{Status: resp.StatusCode, Body: "response carried no access_token"}
	}
	if parsed.ExpiresIn <= 0 {
		parsed.ExpiresIn = 3600
	}
	return parsed.AccessToken, parsed.ExpiresIn, nil
}

// MaskSecret shortens a credential for logging. Nothing longer than a
// prefix and suffix ever reaches a log line.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", s[:4], s[len(s)-4:])
}
