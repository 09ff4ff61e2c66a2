package spapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const signingService = "execute-api"

// Signer produces the canonical-request signature headers for one outbound
// call. It is a pure function of the request, the temporary credentials and
// the supplied time; the sha256 payload hash feeds the SDK's SigV4
// implementation, which fills in Authorization and X-Amz-Date.
type Signer struct {
	region string
	v4     *v4.Signer
}

func NewSigner(region string) *Signer {
	return &Signer{
		region: region,
		v4:     v4.NewSigner(),
	}
}

func (s *Signer) Sign(ctx context.Context, req *http.Request, body []byte, creds aws.Credentials, now time.Time) error {
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])
	if err := s.v4.SignHTTP(ctx, creds, req, payloadHash, signingService, s.region, now); err != nil {
		return SigningError{Cause: err}
	}
	return nil
}
