package credentialstatus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-identity-sdk/credential/common/config"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/util"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("credential-status")

// Client is a simple HTTP client for fetching credential status information
// from a statusListCredential URL.
type Client struct {
	httpClient *http.Client
}

// ClientOpt configures a Client.
type ClientOpt func(*Client)

// WithHTTPClient sets the HTTP client used to fetch status list credentials.
func WithHTTPClient(c *http.Client) ClientOpt {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a new credential status client. The default client is
// instrumented with OpenTelemetry and uses the resolver timeout.
func NewClient(opts ...ClientOpt) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   config.ResolverTimeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckStatus fetches the status list credential referenced by status and
// returns the bit at its statusListIndex.
func (c *Client) CheckStatus(ctx context.Context, status *Status) (bool, error) {
	if status == nil || !status.StatusList() {
		return false, sdkerrors.Newf(sdkerrors.ErrGuard, "status does not reference a status list credential")
	}

	vc, err := c.FetchStatusListCredential(ctx, status.StatusListCredential)
	if err != nil {
		return false, err
	}

	return IsRevoked(status.StatusListIndex, vc.CredentialSubject)
}

// FetchStatusListCredential fetches and parses the status list credential
// located at the given statusListCredential URL. The credential may be
// returned bare or wrapped in a {"data": ...} envelope.
func (c *Client) FetchStatusListCredential(ctx context.Context, statusListCredentialURL string) (*StatusListCredential, error) {
	if statusListCredentialURL == "" {
		return nil, fmt.Errorf("statusListCredential URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusListCredentialURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status list credential request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrRevocationStatusUnavailable, "", statusListCredentialURL,
			fmt.Errorf("failed to call status list credential endpoint: %w", err))
	}
	defer resp.Body.Close()

	logger.Debug("Fetched status list credential", logfields.WithURL(statusListCredentialURL),
		logfields.WithHTTPStatus(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, sdkerrors.Wrap(sdkerrors.ErrRevocationStatusUnavailable, "", statusListCredentialURL,
			fmt.Errorf("status list credential API returned non-200 status: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, statusListBodyLimit()))
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var wrapped StatusListCredentialResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", statusListCredentialURL,
			fmt.Errorf("failed to unmarshal status list credential JSON: %w", err))
	}

	if wrapped.Data.CredentialSubject.EncodedList != "" {
		return &wrapped.Data, nil
	}

	var bare StatusListCredential
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", statusListCredentialURL,
			fmt.Errorf("failed to unmarshal status list credential JSON: %w", err))
	}

	return &bare, nil
}

// statusListBodyLimit bounds the status list credential response: a
// compressed list never exceeds the raw list, plus base64 and JSON overhead.
func statusListBodyLimit() int64 {
	return 2*int64(config.StatusListMaxBytes()) + 64<<10
}

// IsRevoked checks whether a credential is revoked based on the encoded list
// and a given status position (index in the bitstring). A list published for
// another purpose says nothing about revocation and fails with
// ErrRevocationStatusUnavailable.
func IsRevoked(position int, subject StatusListCredentialSubject) (bool, error) {
	if subject.StatusPurpose != StatusPurposeRevocation {
		return false, sdkerrors.Wrap(sdkerrors.ErrRevocationStatusUnavailable, "", subject.ID,
			fmt.Errorf("status list purpose is %q, not %q", subject.StatusPurpose, StatusPurposeRevocation))
	}

	list, err := DecodeEncodedList(subject.EncodedList)
	if err != nil {
		return false, err
	}

	return list.Get(position)
}

// DecodeEncodedList decodes a status list encodedList. Both the multibase
// base64url form ("u" prefix) and plain base64url are accepted; the
// capacity is the decompressed length in bits, bounded by
// config.StatusListMaxBytes.
func DecodeEncodedList(encoded string) (*Bitstring, error) {
	var (
		compressed []byte
		err        error
	)

	if strings.HasPrefix(encoded, "u") {
		_, compressed, err = multibase.Decode(encoded)
	} else {
		compressed, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}

	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrFormat, "", "", fmt.Errorf("invalid encodedList: %w", err))
	}

	raw, err := inflate(compressed, config.StatusListMaxBytes())
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, sdkerrors.Newf(sdkerrors.ErrFormat, "encodedList is empty")
	}

	return FromBytes(raw, len(raw)*8)
}

// EncodeList encodes b as a multibase base64url encodedList.
func EncodeList(b *Bitstring) (string, error) {
	compressed, err := util.Compress(b.bits)
	if err != nil {
		return "", fmt.Errorf("failed to compress status list: %w", err)
	}

	return multibase.Encode(multibase.Base64url, compressed)
}
