package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-identity-sdk/credential/common/config"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("resolver")

const maxResponseSize = 1 << 20

// HTTPResolver resolves DIDs through a universal resolver style HTTP API:
// GET <baseURL>/<did>.
type HTTPResolver struct {
	baseURL    string
	client     *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// HTTPOpt configures an HTTPResolver.
type HTTPOpt func(*HTTPResolver)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOpt {
	return func(r *HTTPResolver) {
		r.client = client
	}
}

// WithMaxRetries sets the number of retries for transient failures.
func WithMaxRetries(n uint64) HTTPOpt {
	return func(r *HTTPResolver) {
		r.maxRetries = n
	}
}

// WithBackOff sets the retry back-off policy.
func WithBackOff(newBackOff func() backoff.BackOff) HTTPOpt {
	return func(r *HTTPResolver) {
		r.newBackOff = newBackOff
	}
}

// NewHTTPResolver returns a resolver for the given base URL. An empty baseURL
// uses config.ResolverURL().
func NewHTTPResolver(baseURL string, opts ...HTTPOpt) *HTTPResolver {
	if baseURL == "" {
		baseURL = config.ResolverURL()
	}

	r := &HTTPResolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   config.ResolverTimeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: uint64(config.ResolverRetries()),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(200*time.Millisecond),
				backoff.WithMaxInterval(2*time.Second),
			)
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve fetches the DID document of did. Network errors and 5xx responses
// are retried; a 404 is returned as NotFound without retrying.
func (r *HTTPResolver) Resolve(ctx context.Context, did string) (*model.DIDDocument, error) {
	if did == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "did is empty")
	}

	var (
		doc     *model.DIDDocument
		attempt int
	)

	err := backoff.RetryNotify(
		func() error {
			attempt++

			var err error
			doc, err = r.resolve(ctx, did)

			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx),
		func(err error, d time.Duration) {
			logger.Debug("Error resolving DID. Retrying...", logfields.WithDID(did),
				logfields.WithAttempt(attempt), logfields.WithBackoff(d), log.WithError(err))
		},
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *HTTPResolver) resolve(ctx context.Context, did string) (*model.DIDDocument, error) {
	apiURL := r.baseURL + "/" + url.PathEscape(did)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, backoff.Permanent(sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did,
			fmt.Errorf("failed to create request: %w", err)))
	}

	req.Header.Set("Accept", "application/did+ld+json, application/ld+json, application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		wrapped := sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did,
			fmt.Errorf("failed to make HTTP request to DID resolver: %w", err))
		if ctx.Err() != nil {
			return nil, backoff.Permanent(wrapped)
		}

		return nil, wrapped
	}
	defer resp.Body.Close()

	logger.Debug("DID resolver response", logfields.WithDID(did), logfields.WithURL(apiURL),
		logfields.WithHTTPStatus(resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did,
			fmt.Errorf("failed to read response body from DID resolver: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, backoff.Permanent(sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeDocumentNotFound, did))
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did,
			fmt.Errorf("DID resolver returned status %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did,
			fmt.Errorf("DID resolver returned status %s", resp.Status)))
	}

	doc, err := parseResolution(body)
	if err != nil {
		return nil, backoff.Permanent(sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", did, err))
	}

	return doc, nil
}

// parseResolution accepts either a bare DID document or a DID resolution
// result carrying it under didDocument.
func parseResolution(body []byte) (*model.DIDDocument, error) {
	var result struct {
		DIDDocument json.RawMessage `json:"didDocument"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID resolution JSON: %w", err)
	}

	if len(result.DIDDocument) > 0 && string(result.DIDDocument) != "null" {
		body = result.DIDDocument
	}

	doc, err := model.ParseDIDDocument(body)
	if err != nil {
		return nil, err
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("DID document has no id")
	}

	return doc, nil
}
