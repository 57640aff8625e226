package credentialstatus

import (
	"encoding/base64"
	"fmt"
	"strings"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
)

// Media types accepted in a revocation service endpoint.
const (
	MediaTypeOctetStream = "application/octet-stream"
	MediaTypeGzip        = "application/gzip"
)

const (
	dataScheme     = "data:"
	base64Encoding = ";base64"
)

// EncodeDataURI returns data as a base64 data URI of the given media type.
func EncodeDataURI(mediaType string, data []byte) string {
	return dataScheme + mediaType + base64Encoding + "," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the payload of a base64 data URI whose media type is
// application/octet-stream or application/gzip.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataScheme) {
		return nil, sdkerrors.Newf(sdkerrors.ErrFormat, "not a data URI")
	}

	header, payload, found := strings.Cut(uri[len(dataScheme):], ",")
	if !found {
		return nil, sdkerrors.Newf(sdkerrors.ErrFormat, "data URI has no payload")
	}

	mediaType, isBase64 := strings.CutSuffix(header, base64Encoding)
	if !isBase64 {
		return nil, sdkerrors.Newf(sdkerrors.ErrFormat, "data URI is not base64 encoded")
	}

	switch mediaType {
	case MediaTypeOctetStream, MediaTypeGzip:
	default:
		return nil, sdkerrors.Newf(sdkerrors.ErrFormat, "unsupported data URI media type %q", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some writers emit unpadded or URL-safe payloads.
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, sdkerrors.Wrap(sdkerrors.ErrFormat, "", "", fmt.Errorf("invalid base64 payload: %w", err))
		}
	}

	return data, nil
}
