package credentialstatus

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    *Status
		wantErr sdkerrors.Kind
	}{
		{
			name:  "absent",
			input: nil,
		},
		{
			name: "string index",
			input: map[string]interface{}{
				"id":                    "did:x:abc#revocation",
				"type":                  "RevocationBitmap2022",
				"revocationBitmapIndex": "5",
			},
			want: &Status{ID: "did:x:abc#revocation", Type: "RevocationBitmap2022", RevocationBitmapIndex: 5},
		},
		{
			name: "number index",
			input: map[string]interface{}{
				"id":                    "did:x:abc#revocation",
				"type":                  "BitstringStatusList",
				"revocationBitmapIndex": float64(42),
			},
			want: &Status{ID: "did:x:abc#revocation", Type: "BitstringStatusList", RevocationBitmapIndex: 42},
		},
		{
			name: "json number index",
			input: map[string]interface{}{
				"id":                    "did:x:abc#revocation",
				"revocationBitmapIndex": json.Number("7"),
			},
			want: &Status{ID: "did:x:abc#revocation", RevocationBitmapIndex: 7},
		},
		{
			name: "array takes the first entry",
			input: []interface{}{
				map[string]interface{}{"id": "did:x:abc#revocation", "revocationBitmapIndex": 3},
			},
			want: &Status{ID: "did:x:abc#revocation", RevocationBitmapIndex: 3},
		},
		{
			name:  "empty array",
			input: []interface{}{},
		},
		{
			name: "status list entry",
			input: map[string]interface{}{
				"id":                   "https://example.com/status/1#94567",
				"type":                 "BitstringStatusListEntry",
				"statusPurpose":        "revocation",
				"statusListIndex":      "94567",
				"statusListCredential": "https://example.com/status/1",
			},
			want: &Status{
				ID: "https://example.com/status/1#94567", Type: "BitstringStatusListEntry",
				StatusPurpose: "revocation", StatusListIndex: 94567,
				StatusListCredential: "https://example.com/status/1",
			},
		},
		{
			name:    "negative index",
			input:   map[string]interface{}{"id": "did:x:abc#revocation", "revocationBitmapIndex": "-1"},
			wantErr: sdkerrors.ErrDecode,
		},
		{
			name:    "fractional index",
			input:   map[string]interface{}{"id": "did:x:abc#revocation", "revocationBitmapIndex": 1.5},
			wantErr: sdkerrors.ErrDecode,
		},
		{
			name:    "missing index",
			input:   map[string]interface{}{"id": "did:x:abc#revocation"},
			wantErr: sdkerrors.ErrGuard,
		},
		{
			name:    "missing id",
			input:   map[string]interface{}{"revocationBitmapIndex": "1"},
			wantErr: sdkerrors.ErrGuard,
		},
		{
			name:    "boolean index",
			input:   map[string]interface{}{"id": "did:x:abc#revocation", "revocationBitmapIndex": true},
			wantErr: sdkerrors.ErrDecode,
		},
		{
			name:    "not an object",
			input:   "did:x:abc#revocation",
			wantErr: sdkerrors.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_DID(t *testing.T) {
	s := &Status{ID: "did:x:abc#revocation"}
	assert.Equal(t, "did:x:abc", s.DID())
	assert.False(t, s.StatusList())
}
