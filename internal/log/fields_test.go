package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/logutil-go/pkg/log"
)

func TestStandardFields(t *testing.T) {
	const module = "test_module"

	stdOut := newMockWriter()

	logger := log.New(module, log.WithStdOut(stdOut), log.WithEncoding(log.JSON))

	logger.Info("Some message",
		WithError(errors.New("some error")),
		WithDID("did:x:abc"), WithVerificationMethod("did:x:abc#key-1"),
		WithServiceID("did:x:abc#revocation"), WithServiceType("BitstringStatusList"),
		WithIndex(5), WithIndices([]int{5, 10}), WithRevoked(true), WithCapacity(1024),
		WithCryptosuite("eddsa-jcs-2022"), WithProofCount(2), WithAlgorithm("ES256K"),
		WithURL("https://resolver.example.com"), WithHTTPStatus(404),
		WithAttempt(3), WithBackoff(2*time.Second), WithConnector("entity-storage"),
		WithVersion("0xabc"), WithLogSpec("proof=DEBUG:INFO"), WithCredentialID("urn:uuid:1"),
	)

	l := unmarshalLogData(t, stdOut.Bytes())

	require.Equal(t, "Some message", l.Msg)
	require.Equal(t, "some error", l.Error)
	require.Equal(t, "did:x:abc", l.DID)
	require.Equal(t, "did:x:abc#key-1", l.VerificationMethod)
	require.Equal(t, "did:x:abc#revocation", l.ServiceID)
	require.Equal(t, "BitstringStatusList", l.ServiceType)
	require.Equal(t, 5, l.Index)
	require.Equal(t, []int{5, 10}, l.Indices)
	require.True(t, l.Revoked)
	require.Equal(t, 1024, l.Capacity)
	require.Equal(t, "eddsa-jcs-2022", l.Cryptosuite)
	require.Equal(t, 2, l.ProofCount)
	require.Equal(t, "ES256K", l.Alg)
	require.Equal(t, "https://resolver.example.com", l.URL)
	require.Equal(t, 404, l.HTTPStatus)
	require.Equal(t, 3, l.Attempt)
	require.Equal(t, "entity-storage", l.Connector)
	require.Equal(t, "0xabc", l.Version)
	require.Equal(t, "proof=DEBUG:INFO", l.LogSpec)
	require.Equal(t, "urn:uuid:1", l.CredentialID)
}

type logData struct {
	Level  string `json:"level"`
	Logger string `json:"logger"`
	Msg    string `json:"msg"`
	Error  string `json:"error"`

	DID                string `json:"did"`
	VerificationMethod string `json:"verificationMethod"`
	ServiceID          string `json:"serviceId"`
	ServiceType        string `json:"serviceType"`
	Index              int    `json:"index"`
	Indices            []int  `json:"indices"`
	Revoked            bool   `json:"revoked"`
	Capacity           int    `json:"capacity"`
	Cryptosuite        string `json:"cryptosuite"`
	ProofCount         int    `json:"proofCount"`
	Alg                string `json:"alg"`
	URL                string `json:"url"`
	HTTPStatus         int    `json:"httpStatus"`
	Attempt            int    `json:"attempt"`
	Connector          string `json:"connector"`
	Version            string `json:"version"`
	LogSpec            string `json:"logSpec"`
	CredentialID       string `json:"credentialId"`
}

func unmarshalLogData(t *testing.T, b []byte) *logData {
	t.Helper()

	l := &logData{}

	require.NoError(t, json.Unmarshal(b, l))

	return l
}

type mockWriter struct {
	*bytes.Buffer
}

func (m *mockWriter) Sync() error {
	return nil
}

func newMockWriter() *mockWriter {
	return &mockWriter{Buffer: bytes.NewBuffer(nil)}
}
