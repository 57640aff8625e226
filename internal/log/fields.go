package log

import (
	"time"

	"go.uber.org/zap"
)

// Log Fields.
const (
	FieldDID                = "did"
	FieldVerificationMethod = "verificationMethod"
	FieldServiceID          = "serviceId"
	FieldServiceType        = "serviceType"
	FieldIndex              = "index"
	FieldIndices            = "indices"
	FieldRevoked            = "revoked"
	FieldCapacity           = "capacity"
	FieldCryptosuite        = "cryptosuite"
	FieldProofCount         = "proofCount"
	FieldAlgorithm          = "alg"
	FieldURL                = "url"
	FieldHTTPStatus         = "httpStatus"
	FieldAttempt            = "attempt"
	FieldBackoff            = "backoff"
	FieldConnector          = "connector"
	FieldVersion            = "version"
	FieldLogSpec            = "logSpec"
	FieldCredentialID       = "credentialId"
)

// WithError sets the error field.
func WithError(err error) zap.Field {
	return zap.Error(err)
}

// WithDID sets the did field.
func WithDID(value string) zap.Field {
	return zap.String(FieldDID, value)
}

// WithVerificationMethod sets the verificationMethod field.
func WithVerificationMethod(value string) zap.Field {
	return zap.String(FieldVerificationMethod, value)
}

// WithServiceID sets the serviceId field.
func WithServiceID(value string) zap.Field {
	return zap.String(FieldServiceID, value)
}

// WithServiceType sets the serviceType field.
func WithServiceType(value string) zap.Field {
	return zap.String(FieldServiceType, value)
}

// WithIndex sets the index field.
func WithIndex(value int) zap.Field {
	return zap.Int(FieldIndex, value)
}

// WithIndices sets the indices field.
func WithIndices(value []int) zap.Field {
	return zap.Ints(FieldIndices, value)
}

// WithRevoked sets the revoked field.
func WithRevoked(value bool) zap.Field {
	return zap.Bool(FieldRevoked, value)
}

// WithCapacity sets the capacity field.
func WithCapacity(value int) zap.Field {
	return zap.Int(FieldCapacity, value)
}

// WithCryptosuite sets the cryptosuite field.
func WithCryptosuite(value string) zap.Field {
	return zap.String(FieldCryptosuite, value)
}

// WithProofCount sets the proofCount field.
func WithProofCount(value int) zap.Field {
	return zap.Int(FieldProofCount, value)
}

// WithAlgorithm sets the alg field.
func WithAlgorithm(value string) zap.Field {
	return zap.String(FieldAlgorithm, value)
}

// WithURL sets the url field.
func WithURL(value string) zap.Field {
	return zap.String(FieldURL, value)
}

// WithHTTPStatus sets the httpStatus field.
func WithHTTPStatus(value int) zap.Field {
	return zap.Int(FieldHTTPStatus, value)
}

// WithAttempt sets the attempt field.
func WithAttempt(value int) zap.Field {
	return zap.Int(FieldAttempt, value)
}

// WithBackoff sets the backoff field.
func WithBackoff(value time.Duration) zap.Field {
	return zap.Duration(FieldBackoff, value)
}

// WithConnector sets the connector field.
func WithConnector(value string) zap.Field {
	return zap.String(FieldConnector, value)
}

// WithVersion sets the version field.
func WithVersion(value string) zap.Field {
	return zap.String(FieldVersion, value)
}

// WithLogSpec sets the logSpec field.
func WithLogSpec(value string) zap.Field {
	return zap.String(FieldLogSpec, value)
}

// WithCredentialID sets the credentialId field.
func WithCredentialID(value string) zap.Field {
	return zap.String(FieldCredentialID, value)
}
