package config

import (
	"os"
	"strconv"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"

	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

// Default values
const (
	DefaultResolverURL        = "https://dev.uniresolver.io/1.0/identifiers"
	DefaultResolverTimeout    = 10 * time.Second
	DefaultResolverRetries    = 3
	DefaultResolverCacheSize  = 1000
	DefaultResolverCacheTTL   = 5 * time.Minute
	DefaultRevocationCapacity = 131072
	DefaultStatusListMaxBytes = 2 << 20
	DefaultLogSpec            = "INFO"
)

// Environment variable names
const (
	EnvResolverURL        = "IDENTITY_RESOLVER_URL"
	EnvResolverTimeout    = "IDENTITY_RESOLVER_TIMEOUT"
	EnvResolverRetries    = "IDENTITY_RESOLVER_RETRIES"
	EnvResolverCacheSize  = "IDENTITY_RESOLVER_CACHE_SIZE"
	EnvResolverCacheTTL   = "IDENTITY_RESOLVER_CACHE_TTL"
	EnvRevocationCapacity = "IDENTITY_REVOCATION_CAPACITY"
	EnvStatusListMaxBytes = "IDENTITY_STATUS_LIST_MAX_BYTES"
	EnvLogSpec            = "IDENTITY_LOG_SPEC"
)

var logger = log.New("config")

// ResolverURL returns the universal resolver base URL from environment variable or default value
func ResolverURL() string {
	if u := os.Getenv(EnvResolverURL); u != "" {
		return u
	}
	return DefaultResolverURL
}

// ResolverTimeout returns the HTTP timeout for DID resolution, e.g. "5s"
func ResolverTimeout() time.Duration {
	return durationFromEnv(EnvResolverTimeout, DefaultResolverTimeout)
}

// ResolverRetries returns how many times a transient resolution failure is retried
func ResolverRetries() int {
	return intFromEnv(EnvResolverRetries, DefaultResolverRetries, 0)
}

// ResolverCacheSize returns the number of DID documents kept by the caching resolver
func ResolverCacheSize() int {
	return intFromEnv(EnvResolverCacheSize, DefaultResolverCacheSize, 1)
}

// ResolverCacheTTL returns how long a cached DID document stays valid
func ResolverCacheTTL() time.Duration {
	return durationFromEnv(EnvResolverCacheTTL, DefaultResolverCacheTTL)
}

// RevocationCapacity returns the revocation bitstring capacity in bits
func RevocationCapacity() int {
	return intFromEnv(EnvRevocationCapacity, DefaultRevocationCapacity, 1)
}

// StatusListMaxBytes returns the largest decompressed status list accepted from a status list credential
func StatusListMaxBytes() int {
	return intFromEnv(EnvStatusListMaxBytes, DefaultStatusListMaxBytes, 1)
}

// LogSpec returns the log level specification, e.g. "proof=DEBUG:revocation=WARN:INFO"
func LogSpec() string {
	if spec := os.Getenv(EnvLogSpec); spec != "" {
		return spec
	}
	return DefaultLogSpec
}

// ApplyLogSpec sets module log levels from LogSpec. An invalid spec falls back to INFO.
func ApplyLogSpec() {
	spec := LogSpec()

	if err := log.SetSpec(spec); err != nil {
		logger.Warn("Invalid log spec, using INFO", logfields.WithLogSpec(spec), log.WithError(err))

		log.SetDefaultLevel(log.INFO)

		return
	}

	logger.Debug("Log levels set", logfields.WithLogSpec(log.GetSpec()))
}

func intFromEnv(name string, def, min int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= min {
			return v
		}
	}
	return def
}

func durationFromEnv(name string, def time.Duration) time.Duration {
	if s := os.Getenv(name); s != "" {
		if v, err := time.ParseDuration(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}
