// Package constants provides shared constants for the loan-simulator application.
package constants

// DateLayout is the calendar date format expected in config files and API
// payloads, and is also the output date format.
const DateLayout = "2006-01-02"

// MonthLayout is accepted as a shorthand start date meaning the first day of
// that month.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MaxTermMonths is the longest supported contract (35 years)
	MaxTermMonths = 420

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places used when rendering money
	CurrencyPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// TransportNetHTTP serves the API with net/http
	TransportNetHTTP = "nethttp"

	// TransportFastHTTP serves the API with fasthttp
	TransportFastHTTP = "fasthttp"

	// CacheBackendMemory keeps simulation results in process memory
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps simulation results in redis
	CacheBackendRedis = "redis"

	// CacheBackendNone disables result caching
	CacheBackendNone = "none"

	// DefaultCacheTTL is how long a cached simulation stays valid
	DefaultCacheTTL = "15m"

	// DefaultRateLimitRequests is the per-client request budget per window
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the refill window for the per-client budget
	DefaultRateLimitWindow = "1m"
)

// CurrencySymbol prefixes amounts in human-readable output
const CurrencySymbol = "$"
