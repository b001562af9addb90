// Package constants provides shared constants for the loan-review application.
package constants

import "time"

// Date layouts accepted for contract dates.
const (
	// ContractDateLayout is the day/month/year layout used by the rate source
	// and by most contract documents.
	ContractDateLayout = "02/01/2006"

	// ISODateLayout is accepted as an alternative contract date layout.
	ISODateLayout = "2006-01-02"

	// MonthLayout is used for cache keys and log fields.
	MonthLayout = "2006-01"
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// BalanceEpsilon is the threshold below which a fixed-amortization balance
	// is clamped to zero.
	BalanceEpsilon = 1e-3

	// FloatTolerance is used when checking schedule invariants.
	FloatTolerance = 1e-6
)

// Tolerance thesis defaults
const (
	// ZeroToleranceLabel names the maximum restitution thesis.
	ZeroToleranceLabel = "zero-tolerance"

	// FiftyPercentToleranceLabel names the thesis most commonly accepted by courts.
	FiftyPercentToleranceLabel = "fifty-percent-tolerance"

	// CustomToleranceLabel names the caller-supplied thesis.
	CustomToleranceLabel = "custom"

	// ZeroTolerance is the tolerance of the maximum restitution thesis.
	ZeroTolerance = 0.0

	// FiftyPercentTolerance is the tolerance of the consolidated thesis.
	FiftyPercentTolerance = 0.5
)

// Validation thresholds that only produce warnings.
const (
	// HighMonthlyRate is the contracted monthly rate above which a warning is emitted.
	HighMonthlyRate = 0.10

	// HighTolerance is the custom tolerance above which a warning is emitted.
	HighTolerance = 1.0

	// MaxTermMonths is the longest term accepted without a warning.
	MaxTermMonths = 420
)

// EarliestReferenceDate is the first month of the market-average rate series.
var EarliestReferenceDate = time.Date(2011, time.March, 1, 0, 0, 0, 0, time.UTC)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the spreadsheet output format
	OutputFormatXLSX = "xlsx"

	// DefaultXLSXFile is the file written when xlsx output has no target.
	DefaultXLSXFile = "loan-review.xlsx"
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

// Reference rate source defaults
const (
	// DefaultRateBaseURL is the SGS series endpoint of the Brazilian Central Bank.
	DefaultRateBaseURL = "https://api.bcb.gov.br/dados/serie"

	// DefaultRateTimeout bounds a single reference rate lookup.
	DefaultRateTimeout = 30 * time.Second

	// DefaultRetryBackoff is the wait between lookup retries.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultCacheTTL is how long a looked-up reference rate is reused.
	DefaultCacheTTL = 24 * time.Hour

	// CacheBackendNone disables reference rate caching.
	CacheBackendNone = "none"

	// CacheBackendMemory keeps reference rates in process memory.
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps reference rates in Redis.
	CacheBackendRedis = "redis"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRequestTimeout bounds one API request, reference lookup included.
	DefaultRequestTimeout = 45 * time.Second
)
