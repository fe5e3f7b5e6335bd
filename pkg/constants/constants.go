// Package constants provides shared constants for the emi-calculator application.
package constants

// Date layouts accepted in configuration files and API requests.
const (
	// MonthLayout identifies a calendar month, e.g. the schedule anchor.
	MonthLayout = "2006-01"

	// DateLayout is the layout of a pre-payment start date.
	DateLayout = "2006-01-02"
)

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// BalanceEpsilon is the largest outstanding balance treated as fully repaid.
	BalanceEpsilon = 0.01

	// DefaultProcessingFee is the processing fee quoted when a request does not
	// carry one.
	DefaultProcessingFee = 25000.0

	// MaxPrincipal is the largest amount a loan may be quoted for.
	MaxPrincipal = 1e12

	// MaxTenureYears is the longest tenure a loan may be quoted for.
	MaxTenureYears = 50

	// MaxAnnualRatePercent is the highest annual rate a loan may carry.
	MaxAnnualRatePercent = 100.0
)

// Pre-payment frequencies
const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON emits the result exactly as the HTTP API does
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":4000"

	// DefaultMaxBodyBytes caps the size of a JSON request body (64 KB)
	DefaultMaxBodyBytes int64 = 64 * 1024

	// StorageDriverMemory keeps saved results in process memory
	StorageDriverMemory = "memory"

	// StorageDriverPostgres keeps saved results in PostgreSQL
	StorageDriverPostgres = "postgres"

	// CacheDriverNone disables result caching
	CacheDriverNone = "none"

	// CacheDriverMemory caches results in process memory
	CacheDriverMemory = "memory"

	// CacheDriverRedis caches results in Redis
	CacheDriverRedis = "redis"

	// DefaultCacheTTLSeconds bounds how long a cached result lives in Redis
	DefaultCacheTTLSeconds = 3600
)
