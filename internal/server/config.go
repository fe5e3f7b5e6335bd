package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `yaml:"address"`
	MaxBodySize   string               `yaml:"maxBodySize"`
	StartMonth    string               `yaml:"startMonth"`
	ProcessingFee *float64             `yaml:"processingFee"`
	Logging       config.LoggingConfig `yaml:"logging"`
	Storage       StorageConfig        `yaml:"storage"`
	Cache         CacheConfig          `yaml:"cache"`

	bodySizeBytes int64
	anchor        datetime.YearMonth
	cacheTTL      time.Duration
}

// StorageConfig selects where saved results are kept.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, postgres
	DSN    string `yaml:"dsn"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Driver  string `yaml:"driver"` // none, memory, redis
	Address string `yaml:"address"`
	TTL     string `yaml:"ttl"` // e.g. 30m, 1h
}

func defaultConfig() *Config {
	return &Config{
		Address:       constants.DefaultServerAddress,
		MaxBodySize:   fmt.Sprintf("%d", constants.DefaultMaxBodyBytes),
		Storage:       StorageConfig{Driver: constants.StorageDriverMemory},
		Cache:         CacheConfig{Driver: constants.CacheDriverNone},
		bodySizeBytes: constants.DefaultMaxBodyBytes,
		cacheTTL:      constants.DefaultCacheTTLSeconds * time.Second,
	}
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySizeBytes = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

// Anchor returns the configured start month, or the zero month when requests
// should default to the current month.
func (c *Config) Anchor() datetime.YearMonth {
	return c.anchor
}

// CacheTTL returns how long cached results live.
func (c *Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	bytes, err := ParseSize(c.MaxBodySize)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodyBytes
	}
	c.bodySizeBytes = bytes

	c.anchor = datetime.YearMonth{}
	if start := strings.TrimSpace(c.StartMonth); start != "" {
		anchor, err := datetime.Parse(start)
		if err != nil {
			return fmt.Errorf("invalid startMonth: %w", err)
		}
		c.anchor = anchor
	}

	if c.ProcessingFee != nil && *c.ProcessingFee < 0 {
		return fmt.Errorf("processingFee must not be negative, got %v", *c.ProcessingFee)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = constants.StorageDriverMemory
	case constants.StorageDriverMemory:
	case constants.StorageDriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q, expected %s or %s",
			c.Storage.Driver, constants.StorageDriverMemory, constants.StorageDriverPostgres)
	}

	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	switch c.Cache.Driver {
	case "":
		c.Cache.Driver = constants.CacheDriverNone
	case constants.CacheDriverNone, constants.CacheDriverMemory:
	case constants.CacheDriverRedis:
		if strings.TrimSpace(c.Cache.Address) == "" {
			return errors.New("cache.address is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q, expected %s, %s or %s",
			c.Cache.Driver, constants.CacheDriverNone, constants.CacheDriverMemory, constants.CacheDriverRedis)
	}

	c.cacheTTL = constants.DefaultCacheTTLSeconds * time.Second
	if ttl := strings.TrimSpace(c.Cache.TTL); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
		}
		c.cacheTTL = parsed
	}
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodyBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
