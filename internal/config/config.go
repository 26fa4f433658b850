package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/japa/internal/domain"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type StorageBackend string

const (
	StoragePostgres StorageBackend = "postgres"
	StorageCSV      StorageBackend = "csv"
)

const DEFAULT_PORT = "8080"
const DEFAULT_CSV_PATH = "ram_seva_data.csv"
const DEFAULT_TIMEZONE = "Asia/Kolkata"

type Config struct {
	port                   string
	storageBackend         StorageBackend
	csvPath                string
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	adminTokenHash         string
	location               *time.Location
	groupSize              int64
	allowedOriginSuffixes  []string
	googleCloudProject     string
	otelEnabled            bool
	env                    environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) StorageBackend() StorageBackend {
	return c.storageBackend
}

func (c *Config) CSVPath() string {
	return c.csvPath
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) AdminTokenHash() string {
	return c.adminTokenHash
}

// The time zone that decides when a new day starts
func (c *Config) Location() *time.Location {
	return c.location
}

func (c *Config) GroupSize() int64 {
	return c.groupSize
}

func (c *Config) AllowedOriginSuffixes() []string {
	return c.allowedOriginSuffixes
}

func (c *Config) GoogleCloudProject() string {
	return c.googleCloudProject
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, storage: %s, timezone: %s, groupSize: %d, ...}",
		string(c.env), c.port, string(c.storageBackend), c.location.String(), c.groupSize,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("JAPA_ENVIRONMENT")
	if !ok {
		return missingKey("JAPA_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("JAPA_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DEFAULT_PORT
	}

	var storageBackend StorageBackend
	rawStorageBackend := os.Getenv("STORAGE_BACKEND")
	switch rawStorageBackend {
	case "", string(StoragePostgres):
		storageBackend = StoragePostgres
	case string(StorageCSV):
		storageBackend = StorageCSV
	default:
		return invalidValue("STORAGE_BACKEND", rawStorageBackend)
	}

	csvPath := os.Getenv("CSV_PATH")
	if csvPath == "" {
		csvPath = DEFAULT_CSV_PATH
	}

	rawTimezone := os.Getenv("TIMEZONE")
	if rawTimezone == "" {
		rawTimezone = DEFAULT_TIMEZONE
	}
	location, err := time.LoadLocation(rawTimezone)
	if err != nil {
		return invalidValue("TIMEZONE", rawTimezone)
	}

	groupSize := int64(domain.DEFAULT_GROUP_SIZE)
	if rawGroupSize := os.Getenv("GROUP_SIZE"); rawGroupSize != "" {
		groupSize, err = strconv.ParseInt(rawGroupSize, 10, 64)
		if err != nil || groupSize <= 0 {
			return invalidValue("GROUP_SIZE", rawGroupSize)
		}
	}

	var allowedOriginSuffixes []string
	for _, suffix := range strings.Split(os.Getenv("ALLOWED_ORIGIN_SUFFIXES"), ",") {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" {
			allowedOriginSuffixes = append(allowedOriginSuffixes, suffix)
		}
	}

	otelEnabled := false
	if rawOTelEnabled := os.Getenv("OTEL_ENABLED"); rawOTelEnabled != "" {
		otelEnabled, err = strconv.ParseBool(rawOTelEnabled)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTelEnabled)
		}
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	adminTokenHash := os.Getenv("ADMIN_TOKEN_HASH")
	googleCloudProject := os.Getenv("GOOGLE_CLOUD_PROJECT")

	if env == production || env == staging {
		if storageBackend == StoragePostgres {
			if cloudSQLUnixSocketPath == "" {
				return missingKey("CLOUDSQL_UNIX_SOCKET")
			}
			if dbUsername == "" {
				return missingKey("DB_USERNAME")
			}
			if dbPassword == "" {
				return missingKey("DB_PASSWORD")
			}
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if adminTokenHash == "" {
			return missingKey("ADMIN_TOKEN_HASH")
		}
	}

	return Config{
		port:                   port,
		storageBackend:         storageBackend,
		csvPath:                csvPath,
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		adminTokenHash:         adminTokenHash,
		location:               location,
		groupSize:              groupSize,
		allowedOriginSuffixes:  allowedOriginSuffixes,
		googleCloudProject:     googleCloudProject,
		otelEnabled:            otelEnabled,
		env:                    env,
	}, nil
}
