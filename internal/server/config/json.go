package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fitkeeper/internal/flagx"
	"github.com/dmitrijs2005/fitkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// "15m"-style strings or integer nanoseconds. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	StoreDriver                 *string         `json:"store_driver"`
	MongoURI                    *string         `json:"mongo_uri"`
	MongoDatabase               *string         `json:"mongo_database"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	ConnectAttempts             *int            `json:"connect_attempts"`
	ConnectDelay                *timex.Duration `json:"connect_delay"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3PublicURL                 *string         `json:"s3_public_url"`
	UploadAttempts              *int            `json:"upload_attempts"`
	UploadBaseDelay             *timex.Duration `json:"upload_base_delay"`
	UploadMaxBytes              *int64          `json:"upload_max_bytes"`
	LoginRatePerSecond          *float64        `json:"login_rate_per_second"`
	LoginBurst                  *int            `json:"login_burst"`
	LogLevel                    *string         `json:"log_level"`
	AdminUsernames              []string        `json:"admin_usernames"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	CORSOrigins                 []string        `json:"cors_origins"`
}

// parseJson loads the file named by -c/-config in args, if any, and copies
// the fields it sets into config. An unreadable or malformed file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.LogLevel, c.LogLevel)

	if c.ConnectAttempts != nil {
		config.ConnectAttempts = *c.ConnectAttempts
	}
	if c.ConnectDelay != nil {
		config.ConnectDelay = c.ConnectDelay.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.UploadAttempts != nil {
		config.UploadAttempts = *c.UploadAttempts
	}
	if c.UploadBaseDelay != nil {
		config.UploadBaseDelay = c.UploadBaseDelay.Duration
	}
	if c.UploadMaxBytes != nil {
		config.UploadMaxBytes = *c.UploadMaxBytes
	}
	if c.LoginRatePerSecond != nil {
		config.LoginRatePerSecond = *c.LoginRatePerSecond
	}
	if c.LoginBurst != nil {
		config.LoginBurst = *c.LoginBurst
	}
	if c.AdminUsernames != nil {
		config.AdminUsernames = c.AdminUsernames
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
