package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server       ServerConfig       `json:"server"`
	Dropbox      DropboxConfig      `json:"dropbox"`
	S3           S3Config           `json:"s3"`
	MediaConvert MediaConvertConfig `json:"mediaconvert"`
	Sync         SyncConfig         `json:"sync"`
	Database     Database           `json:"database"`
	Redis        RedisConfig        `json:"redis"`
	Worker       MediaWorkerConfig  `json:"media_worker"`
	Sentry       SentryConfig       `json:"sentry"`
}

type ServerConfig struct {
	Port         int           `json:"port" validate:"required"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DropboxConfig holds origin-store credentials. RefreshToken plus app
// key/secret is the production setup; AccessToken alone works for local runs.
type DropboxConfig struct {
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

type S3Config struct {
	Region      string `json:"region" validate:"required"`
	BucketName  string `json:"bucket_name" validate:"required"`
	AccessKeyID string `json:"access_key_id" validate:"required"`
	SecretKey   string `json:"secret_key" validate:"required"`
	Endpoint    string `json:"endpoint"` // optional, for R2/MinIO
}

type MediaConvertConfig struct {
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"` // per-account endpoint
	RoleARN  string `json:"role_arn"`
}

// SyncConfig shapes the enumeration pass. RootPrefix is the canonical
// top-level folder casing; the origin store reports paths lowercased.
type SyncConfig struct {
	RootPrefix   string        `json:"root_prefix"`
	OwnerFolder  string        `json:"owner_folder"`
	Recursive    bool          `json:"recursive"`
	ImageWidths  []int         `json:"image_widths"`
	LeaseTTL     time.Duration `json:"lease_ttl"`
	QueueEnabled bool          `json:"queue_enabled"`
}

type Database struct {
	DSN string `json:"dsn" validate:"required"`
}

type RedisConfig struct {
	Password            string        `json:"password"`
	DatabaseID          int           `json:"database_id"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	PoolSize            int           `json:"pool_size"`
	Nodes               []RedisNode   `json:"nodes" validate:"min=1"`
}

type RedisNode struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

type MediaWorkerConfig struct {
	Stream           string        `json:"stream"`             // redis stream name
	Group            string        `json:"group"`              // consumer group name
	Workers          int           `json:"workers"`            // number of concurrent consumers
	MaxAttempts      int           `json:"max_attempts"`       // retries before dead-letter
	MaxLen           int64         `json:"max_len"`            // stream max length before trim
	BackoffBase      time.Duration `json:"backoff_base"`       // base retry delay
	BlockTimeout     time.Duration `json:"block_timeout"`      // XREADGROUP block timeout
	Consumer         string        `json:"consumer"`           // consumer name within the group
	DeadLetterStream string        `json:"dead_letter_stream"` // exhausted jobs land here
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}

// Validate checks required fields and surfaces operational caveats of the
// chosen mode. It must run before any component is built.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Sync.QueueEnabled {
		if c.Worker.Stream == "" || c.Worker.Group == "" {
			return fmt.Errorf("config validation: media_worker stream and group are required when the queue is enabled")
		}
	} else {
		// Documented limitation of inline mode, not a silent one.
		log.Printf("[config] work queue disabled: images are processed inline and videos are NOT processed")
	}

	if c.Dropbox.RefreshToken == "" && c.Dropbox.AccessToken == "" {
		return fmt.Errorf("config validation: dropbox needs a refresh_token or access_token")
	}

	return nil
}
