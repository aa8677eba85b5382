package env

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ChatRedisURL = "CHAT_REDIS_URL"
	FileStore    = "FILE_STORE"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

// Config is the whole process configuration. Every field can be set from
// the environment or a .env file in the working directory.
type Config struct {
	Port        string   `envconfig:"PORT" default:"5000"`
	CORSOrigins []string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000,https://incognito-wachira.vercel.app,https://incognito-wachira.netlify.app"`

	DefaultRoom      string   `envconfig:"CHAT_DEFAULT_ROOM" default:"general"`
	MaxHistory       int      `envconfig:"CHAT_MAX_HISTORY" default:"1000"`
	MaxMessageLength int      `envconfig:"CHAT_MAX_MESSAGE_LENGTH" default:"1000"`
	MaxFileSize      int64    `envconfig:"CHAT_MAX_FILE_SIZE" default:"5242880"`
	AllowedFileTypes []string `envconfig:"CHAT_ALLOWED_FILE_TYPES" default:"image/jpeg,image/png,image/gif,image/webp"`

	MaxFrameBytes   int64   `envconfig:"WS_MAX_FRAME_BYTES" default:"8388608"`
	SendBuffer      int     `envconfig:"WS_SEND_BUFFER" default:"256"`
	RateLimitPerSec float64 `envconfig:"WS_RATE_LIMIT_PER_SEC" default:"20"`
	RateLimitBurst  int     `envconfig:"WS_RATE_LIMIT_BURST" default:"40"`

	HTTPRateLimitMax    int           `envconfig:"HTTP_RATE_LIMIT_MAX" default:"100"`
	HTTPRateLimitWindow time.Duration `envconfig:"HTTP_RATE_LIMIT_WINDOW" default:"15m"`

	QueueSize    int `envconfig:"QUEUE_SIZE" default:"1024"`
	QueueWorkers int `envconfig:"QUEUE_WORKERS" default:"8"`

	FileStore          string        `envconfig:"FILE_STORE" default:"memory"`
	FileTTL            time.Duration `envconfig:"FILE_TTL" default:"24h"`
	MemoryStoreMax     int           `envconfig:"MEMORY_STORE_MAX" default:"256"`
	AttachmentsTable   string        `envconfig:"CHAT_ATTACHMENTS_TABLE" default:"ChatAttachments"`
	RedisURL           string        `envconfig:"CHAT_REDIS_URL"`
	RedisPass          string        `envconfig:"CHAT_REDIS_PASS"`
	RedisChannelPrefix string        `envconfig:"CHAT_REDIS_CHANNEL_PREFIX" default:"chat:room:"`

	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSID            string `envconfig:"AWS_ID"`
	AWSSecret        string `envconfig:"AWS_SECRET"`
	AWSToken         string `envconfig:"AWS_TOKEN"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("env: %w", err)
	}
	cfg.sanitize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) sanitize() {
	c.CORSOrigins = trimAll(c.CORSOrigins)
	c.AllowedFileTypes = trimAll(c.AllowedFileTypes)
	c.FileStore = strings.ToLower(strings.TrimSpace(c.FileStore))
	c.DefaultRoom = strings.TrimSpace(c.DefaultRoom)
}

func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("env: PORT must not be empty")
	case c.DefaultRoom == "":
		return fmt.Errorf("env: CHAT_DEFAULT_ROOM must not be empty")
	case c.MaxHistory < 0:
		return fmt.Errorf("env: CHAT_MAX_HISTORY must be >= 0, got %d", c.MaxHistory)
	case c.MaxMessageLength <= 0:
		return fmt.Errorf("env: CHAT_MAX_MESSAGE_LENGTH must be > 0, got %d", c.MaxMessageLength)
	case c.MaxFileSize <= 0:
		return fmt.Errorf("env: CHAT_MAX_FILE_SIZE must be > 0, got %d", c.MaxFileSize)
	case c.SendBuffer <= 0:
		return fmt.Errorf("env: WS_SEND_BUFFER must be > 0, got %d", c.SendBuffer)
	case c.RateLimitPerSec <= 0 || c.RateLimitBurst <= 0:
		return fmt.Errorf("env: WS_RATE_LIMIT_PER_SEC and WS_RATE_LIMIT_BURST must be > 0")
	case c.HTTPRateLimitMax <= 0 || c.HTTPRateLimitWindow <= 0:
		return fmt.Errorf("env: HTTP_RATE_LIMIT_MAX and HTTP_RATE_LIMIT_WINDOW must be > 0")
	case c.QueueSize <= 0 || c.QueueWorkers <= 0:
		return fmt.Errorf("env: QUEUE_SIZE and QUEUE_WORKERS must be > 0")
	}

	switch c.FileStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("env: %s=redis requires %s", FileStore, ChatRedisURL)
		}
	case StoreDynamoDB:
		if c.AttachmentsTable == "" {
			return fmt.Errorf("env: %s=dynamodb requires CHAT_ATTACHMENTS_TABLE", FileStore)
		}
	default:
		return fmt.Errorf("env: unknown %s %q", FileStore, c.FileStore)
	}
	return nil
}

// FrameLimit is the largest inbound websocket frame worth reading: a base64
// file at the size cap plus envelope overhead.
func (c Config) FrameLimit() int64 {
	limit := c.MaxFileSize*4/3 + 64*1024
	if c.MaxFrameBytes > limit {
		return c.MaxFrameBytes
	}
	return limit
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
