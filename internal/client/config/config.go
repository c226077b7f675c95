package config

import "time"

// Remote backend kinds accepted by RemoteKind.
const (
	RemoteGRPC = "grpc"
	RemoteS3   = "s3"
	RemoteNone = "none"
)

// Config holds runtime settings for the healthsync client.
//
// Durations are time.Duration values; the JSON loader accepts them as
// strings like "5s" and the flags take milliseconds (-w) or seconds (-i).
type Config struct {
	DBPath  string
	LogFile string

	RemoteKind         string
	ServerEndpointAddr string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	PushDebounce time.Duration
	PushTimeout  time.Duration
	PingTimeout  time.Duration
	PollInterval time.Duration
	NoticeTTL    time.Duration

	// RangeStart is the first day of the table as YYYY-MM-DD. Empty means
	// 4 October of the current year.
	RangeStart string
	RangeDays  int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "healthsync.db"
	c.LogFile = "healthsync.log"
	c.RemoteKind = RemoteGRPC
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.S3Endpoint = "http://127.0.0.1:9000"
	c.S3Region = "us-east-1"
	c.S3Bucket = "healthsync"
	c.PushDebounce = 1000 * time.Millisecond
	c.PushTimeout = 10 * time.Second
	c.PingTimeout = 3 * time.Second
	c.PollInterval = 5 * time.Second
	c.NoticeTTL = 3 * time.Second
	c.RangeStart = ""
	c.RangeDays = 11
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
