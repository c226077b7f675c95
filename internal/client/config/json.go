package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/flagx"
	"github.com/dmitrijs2005/healthsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Intervals use timex.Duration, so they may be written as "5s" or as
// integer nanoseconds.
type JsonConfig struct {
	DBPath  string `json:"db_path"`
	LogFile string `json:"log_file"`

	RemoteKind         string `json:"remote_kind"`
	ServerEndpointAddr string `json:"server_endpoint_addr"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	PushDebounce timex.Duration `json:"push_debounce"`
	PushTimeout  timex.Duration `json:"push_timeout"`
	PingTimeout  timex.Duration `json:"ping_timeout"`
	PollInterval timex.Duration `json:"poll_interval"`
	NoticeTTL    timex.Duration `json:"notice_ttl"`

	RangeStart string `json:"range_start"`
	RangeDays  int    `json:"range_days"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Keys absent from the file leave the current value alone.
// Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.RemoteKind, jc.RemoteKind)
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.RangeStart, jc.RangeStart)

	setDuration(&cfg.PushDebounce, jc.PushDebounce)
	setDuration(&cfg.PushTimeout, jc.PushTimeout)
	setDuration(&cfg.PingTimeout, jc.PingTimeout)
	setDuration(&cfg.PollInterval, jc.PollInterval)
	setDuration(&cfg.NoticeTTL, jc.NoticeTTL)

	if jc.RangeDays > 0 {
		cfg.RangeDays = jc.RangeDays
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
