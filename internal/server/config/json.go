package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/healthsync/internal/flagx"
	"github.com/dmitrijs2005/healthsync/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// ShutdownTimeout uses timex.Duration, which accepts both "10s" and integer
// nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	MetricsAddr      string         `json:"metrics_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	StorageKind      string         `json:"storage_kind"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Keys missing from the file keep their current value.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.MetricsAddr != "" {
		config.MetricsAddr = c.MetricsAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.StorageKind != "" {
		config.StorageKind = c.StorageKind
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
