// Package config loads runtime configuration for the healthsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "db_path": "healthsync.db",
//	  "remote_kind": "s3",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "s3_region": "us-east-1",
//	  "s3_bucket": "healthsync",
//	  "s3_access_key": "minioadmin",
//	  "s3_secret_key": "minioadmin",
//	  "push_debounce": "1s",
//	  "push_timeout": "10s",
//	  "poll_interval": "5s",
//	  "notice_ttl": "3s",
//	  "range_start": "2025-10-04",
//	  "range_days": 11
//	}
//
// S3 credentials are only read from the JSON file.
package config
