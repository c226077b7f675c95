package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   path of the local SQLite database
//	-k string   remote kind: grpc, s3 or none
//	-a string   address and port of the sync server
//	-w int      push debounce window (in milliseconds)
//	-i int      S3 poll interval (in seconds)
//	-f string   first day of the table, YYYY-MM-DD
//	-n int      number of days in the table
//	-l string   log file
//
// Args are filtered with flagx.FilterArgs so -c/-config does not trip the
// parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-a", "-w", "-i", "-f", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database file")
	fs.StringVar(&cfg.RemoteKind, "k", cfg.RemoteKind, "remote kind (grpc|s3|none)")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	debounce := fs.Int("w", int(cfg.PushDebounce.Milliseconds()), "push debounce window (in milliseconds)")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "poll interval (in seconds)")
	fs.StringVar(&cfg.RangeStart, "f", cfg.RangeStart, "first day of the table (YYYY-MM-DD)")
	fs.IntVar(&cfg.RangeDays, "n", cfg.RangeDays, "number of days in the table")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PushDebounce = time.Duration(*debounce) * time.Millisecond
	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
