package main

import (
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tidesound/soundprint/pkg/logging"
	"github.com/tidesound/soundprint/pkg/soundprint"
)

var (
	port           int
	dbPath         string
	tempDir        string
	matchThreshold int
	allowedOrigins string
)

func init() {
	pflag.IntVar(&port, "port", 8080, "HTTP server port")
	pflag.StringVar(&dbPath, "db", getEnvOrDefault("SOUNDPRINT_DB_PATH", "soundprint.sqlite3"), "path to SQLite catalog")
	pflag.StringVar(&tempDir, "temp", getEnvOrDefault("SOUNDPRINT_TEMP_DIR", os.TempDir()), "temp directory for uploads/conversions")
	pflag.IntVar(&matchThreshold, "threshold", 5, "minimum modal score to report a match")
	pflag.StringVar(&allowedOrigins, "origins", "*", "comma-separated CORS origins (* for all)")
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	pflag.Parse()
	log := logging.Default()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		for _, o := range strings.Split(allowedOrigins, ",") {
			origins = append(origins, strings.TrimSpace(o))
		}
	}

	service, err := soundprint.New(
		soundprint.WithDBPath(dbPath),
		soundprint.WithMatchThreshold(matchThreshold),
		soundprint.WithLogger(log),
	)
	if err != nil {
		log.Errorf("failed to create service: %v", err)
		os.Exit(1)
	}
	defer service.Close()

	cfg := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		AllowedOrigins: origins,
	}

	server := NewServer(service, cfg, log)
	if err := server.Start(); err != nil {
		log.Errorf("server failed: %v", err)
		os.Exit(1)
	}
}
