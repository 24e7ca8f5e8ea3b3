package config

import (
	"os"
	"strings"
)

func BasePath() string {
	return strings.TrimSuffix(os.Getenv("APP_BASE_PATH"), "/")
}

// Port returns the listen address, ":8080" when APP_PORT is unset.
func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// SQLitePath is where the terminal client keeps best times.
func SQLitePath() string {
	if path, ok := os.LookupEnv("SQLITE_PATH"); ok {
		return path
	}
	return "minesweeper.db"
}
