package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the settings of the command-line tool.
type Config struct {
	Reader    string       // PC/SC reader name, empty for the first reader
	LogLevel  logrus.Level // Verbosity of the tool and its libraries
	DumpIn    string       // Decode this saved dump instead of reading a card
	DumpOut   string       // Write the BER-TLV card dump here after a read
	RecordOut string       // Write the decoded record as CBOR here
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment only")
	}

	level, err := logrus.ParseLevel(getEnv("TRANSIT_LOG_LEVEL", "info"))
	if err != nil {
		logrus.WithError(err).Warn("invalid TRANSIT_LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}

	return Config{
		Reader:    os.Getenv("TRANSIT_READER"),
		LogLevel:  level,
		DumpIn:    os.Getenv("TRANSIT_DUMP_IN"),
		DumpOut:   os.Getenv("TRANSIT_DUMP_OUT"),
		RecordOut: os.Getenv("TRANSIT_RECORD_OUT"),
	}
}

// getEnv returns the value of key, or defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func newLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}
