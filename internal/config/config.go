package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Library
	MusicDir    string
	PresetDir   string
	BufferAhead int  // tracks decoded ahead of playback
	Shuffle     bool // randomise order on each pass
	Loop        bool // start over when the directory is exhausted

	// Logging
	LogLevel      string
	LogFile       string // empty = stdout only
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads a .env file if present, then configuration from environment
// variables with sane defaults. Variables already set in the environment
// win over the .env file.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadFile is Load with an explicit .env path.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		return Config{}, err
	}
	return fromEnv(), nil
}

func fromEnv() Config {
	return Config{
		Port: envInt("AFFIX_PORT", 8080),

		MusicDir:    envStr("AFFIX_MUSIC_DIR", "./music"),
		PresetDir:   envStr("AFFIX_PRESET_DIR", "./presets"),
		BufferAhead: envInt("AFFIX_BUFFER_AHEAD", 2),
		Shuffle:     envBool("AFFIX_SHUFFLE", false),
		Loop:        envBool("AFFIX_LOOP", true),

		LogLevel:      envStr("AFFIX_LOG_LEVEL", "info"),
		LogFile:       envStr("AFFIX_LOG_FILE", ""),
		LogMaxSizeMB:  envInt("AFFIX_LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: envInt("AFFIX_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: envInt("AFFIX_LOG_MAX_AGE_DAYS", 28),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
