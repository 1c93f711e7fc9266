package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/loopkit/internal/app/config"
	"github.com/YoshitsuguKoike/loopkit/internal/infra/persistence/file"
)

// HomeEnv overrides the default home directory
const HomeEnv = "LOOPKIT_HOME"

// DefaultHome is used when LOOPKIT_HOME is unset
const DefaultHome = ".loopkit"

// SettingFile is the settings file name inside the home directory
const SettingFile = "setting.json"

// Supported store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
)

// RawSettings represents the structure of setting.json.
// Nil fields are filled by applyDefaults.
type RawSettings struct {
	// Core settings
	Home      *string `json:"home"`
	LoopsFile *string `json:"loops_file"`

	// Storage backend
	Store    *string `json:"store"`
	DBPath   *string `json:"db_path"`
	S3Bucket *string `json:"s3_bucket"`
	S3Prefix *string `json:"s3_prefix"`
	S3Region *string `json:"s3_region"`

	// Engine timing
	ForegroundTickMs *int `json:"foreground_tick_ms"`
	BackgroundTickMs *int `json:"background_tick_ms"`
	SaveIntervalSec  *int `json:"save_interval_sec"`
	HistoryLimit     *int `json:"history_limit"`
	SchedulePollSec  *int `json:"schedule_poll_sec"`

	// Capabilities
	NotificationsEnabled *bool `json:"notifications_enabled"`
	BackgroundSupported  *bool `json:"background_supported"`

	// Logging
	StderrLevel *string `json:"stderr_level"`
}

// ResolveHome returns LOOPKIT_HOME or the default home directory
func ResolveHome() string {
	if v := strings.TrimSpace(os.Getenv(HomeEnv)); v != "" {
		return v
	}
	return DefaultHome
}

// LoadSettings loads configuration from <baseDir>/setting.json.
// Priority: setting.json > defaults
func LoadSettings(fs afero.Fs, baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	jsonPath := filepath.Join(baseDir, SettingFile)
	data, err := file.ReadFileIfExists(fs, jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", jsonPath, err)
	}
	if data != nil {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
		configSource = "json"
		settingPath = jsonPath
	}

	if settings.Home == nil {
		settings.Home = &baseDir
	}
	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", SettingFile, err)
	}
	return buildAppConfig(settings, configSource, settingPath), nil
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings) {
	// Core defaults
	if settings.Home == nil {
		v := DefaultHome
		settings.Home = &v
	}
	if settings.LoopsFile == nil {
		v := "loops.yaml"
		settings.LoopsFile = &v
	}

	// Storage defaults
	if settings.Store == nil {
		v := StoreFile
		settings.Store = &v
	}
	if settings.DBPath == nil {
		v := "loopkit.db"
		settings.DBPath = &v
	}
	if settings.S3Bucket == nil {
		v := ""
		settings.S3Bucket = &v
	}
	if settings.S3Prefix == nil {
		v := "loopkit"
		settings.S3Prefix = &v
	}
	if settings.S3Region == nil {
		v := ""
		settings.S3Region = &v
	}

	// Timing defaults
	if settings.ForegroundTickMs == nil {
		v := 1000
		settings.ForegroundTickMs = &v
	}
	if settings.BackgroundTickMs == nil {
		v := 10000
		settings.BackgroundTickMs = &v
	}
	if settings.SaveIntervalSec == nil {
		v := 10
		settings.SaveIntervalSec = &v
	}
	if settings.HistoryLimit == nil {
		v := 50
		settings.HistoryLimit = &v
	}
	if settings.SchedulePollSec == nil {
		v := 60
		settings.SchedulePollSec = &v
	}

	// Capabilities default to on
	if settings.NotificationsEnabled == nil {
		v := true
		settings.NotificationsEnabled = &v
	}
	if settings.BackgroundSupported == nil {
		v := true
		settings.BackgroundSupported = &v
	}

	if settings.StderrLevel == nil {
		v := "warn"
		settings.StderrLevel = &v
	}
}

func validate(settings *RawSettings) error {
	switch *settings.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreS3:
		if strings.TrimSpace(*settings.S3Bucket) == "" {
			return fmt.Errorf("s3_bucket is required when store is s3")
		}
	default:
		return fmt.Errorf("unknown store %q", *settings.Store)
	}
	if *settings.ForegroundTickMs <= 0 || *settings.BackgroundTickMs <= 0 {
		return fmt.Errorf("tick intervals must be positive")
	}
	if *settings.SaveIntervalSec <= 0 {
		return fmt.Errorf("save_interval_sec must be positive")
	}
	if *settings.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if *settings.SchedulePollSec <= 0 {
		return fmt.Errorf("schedule_poll_sec must be positive")
	}
	return nil
}

// resolvePath anchors relative paths at the home directory
func resolvePath(home, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(settings *RawSettings, configSource, settingPath string) *config.AppConfig {
	home := *settings.Home
	return config.NewAppConfig(config.Options{
		Home:                 home,
		LoopsFile:            resolvePath(home, *settings.LoopsFile),
		Store:                *settings.Store,
		DBPath:               resolvePath(home, *settings.DBPath),
		S3Bucket:             *settings.S3Bucket,
		S3Prefix:             *settings.S3Prefix,
		S3Region:             *settings.S3Region,
		ForegroundTick:       time.Duration(*settings.ForegroundTickMs) * time.Millisecond,
		BackgroundTick:       time.Duration(*settings.BackgroundTickMs) * time.Millisecond,
		SaveInterval:         time.Duration(*settings.SaveIntervalSec) * time.Second,
		HistoryLimit:         *settings.HistoryLimit,
		SchedulePoll:         time.Duration(*settings.SchedulePollSec) * time.Second,
		NotificationsEnabled: *settings.NotificationsEnabled,
		BackgroundSupported:  *settings.BackgroundSupported,
		StderrLevel:          *settings.StderrLevel,
		ConfigSource:         configSource,
		SettingPath:          settingPath,
	})
}

// CreateDefaultSettings creates a default setting.json content
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)
	// home follows the directory the file lives in
	settings.Home = nil

	data, _ := json.MarshalIndent(settings, "", "  ")
	return data
}
