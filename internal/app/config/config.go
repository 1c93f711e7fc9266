package config

import "time"

// Config provides read-only access to application configuration.
// It hides where values came from (setting.json or defaults) so the
// service layer does not depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string      // Base directory (LOOPKIT_HOME)
	LoopsFile() string // Loop catalog path, relative to Home unless absolute

	// Storage backend
	Store() string    // memory, file, sqlite or s3
	DBPath() string   // SQLite database path, relative to Home unless absolute
	S3Bucket() string // Bucket for the s3 store
	S3Prefix() string // Key prefix inside the bucket
	S3Region() string // Region override, empty means SDK default

	// Engine timing
	ForegroundTick() time.Duration // Tick interval while in foreground
	BackgroundTick() time.Duration // Tick interval while in background
	SaveInterval() time.Duration   // Minimum time between periodic snapshots
	HistoryLimit() int             // Maximum archived executions
	SchedulePoll() time.Duration   // Due-schedule poll interval

	// Capabilities
	NotificationsEnabled() bool
	BackgroundSupported() bool

	// Logging
	StderrLevel() string

	// Metadata
	ConfigSource() string // "json" or "default"
	SettingPath() string  // Path to setting.json if loaded from file
}

// AppConfig is the concrete implementation of Config
type AppConfig struct {
	home      string
	loopsFile string

	store    string
	dbPath   string
	s3Bucket string
	s3Prefix string
	s3Region string

	foregroundTick time.Duration
	backgroundTick time.Duration
	saveInterval   time.Duration
	historyLimit   int
	schedulePoll   time.Duration

	notificationsEnabled bool
	backgroundSupported  bool

	stderrLevel string

	configSource string
	settingPath  string
}

// Options carries every value needed to build an AppConfig
type Options struct {
	Home                 string
	LoopsFile            string
	Store                string
	DBPath               string
	S3Bucket             string
	S3Prefix             string
	S3Region             string
	ForegroundTick       time.Duration
	BackgroundTick       time.Duration
	SaveInterval         time.Duration
	HistoryLimit         int
	SchedulePoll         time.Duration
	NotificationsEnabled bool
	BackgroundSupported  bool
	StderrLevel          string
	ConfigSource         string
	SettingPath          string
}

// NewAppConfig creates an AppConfig from resolved options
func NewAppConfig(o Options) *AppConfig {
	return &AppConfig{
		home:                 o.Home,
		loopsFile:            o.LoopsFile,
		store:                o.Store,
		dbPath:               o.DBPath,
		s3Bucket:             o.S3Bucket,
		s3Prefix:             o.S3Prefix,
		s3Region:             o.S3Region,
		foregroundTick:       o.ForegroundTick,
		backgroundTick:       o.BackgroundTick,
		saveInterval:         o.SaveInterval,
		historyLimit:         o.HistoryLimit,
		schedulePoll:         o.SchedulePoll,
		notificationsEnabled: o.NotificationsEnabled,
		backgroundSupported:  o.BackgroundSupported,
		stderrLevel:          o.StderrLevel,
		configSource:         o.ConfigSource,
		settingPath:          o.SettingPath,
	}
}

// Home returns the base directory
func (c *AppConfig) Home() string {
	return c.home
}

// LoopsFile returns the loop catalog path
func (c *AppConfig) LoopsFile() string {
	return c.loopsFile
}

// Store returns the storage backend name
func (c *AppConfig) Store() string {
	return c.store
}

// DBPath returns the SQLite database path
func (c *AppConfig) DBPath() string {
	return c.dbPath
}

// S3Bucket returns the bucket for the s3 store
func (c *AppConfig) S3Bucket() string {
	return c.s3Bucket
}

// S3Prefix returns the object key prefix
func (c *AppConfig) S3Prefix() string {
	return c.s3Prefix
}

// S3Region returns the region override
func (c *AppConfig) S3Region() string {
	return c.s3Region
}

func (c *AppConfig) ForegroundTick() time.Duration {
	return c.foregroundTick
}

func (c *AppConfig) BackgroundTick() time.Duration {
	return c.backgroundTick
}

func (c *AppConfig) SaveInterval() time.Duration {
	return c.saveInterval
}

func (c *AppConfig) HistoryLimit() int {
	return c.historyLimit
}

func (c *AppConfig) SchedulePoll() time.Duration {
	return c.schedulePoll
}

// NotificationsEnabled reports whether notifications may be shown
func (c *AppConfig) NotificationsEnabled() bool {
	return c.notificationsEnabled
}

// BackgroundSupported reports whether background wake-ups are available
func (c *AppConfig) BackgroundSupported() bool {
	return c.backgroundSupported
}

// StderrLevel returns the stderr log level
func (c *AppConfig) StderrLevel() string {
	return c.stderrLevel
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.json if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}
