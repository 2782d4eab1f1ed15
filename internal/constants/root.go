package constants

import "time"

// RecoveryAction identifies one of the two user-invoked recovery operations
type RecoveryAction string

// MilestoneType classifies an awarded milestone
type MilestoneType string

const (
	AppName            = "abstain"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/abstain/abstain.db"
	ConnectionEnvVar   = "ABSTAIN_DB_CONNECTION"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Day is the unit elapsed streak time is measured in
	Day = 24 * time.Hour

	// Persistence keys
	RecordKey   = "streak_record"
	LedgerKey   = "milestone_ledger"
	SettingsKey = "settings"

	// RecordFormatVersion is written into every serialized record and ledger
	RecordFormatVersion = 1

	// Store prefixes accepted by --config
	PrefixPostgres   = "postgres://"
	PrefixPostgreSQL = "postgresql://"
	PrefixRedis      = "redis://"
	PrefixRedisTLS   = "rediss://"
	PrefixBadger     = "badger://"
	PrefixFile       = "file://"
	PrefixMemory     = "memory://"

	// RedisKeyPrefix namespaces every key written to a shared Redis instance
	RedisKeyPrefix = "abstain:"

	// DefaultAdapterTimeout bounds a single persistence call made by the CLI
	DefaultAdapterTimeout = 10 * time.Second

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "abstain-"
	BackupFileSuffix = ".db"

	// Lock constants
	LockfileName = "abstain.lock"
	// LockfileGrace is how long an unreadable lockfile is assumed to still be in use
	LockfileGrace = 5 * time.Second
	// LockWait bounds how long a command waits for another process to release the lock
	LockWait = 3 * time.Second
	// LockRetryInterval is the delay between attempts while waiting for the lock
	LockRetryInterval = 50 * time.Millisecond

	// Milestone types
	MilestoneTypeStreak MilestoneType = "streak"

	// Recovery actions
	RecoveryHardRestart RecoveryAction = "hard-restart"
	RecoveryGracePeriod RecoveryAction = "grace-period"

	// Settings keys
	SettingMilestones = "milestones"
	SettingTimezone   = "timezone"

	// Default settings values
	DefaultTimezone = "Local" // Use system local timezone by default

	// Exit codes returned by the CLI for domain errors
	ExitCodeFailure            = 1
	ExitCodeNotFound           = 3
	ExitCodeAlreadyInitialized = 4
	ExitCodeGracePeriodUsed    = 5
	ExitCodePersistence        = 6
)

// DefaultMilestones is the ascending threshold list, in days, awarded when no custom list is configured
var DefaultMilestones = []int{1, 3, 7, 14, 30, 60, 90, 180, 365}
