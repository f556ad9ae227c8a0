package config

import "time"

// SelectionFlags choose which programs are discovered and excluded
type SelectionFlags struct {
	Root       string
	ConfigFile string
	Exclude    string
	SkipFile   string
}

// RunFlags holds flags that control compiling and running programs
type RunFlags struct {
	Compiler      string
	TimeoutStr    string
	RunTimeoutStr string
	Jobs          int
	Verbose       bool
	Trace         bool
	NoColor       bool
	DryRun        bool

	// Parsed in PreRunE; zero means "not given".
	CompileTimeout time.Duration
	RunTimeout     time.Duration
}

// ReportFlags holds flags for the report sinks
type ReportFlags struct {
	Format         string // text or json
	JUnit          string
	RecordFailures string
	History        string
}

// ContextConfig holds context-related flags
type ContextConfig struct {
	JSON string
	KV   []string
	File string
}

// UploadConfig holds upload-related flags
type UploadConfig struct {
	Provider   string
	Config     string
	ConfigKV   []string
	ConfigFile string
}

// WebhookConfig holds webhook-related flags
type WebhookConfig struct {
	// Direct configuration flags
	URL        string
	Method     string // HTTP method (GET, POST, PUT, PATCH, DELETE)
	AuthType   string
	AuthToken  string
	Timeout    string
	Retries    int
	RetryDelay string

	// Alternative configuration methods
	Config     string   // JSON string configuration
	ConfigKV   []string // Key-value pairs
	ConfigFile string   // Path to JSON or YAML config file
}
