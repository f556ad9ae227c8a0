package helpers

import (
	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/harness"
)

// SetupSelectionFlags adds test selection flags to a command
func SetupSelectionFlags(cmd *cobra.Command, cfg *config.SelectionFlags) {
	cmd.Flags().StringVar(&cfg.Root, "root", ".", "Repository root holding tests/ and bin/")
	cmd.Flags().StringVar(&cfg.ConfigFile, "config", "", "YAML project file (default <root>/sntest.yaml when present)")
	cmd.Flags().StringVar(&cfg.Exclude, "exclude", "", "Comma separated test names to skip (merged with "+harness.ExcludeEnvVar+")")
	cmd.Flags().StringVar(&cfg.SkipFile, "skip-file", "", "File with one test name to skip per line")
}

// SetupRunFlags adds compile and run flags to a command
func SetupRunFlags(cmd *cobra.Command, flags *config.RunFlags) {
	cmd.Flags().StringVarP(&flags.Compiler, "compiler", "c", "", "Compiler binary (default <root>/bin/sn)")
	cmd.Flags().StringVar(&flags.TimeoutStr, "timeout", "", "Compile timeout (e.g., 10s, 1m; bare integers are seconds)")
	cmd.Flags().StringVar(&flags.RunTimeoutStr, "run-timeout", "", "Run timeout for compiled programs (default 30s)")
	cmd.Flags().IntVarP(&flags.Jobs, "jobs", "j", 0, "Number of test cases run in parallel (default 1)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show diagnostic lines for failures")
	cmd.Flags().BoolVar(&flags.Trace, "trace", false, "Print every subprocess invocation and debug logs")
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the resolved configuration without running anything")
}

// SetupReportFlags adds report sink flags to a command
func SetupReportFlags(cmd *cobra.Command, flags *config.ReportFlags) {
	cmd.Flags().StringVar(&flags.Format, "format", FormatText, "Output format: text or json")
	cmd.Flags().StringVar(&flags.JUnit, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().StringVar(&flags.RecordFailures, "record-failures", "", "Write failing test names to this file (usable as --skip-file)")
	cmd.Flags().StringVar(&flags.History, "history", "", "SQLite run history; reports regressions against the previous run")
}

// SetupContextFlags adds context-related flags to a command
func SetupContextFlags(cmd *cobra.Command, cfg *config.ContextConfig) {
	cmd.Flags().StringVar(&cfg.JSON, "context", "", "Context data as JSON string")
	cmd.Flags().StringArrayVar(&cfg.KV, "context-kv", nil, "Context key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.File, "context-file", "", "Path to JSON or YAML file containing context data")
}

// SetupUploadFlags adds upload-related flags to a command
func SetupUploadFlags(cmd *cobra.Command, cfg *config.UploadConfig) {
	cmd.Flags().StringVar(&cfg.Provider, "upload-provider", "", "Upload provider type (e.g., minio)")
	cmd.Flags().StringVar(&cfg.Config, "upload-config", "", "Upload configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "upload-config-kv", nil, "Upload config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "upload-config-file", "", "Path to JSON or YAML file containing upload configuration")
}

// SetupWebhookFlags adds webhook-related flags to a command
func SetupWebhookFlags(cmd *cobra.Command, cfg *config.WebhookConfig) {
	// Direct configuration flags
	cmd.Flags().StringVar(&cfg.URL, "webhook-url", "", "Webhook URL to send the run report to")
	cmd.Flags().StringVar(&cfg.Method, "webhook-method", "POST", "HTTP method to use: POST, PUT, PATCH")
	cmd.Flags().StringVar(&cfg.AuthType, "webhook-auth-type", "none", "Authentication type: none, bearer, api-key")
	cmd.Flags().StringVar(&cfg.AuthToken, "webhook-auth-token", "", "Authentication token (use with --webhook-auth-type)")
	cmd.Flags().IntVar(&cfg.Retries, "webhook-retries", 3, "Maximum webhook retry attempts (0 = no retries)")
	cmd.Flags().StringVar(&cfg.RetryDelay, "webhook-retry-delay", "1s", "Initial delay between webhook retries")
	cmd.Flags().StringVar(&cfg.Timeout, "webhook-timeout", "30s", "Total timeout for webhook including retries")

	// Alternative configuration methods
	cmd.Flags().StringVar(&cfg.Config, "webhook-config", "", "Webhook configuration as JSON string")
	cmd.Flags().StringArrayVar(&cfg.ConfigKV, "webhook-config-kv", nil, "Webhook config key=value pairs (can be used multiple times)")
	cmd.Flags().StringVar(&cfg.ConfigFile, "webhook-config-file", "", "Path to JSON or YAML file containing webhook configuration")
}
