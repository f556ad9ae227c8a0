package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/cmd/helpers"
	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/report"
	"github.com/zinc-sig/sntest/internal/settings"
)

var (
	runSelection config.SelectionFlags
	runFlags     config.RunFlags
	reportFlags  config.ReportFlags
	runContext   config.ContextConfig
	runUpload    config.UploadConfig
	runWebhook   config.WebhookConfig
)

var runCmd = &cobra.Command{
	Use:   "run [suite...]",
	Short: "Compile and run test suites",
	Long: `Compile every discovered test program, run it and compare the result with its
expectation. Suites: unit, integration, integration-errors, explore,
explore-errors, sdk, or all (the default).

Tests named in SN_EXCLUDE_TESTS (space separated), --exclude, --skip-file or the
project file's exclude list are skipped.`,
	Example: `  sntest run
  sntest run integration integration-errors -v
  sntest run all -j 8 --junit build/junit.xml --format json
  sntest run sdk --compiler ./build/sn --run-timeout 1m --history .sntest/history.db`,
	ValidArgs: harness.SuiteNames(),
	PreRunE:   runPreRun,
	RunE:      runCommand,
}

func runPreRun(cmd *cobra.Command, args []string) error {
	var err error
	if runFlags.CompileTimeout, err = helpers.ParseTimeout("timeout", runFlags.TimeoutStr); err != nil {
		return helpers.UsageError(err)
	}
	if runFlags.RunTimeout, err = helpers.ParseTimeout("run timeout", runFlags.RunTimeoutStr); err != nil {
		return helpers.UsageError(err)
	}
	if err := helpers.ValidateJobs(runFlags.Jobs); err != nil {
		return helpers.UsageError(err)
	}
	if err := helpers.ValidateFormat(reportFlags.Format); err != nil {
		return helpers.UsageError(err)
	}
	return nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	environ := os.Environ()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := helpers.NewLogger(stderr, runFlags.Trace)

	suites, err := harness.ResolveSuites(args)
	if err != nil {
		return helpers.UsageError(err)
	}

	project, err := settings.LoadProject(runSelection.Root, runSelection.ConfigFile)
	if err != nil {
		return err
	}
	if suites, err = project.Apply(suites); err != nil {
		return helpers.UsageError(err)
	}

	// sink configuration is checked before anything runs
	ctxData, err := helpers.BuildContext(&runContext, environ)
	if err != nil {
		return helpers.UsageError(err)
	}
	webhookConf, retryConf, err := helpers.ParseWebhookConfig(&runWebhook, environ)
	if err != nil {
		return helpers.UsageError(err)
	}
	provider, uploadConf, err := helpers.SetupUploadProvider(&runUpload, environ)
	if err != nil {
		return helpers.UsageError(err)
	}

	opts, err := helpers.BuildOptions(&runSelection, &runFlags, project, environ)
	if err != nil {
		return err
	}

	if runFlags.DryRun {
		helpers.PrintPlan(stderr, helpers.Plan{
			Options:      opts,
			Suites:       suites,
			Context:      ctxData,
			Provider:     provider,
			UploadConfig: uploadConf,
			Webhook:      webhookConf,
		})
		return nil
	}

	ws, err := harness.NewWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("failed to remove workspace", slog.String("dir", ws.Dir()), slog.Any("error", err))
		}
	}()
	opts.Workspace = ws
	helpers.AttachLogging(&opts, logger, runFlags.Trace, stderr)

	reporters := helpers.BuildReporters(&reportFlags, &runFlags, stdout, stderr)
	info := report.RunInfo{Compiler: opts.Compiler, Platform: helpers.Platform()}
	reporters.RunStarted(info)

	run := harness.New(opts, reporters).RunAll(ctx, suites)

	rep := output.FromRun(run, info.Compiler, info.Platform)
	rep.Context = ctxData

	interrupted := ctx.Err() != nil
	if !interrupted {
		// an interrupted run would show every unfinished case as a regression
		helpers.RecordHistory(ctx, reportFlags.History, rep, logger)
		helpers.SendWebhook(ctx, webhookConf, retryConf, rep, logger)
	}

	endErr := reporters.EndRun(rep)

	if !interrupted {
		helpers.UploadReport(ctx, provider, rep, logger)
	}

	switch {
	case endErr != nil:
		return endErr
	case interrupted:
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	case !rep.OK:
		return helpers.Failed()
	}
	return nil
}

func init() {
	helpers.SetupSelectionFlags(runCmd, &runSelection)
	helpers.SetupRunFlags(runCmd, &runFlags)
	helpers.SetupReportFlags(runCmd, &reportFlags)
	helpers.SetupContextFlags(runCmd, &runContext)
	helpers.SetupUploadFlags(runCmd, &runUpload)
	helpers.SetupWebhookFlags(runCmd, &runWebhook)
}
