package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/upload"
	"github.com/zinc-sig/sntest/internal/webhook"
)

// Plan is everything --dry-run prints.
type Plan struct {
	Options      harness.Options
	Suites       []harness.SuiteConfig
	Context      any
	Provider     upload.Provider
	UploadConfig map[string]any
	Webhook      *webhook.Config
}

// PrintPlan prints the resolved run configuration.
func PrintPlan(w io.Writer, plan Plan) {
	opts := plan.Options

	printHeader(w, "Run Configuration (DRY RUN)")
	fmt.Fprintf(w, "Root:            %s\n", opts.Root)
	fmt.Fprintf(w, "Compiler:        %s\n", opts.Compiler)
	fmt.Fprintf(w, "Platform:        %s\n", Platform())
	fmt.Fprintf(w, "Compile Timeout: %s\n", orDefault(opts.CompileTimeout.String(), opts.CompileTimeout == 0, harness.DefaultCompileTimeout.String()))
	fmt.Fprintf(w, "Run Timeout:     %s\n", orDefault(opts.RunTimeout.String(), opts.RunTimeout == 0, harness.DefaultRunTimeout.String()))
	fmt.Fprintf(w, "Jobs:            %d\n", max(opts.Jobs, 1))
	if names := opts.Excluded.Names(); len(names) > 0 {
		fmt.Fprintf(w, "Excluded:        %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintln(w, "Suites:")
	for _, s := range plan.Suites {
		fmt.Fprintf(w, "  %-20s %s/%s\n", s.Kind, s.Dir, s.Pattern)
	}

	if plan.Context != nil {
		printHeader(w, "Context Configuration (DRY RUN)")
		jsonBytes, err := json.MarshalIndent(plan.Context, "", "  ")
		if err != nil {
			fmt.Fprintf(w, "  %v\n", plan.Context)
		} else {
			fmt.Fprintf(w, "%s\n", string(jsonBytes))
		}
	}

	if plan.Provider != nil {
		printHeader(w, "Upload Configuration (DRY RUN)")
		fmt.Fprintf(w, "Provider:        %s\n", plan.Provider.Name())
		for _, key := range []string{"endpoint", "bucket", "prefix"} {
			if v, ok := plan.UploadConfig[key]; ok && v != "" {
				fmt.Fprintf(w, "%-17s%v\n", strings.ToUpper(key[:1])+key[1:]+":", v)
			}
		}
	}

	if plan.Webhook != nil {
		printHeader(w, "Webhook Configuration (DRY RUN)")
		fmt.Fprintf(w, "URL:             %s\n", plan.Webhook.URL)
		fmt.Fprintf(w, "Method:          %s\n", plan.Webhook.Method)
		fmt.Fprintf(w, "Auth:            %s\n", plan.Webhook.AuthType)
	}

	fmt.Fprintln(w, "----------------------------------------")
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "========================================")
}

func orDefault(value string, useDefault bool, def string) string {
	if useDefault {
		return def + " (default)"
	}
	return value
}
