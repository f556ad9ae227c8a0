package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/settings"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantPrint bool
	}{
		{name: "nil", err: nil, wantCode: ExitOK, wantPrint: false},
		{name: "plain error", err: errors.New("boom"), wantCode: ExitFailure, wantPrint: true},
		{name: "usage", err: UsageError(errors.New("bad flag")), wantCode: ExitUsage, wantPrint: true},
		{name: "wrapped usage", err: fmt.Errorf("ctx: %w", UsageError(errors.New("x"))), wantCode: ExitUsage, wantPrint: true},
		{name: "failed run", err: Failed(), wantCode: ExitFailure, wantPrint: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d", got, tt.wantCode)
			}
			if got := ShouldPrint(tt.err); got != tt.wantPrint {
				t.Errorf("ShouldPrint() = %v, want %v", got, tt.wantPrint)
			}
		})
	}

	if !errors.Is(UsageError(harness.ErrUnknownSuite), harness.ErrUnknownSuite) {
		t.Error("UsageError must keep the wrapped error")
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "", want: 0},
		{input: "30s", want: 30 * time.Second},
		{input: "1m30s", want: 90 * time.Second},
		{input: "15", want: 15 * time.Second},
		{input: "0", wantErr: true},
		{input: "-5s", wantErr: true},
		{input: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeout("timeout", tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeout(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeout(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWebhookConfig(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		cfg := &config.WebhookConfig{Method: "POST", AuthType: "none", Timeout: "30s", Retries: 3, RetryDelay: "1s"}
		wc, rc, err := ParseWebhookConfig(cfg, nil)
		if err != nil || wc != nil || rc != nil {
			t.Errorf("Expected nothing configured, got %v %v %v", wc, rc, err)
		}
	})

	t.Run("precedence", func(t *testing.T) {
		environ := []string{
			"SNTEST_WEBHOOK_URL=https://env.example.com/hook",
			"SNTEST_WEBHOOK_RETRIES=7",
			"SNTEST_WEBHOOK_TIMEOUT=10s",
		}
		cfg := &config.WebhookConfig{
			Method:     "POST",
			AuthType:   "api-key",
			AuthToken:  "k",
			Timeout:    "30s",
			Retries:    3,
			RetryDelay: "1s",
			ConfigKV:   []string{"url=https://kv.example.com/hook", "method=put"},
		}

		wc, rc, err := ParseWebhookConfig(cfg, environ)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if wc.URL != "https://kv.example.com/hook" {
			t.Errorf("kv should override env for url, got %s", wc.URL)
		}
		if wc.Method != "PUT" {
			t.Errorf("Expected method PUT, got %s", wc.Method)
		}
		if wc.Timeout != 10*time.Second {
			t.Errorf("Expected env timeout 10s, got %v", wc.Timeout)
		}
		if wc.AuthType != "api-key" || wc.AuthToken != "k" {
			t.Errorf("Expected flag auth, got %s/%s", wc.AuthType, wc.AuthToken)
		}
		if rc.MaxRetries != 7 {
			t.Errorf("Expected env retries 7, got %d", rc.MaxRetries)
		}
	})

	t.Run("explicit flag wins", func(t *testing.T) {
		cfg := &config.WebhookConfig{
			URL:        "https://flag.example.com",
			Method:     "POST",
			AuthType:   "none",
			Timeout:    "30s",
			Retries:    0,
			RetryDelay: "250ms",
			Config:     `{"url": "https://json.example.com", "retries": 5}`,
		}
		wc, rc, err := ParseWebhookConfig(cfg, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if wc.URL != "https://flag.example.com" {
			t.Errorf("Expected flag url, got %s", wc.URL)
		}
		if rc.MaxRetries != 0 {
			t.Errorf("Expected --webhook-retries 0 to win, got %d", rc.MaxRetries)
		}
		if rc.InitialDelay != 250*time.Millisecond {
			t.Errorf("Expected retry delay 250ms, got %v", rc.InitialDelay)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, kv := range []string{"timeout=forever", "method=DELETE", "url=not a url", "retries=-1"} {
			cfg := &config.WebhookConfig{
				Method: "POST", AuthType: "none", Timeout: "30s", Retries: 3, RetryDelay: "1s",
				ConfigKV: []string{"url=https://example.com", kv},
			}
			if _, _, err := ParseWebhookConfig(cfg, nil); err == nil {
				t.Errorf("Expected error for %s", kv)
			}
		}
	})
}

func TestBuildUploadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "upload.yaml")
	if err := os.WriteFile(file, []byte("endpoint: minio.local:9000\nbucket: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.UploadConfig{
		Provider:   "minio",
		ConfigFile: file,
		ConfigKV:   []string{"bucket=from-kv"},
	}
	environ := []string{"SNTEST_UPLOAD_CONFIG_PREFIX=ci", "SNTEST_UPLOAD_CONFIG_BUCKET=from-env"}

	got, err := BuildUploadConfig(cfg, environ)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := map[string]any{"endpoint": "minio.local:9000", "bucket": "from-kv", "prefix": "ci"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildUploadConfig() = %v, want %v", got, want)
	}

	provider, _, err := SetupUploadProvider(&config.UploadConfig{}, environ)
	if err != nil || provider != nil {
		t.Errorf("Expected no provider without --upload-provider, got %v %v", provider, err)
	}
}

func TestBuildContext(t *testing.T) {
	cfg := &config.ContextConfig{
		JSON: `{"branch": "main", "build": 1}`,
		KV:   []string{"build=2"},
	}
	got, err := BuildContext(cfg, []string{"SNTEST_CONTEXT_RUNNER=ci-7"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := map[string]any{"branch": "main", "build": 2, "runner": "ci-7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildContext() = %#v, want %#v", got, want)
	}

	empty, err := BuildContext(&config.ContextConfig{}, nil)
	if err != nil || empty != nil {
		t.Errorf("Expected nil context without sources, got %v %v", empty, err)
	}
}

func TestBuildExclusions(t *testing.T) {
	skip := filepath.Join(t.TempDir(), "skip.txt")
	if err := os.WriteFile(skip, []byte("# flaky\nfromfile\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sel := &config.SelectionFlags{Exclude: "a, b", SkipFile: skip}
	project := &settings.Project{Exclude: []string{"proj"}}
	env := harness.DefaultEnvironment([]string{harness.ExcludeEnvVar + "=env1 env2"})

	got, err := BuildExclusions(sel, project, env)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"a", "b", "env1", "env2", "fromfile", "proj"}
	if !reflect.DeepEqual(got.Names(), want) {
		t.Errorf("Names() = %v, want %v", got.Names(), want)
	}

	sel.SkipFile = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := BuildExclusions(sel, project, env); err == nil {
		t.Error("Expected error for missing skip file")
	}
}

func TestBuildOptions(t *testing.T) {
	root := t.TempDir()
	compiler := filepath.Join(root, "build", "sn")
	if err := os.MkdirAll(filepath.Dir(compiler), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(compiler, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	sel := &config.SelectionFlags{Root: root}
	project := &settings.Project{
		Compiler:       "build/sn",
		CompileTimeout: settings.Duration(20 * time.Second),
		RunTimeout:     settings.Duration(time.Minute),
		Jobs:           4,
	}

	opts, err := BuildOptions(sel, &config.RunFlags{RunTimeout: 5 * time.Second}, project, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.Compiler != compiler {
		t.Errorf("Expected project compiler under root %s, got %s", compiler, opts.Compiler)
	}
	if opts.CompileTimeout != 20*time.Second {
		t.Errorf("Expected project compile timeout, got %v", opts.CompileTimeout)
	}
	if opts.RunTimeout != 5*time.Second {
		t.Errorf("Expected flag run timeout to win, got %v", opts.RunTimeout)
	}
	if opts.Jobs != 4 {
		t.Errorf("Expected project jobs 4, got %d", opts.Jobs)
	}
	if v, _ := opts.Env.Lookup(harness.SanitizerEnvVar); v != harness.SanitizerDefault {
		t.Errorf("Expected %s=%s in environment, got %q", harness.SanitizerEnvVar, harness.SanitizerDefault, v)
	}

	_, err = BuildOptions(&config.SelectionFlags{Root: t.TempDir()}, &config.RunFlags{}, &settings.Project{}, nil)
	if !errors.Is(err, harness.ErrCompilerNotFound) {
		t.Errorf("Expected ErrCompilerNotFound, got %v", err)
	}
}

func TestArtifacts(t *testing.T) {
	rep := &output.Report{
		RunID: "run-1",
		Suites: []output.Suite{{
			Kind:  "integration",
			Title: "Integration Tests",
			Cases: []output.Case{
				{Name: "add", Status: string(harness.StatusPass)},
				{Name: "crash", Status: string(harness.StatusFail), Reason: string(harness.ReasonTimeout)},
			},
		}},
	}

	artifacts, err := Artifacts(rep)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	if want := []string{"report.json", "junit.xml", "failures.txt"}; !reflect.DeepEqual(names, want) {
		t.Errorf("artifact names = %v, want %v", names, want)
	}
	if !bytes.Contains(artifacts[0].Data, []byte(`"run_id": "run-1"`)) {
		t.Errorf("report.json missing run id:\n%s", artifacts[0].Data)
	}
	if !bytes.Contains(artifacts[1].Data, []byte("<testsuites>")) {
		t.Errorf("junit.xml is not a JUnit document:\n%s", artifacts[1].Data)
	}
	if string(artifacts[2].Data) != "crash\n" {
		t.Errorf("failures.txt = %q", artifacts[2].Data)
	}
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	PrintPlan(&buf, Plan{
		Options: harness.Options{
			Root:     "/repo",
			Compiler: "/repo/bin/sn",
			Excluded: harness.NewExclusions("slow"),
		},
		Suites: []harness.SuiteConfig{{Kind: harness.KindIntegration, Dir: "tests/integration", Pattern: "*.sn"}},
	})

	out := buf.String()
	for _, want := range []string{
		"Compiler:        /repo/bin/sn",
		"Compile Timeout: 10s (default)",
		"Jobs:            1",
		"Excluded:        slow",
		"integration          tests/integration/*.sn",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in plan, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Webhook Configuration") {
		t.Error("Webhook section printed without a webhook")
	}
}
