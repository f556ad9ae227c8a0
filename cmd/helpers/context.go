package helpers

import (
	"fmt"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/settings"
)

// ContextEnvPrefix names the environment source of report context.
const ContextEnvPrefix = "SNTEST_CONTEXT"

// BuildContext merges context data from SNTEST_CONTEXT*, --context-file,
// --context and --context-kv, lowest precedence first. The result is copied
// into the report unchanged and may be any JSON value.
func BuildContext(cfg *config.ContextConfig, environ []string) (any, error) {
	ctxData, err := settings.Build(settings.Sources{
		EnvPrefix: ContextEnvPrefix,
		File:      cfg.File,
		JSON:      cfg.JSON,
		KV:        cfg.KV,
	}, environ)
	if err != nil {
		return nil, fmt.Errorf("failed to build context: %w", err)
	}
	return ctxData, nil
}
