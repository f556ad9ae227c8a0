package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sources are the inputs of one layered setting. Precedence, lowest first:
// environment, file, JSON string, key=value pairs.
type Sources struct {
	// EnvPrefix names a variable holding a JSON object (e.g. SNTEST_WEBHOOK)
	// and the prefix of per-key variables (SNTEST_WEBHOOK_URL -> "url").
	EnvPrefix string
	File      string
	JSON      string
	KV        []string
}

// Empty reports whether no explicit source was given.
func (s Sources) Empty() bool {
	return s.File == "" && s.JSON == "" && len(s.KV) == 0
}

// ParseKV parses a key=value pair, attempting type inference for the value
func ParseKV(kvPair string) (string, any, error) {
	key, valueStr, ok := strings.Cut(kvPair, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", kvPair)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}
	valueStr = strings.TrimSpace(valueStr)

	// integers first so "1" is not read as true
	if intVal, err := strconv.Atoi(valueStr); err == nil {
		return key, intVal, nil
	}
	if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return key, floatVal, nil
	}
	if valueStr == "true" || valueStr == "false" {
		boolVal, _ := strconv.ParseBool(valueStr)
		return key, boolVal, nil
	}
	return key, valueStr, nil
}

// ParseJSON parses a JSON string into a map or other structure
func ParseJSON(jsonStr string) (any, error) {
	var result any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return result, nil
}

// ParseFile reads JSON, or YAML when the extension is .yaml or .yml.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var result any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid YAML in file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("invalid JSON in file: %w", err)
		}
	}
	return result, nil
}

// ParseEnv collects PREFIX (a JSON object) and PREFIX_* variables from
// environ. Per-key variables win over the JSON object.
func ParseEnv(prefix string, environ []string) map[string]any {
	values := make(map[string]any)
	envPrefix := prefix + "_"

	for _, kv := range environ {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name != prefix || raw == "" {
			continue
		}
		if parsed, err := ParseJSON(raw); err == nil {
			if m, ok := parsed.(map[string]any); ok {
				maps.Copy(values, m)
			}
		}
	}

	for _, kv := range environ {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
		_, value, _ := ParseKV(key + "=" + raw)
		values[key] = value
	}

	if len(values) == 0 {
		return nil
	}
	return values
}

// Merge merges sources in order; later ones override earlier ones.
// A non-object source is returned as-is when nothing precedes it.
func Merge(sources ...any) any {
	result := make(map[string]any)

	for _, src := range sources {
		if src == nil {
			continue
		}
		switch v := src.(type) {
		case map[string]any:
			maps.Copy(result, v)
		default:
			if len(result) == 0 {
				return v
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Build resolves a layered setting.
func Build(src Sources, environ []string) (any, error) {
	var layers []any

	if src.EnvPrefix != "" {
		if envValues := ParseEnv(src.EnvPrefix, environ); envValues != nil {
			layers = append(layers, envValues)
		}
	}

	if src.File != "" {
		fileValues, err := ParseFile(src.File)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fileValues)
	}

	if src.JSON != "" {
		jsonValues, err := ParseJSON(src.JSON)
		if err != nil {
			return nil, err
		}
		layers = append(layers, jsonValues)
	}

	if len(src.KV) > 0 {
		kvValues := make(map[string]any)
		for _, kv := range src.KV {
			key, value, err := ParseKV(kv)
			if err != nil {
				return nil, err
			}
			kvValues[key] = value
		}
		layers = append(layers, kvValues)
	}

	return Merge(layers...), nil
}

// BuildMap is Build for settings that must be an object. No sources gives
// an empty map.
func BuildMap(src Sources, environ []string) (map[string]any, error) {
	value, err := Build(src, environ)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return map[string]any{}, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("configuration must be an object, got %T", value)
	}
	return m, nil
}
