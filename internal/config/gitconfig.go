package config

import (
	"context"
	"fmt"
	"strings"
)

// keyPrefix is the git config section holding lazystage settings.
const keyPrefix = "lazystage."

// keyPattern selects the lazystage section in git config --get-regexp.
const keyPattern = `^lazystage\.`

// GitConfigReader lists git config entries whose name matches pattern as
// "name value" lines. A scope without matching keys yields empty output.
type GitConfigReader interface {
	ConfigGetRegexp(ctx context.Context, repo, pattern string, global bool) (string, error)
}

// setting is one lazystage key with the prefix removed.
type setting struct {
	key   string
	value string
}

// readGitScope returns the lazystage keys of the global or repository
// git config in the shape parseConfig expects.
func readGitScope(ctx context.Context, reader GitConfigReader, repo string, global bool) (map[string]any, error) {
	scope := "repository"
	if global {
		scope = "global"
	}
	out, err := reader.ConfigGetRegexp(ctx, repo, keyPattern, global)
	if err != nil {
		return nil, fmt.Errorf("read %s git config: %w", scope, err)
	}
	return collectSettings(splitGitConfig(out)), nil
}

// splitGitConfig decodes --get-regexp output. The value is everything after
// the first space, so values may contain spaces. Git forbids underscores in
// variable names, so lazystage.show-icons names the show_icons key.
func splitGitConfig(output string) []setting {
	var settings []setting
	for line := range strings.SplitSeq(output, "\n") {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(name, keyPrefix) {
			continue
		}
		key := strings.ReplaceAll(strings.TrimPrefix(name, keyPrefix), "-", "_")
		settings = append(settings, setting{key: key, value: value})
	}
	return settings
}

// collectSettings folds settings into a parseConfig map. A key given more
// than once becomes a list in the order it was given.
func collectSettings(settings []setting) map[string]any {
	result := make(map[string]any, len(settings))
	for _, s := range settings {
		switch prev := result[s.key].(type) {
		case nil:
			result[s.key] = s.value
		case string:
			result[s.key] = []any{prev, s.value}
		case []any:
			result[s.key] = append(prev, s.value)
		}
	}
	return result
}

// parseCLIConfigOverrides parses --config lazystage.key=value arguments.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	settings := make([]setting, 0, len(overrides))
	for _, override := range overrides {
		name, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config override: %q, expected format: lazystage.key=value (note: use = not space)", override)
		}
		if !strings.HasPrefix(name, keyPrefix) {
			return nil, fmt.Errorf("config override key must start with '%s': %q", keyPrefix, name)
		}
		key := strings.TrimPrefix(name, keyPrefix)
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}
		settings = append(settings, setting{key: key, value: value})
	}
	return collectSettings(settings), nil
}
