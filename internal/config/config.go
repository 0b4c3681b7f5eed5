// Package config loads application configuration from YAML, git config and
// command line overrides.
package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chmouel/lazystage/internal/log"
	"github.com/chmouel/lazystage/internal/theme"
	"github.com/chmouel/lazystage/internal/utils"
	"gopkg.in/yaml.v3"
)

// AppConfig defines the lazystage configuration options.
type AppConfig struct {
	Theme             string // Theme name: see AvailableThemes in internal/theme
	DebugLog          string
	DebugLogMaxSize   int  // Rotation size of the debug log in megabytes
	ShowIcons         bool // Render Nerd Font icons next to file names (default: true)
	AutoRefresh       bool // Reload the status when the index or HEAD changes (default: true)
	ElideWidth        int  // Maximum width of a file name before it is elided in the middle
	ProgressWrapWidth int  // Column at which push progress output is wrapped
	ConfirmPush       bool // Ask before committing and pushing (default: true)
	MaxDiffChars      int
	GitPager          string
	GitPagerArgs      []string
	GitPagerArgsSet   bool `yaml:"-"`
}

// LoadOptions selects the configuration sources merged by Load.
type LoadOptions struct {
	// ConfigFile overrides the default YAML location.
	ConfigFile string
	// RepoPath is the repository whose git config is read. Empty skips
	// the repository scope.
	RepoPath string
	// Git reads git config. Nil skips both git config scopes.
	Git GitConfigReader
	// Overrides are lazystage.key=value pairs from the command line.
	Overrides []string
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		DebugLogMaxSize:   log.DefaultMaxSizeMB,
		ShowIcons:         true,
		AutoRefresh:       true,
		ElideWidth:        40,
		ProgressWrapWidth: 35,
		ConfirmPush:       true,
		MaxDiffChars:      200000,
		GitPager:          "delta",
		GitPagerArgs:      DefaultGitPagerArgsForTheme(theme.DraculaName),
	}
}

func normalizeArgsList(value any) []string {
	if value == nil {
		return []string{}
	}

	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return []string{}
		}
		return strings.Fields(text)
	case []any:
		args := []string{}
		for _, item := range v {
			if item == nil {
				continue
			}
			text := strings.TrimSpace(fmt.Sprintf("%v", item))
			if text != "" {
				args = append(args, text)
			}
		}
		return args
	}

	return []string{}
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return defaultVal
	case int:
		return v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if i, err := strconv.Atoi(text); err == nil {
			return i
		}
	}
	return defaultVal
}

// lastString returns the last value of a possibly multi-valued key.
func lastString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		s, ok := v[len(v)-1].(string)
		return s, ok
	}
	return "", false
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()

	if debugLog, ok := lastString(data["debug_log"]); ok {
		debugLog = strings.TrimSpace(debugLog)
		if debugLog != "" {
			cfg.DebugLog = debugLog
		}
	}

	if themeName, ok := lastString(data["theme"]); ok {
		if normalized := NormalizeThemeName(themeName); normalized != "" {
			cfg.Theme = normalized
		}
	}

	cfg.DebugLogMaxSize = coerceInt(data["debug_log_max_size"], cfg.DebugLogMaxSize)
	cfg.ShowIcons = coerceBool(data["show_icons"], cfg.ShowIcons)
	cfg.AutoRefresh = coerceBool(data["auto_refresh"], cfg.AutoRefresh)
	cfg.ConfirmPush = coerceBool(data["confirm_push"], cfg.ConfirmPush)
	cfg.ElideWidth = coerceInt(data["elide_width"], cfg.ElideWidth)
	cfg.ProgressWrapWidth = coerceInt(data["progress_wrap_width"], cfg.ProgressWrapWidth)
	cfg.MaxDiffChars = coerceInt(data["max_diff_chars"], cfg.MaxDiffChars)

	if pager, ok := lastString(data["git_pager"]); ok {
		cfg.GitPager = strings.TrimSpace(pager)
	}
	if _, ok := data["git_pager_args"]; ok {
		cfg.GitPagerArgs = normalizeArgsList(data["git_pager_args"])
		cfg.GitPagerArgsSet = true
	}
	if !cfg.GitPagerArgsSet {
		cfg.GitPagerArgs = DefaultGitPagerArgsForTheme(cfg.Theme)
	}

	if cfg.ElideWidth < 4 {
		cfg.ElideWidth = 4
	}
	if cfg.ProgressWrapWidth < 10 {
		cfg.ProgressWrapWidth = 10
	}
	if cfg.DebugLogMaxSize <= 0 {
		cfg.DebugLogMaxSize = log.DefaultMaxSizeMB
	}
	if cfg.MaxDiffChars < 0 {
		cfg.MaxDiffChars = 0
	}

	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() string {
	return filepath.Clean(filepath.Join(getConfigDir(), "lazystage"))
}

// readYAML returns the raw YAML map, or nil when no file exists.
func readYAML(configPath string) (map[string]any, error) {
	configBase := ConfigDir()

	var paths []string
	if configPath != "" {
		expanded, err := utils.ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
		if !isPathWithin(configBase, absPath) {
			return nil, fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path is constrained to the config directory after validation
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if yamlData == nil {
			yamlData = map[string]any{}
		}
		return yamlData, nil
	}
	return nil, nil
}

// LoadConfig reads the application configuration from a YAML file only.
func LoadConfig(configPath string) (*AppConfig, error) {
	data, err := readYAML(configPath)
	if err != nil {
		return DefaultConfig(), err
	}
	cfg := parseConfig(data)
	resolveTheme(cfg)
	return cfg, nil
}

// Load merges every configuration source. Later sources win: YAML file,
// global git config, repository git config, command line overrides.
func Load(ctx context.Context, opts LoadOptions) (*AppConfig, error) {
	merged, err := readYAML(opts.ConfigFile)
	if err != nil {
		return DefaultConfig(), err
	}
	if merged == nil {
		merged = map[string]any{}
	}

	if opts.Git != nil {
		// An unreadable scope is skipped, git status reports a broken config.
		for _, global := range []bool{true, false} {
			if !global && opts.RepoPath == "" {
				continue
			}
			values, err := readGitScope(ctx, opts.Git, opts.RepoPath, global)
			if err != nil {
				log.Printf("config: %v", err)
				continue
			}
			maps.Copy(merged, values)
		}
	}

	overrides, err := parseCLIConfigOverrides(opts.Overrides)
	if err != nil {
		return DefaultConfig(), err
	}
	maps.Copy(merged, overrides)

	cfg := parseConfig(merged)
	resolveTheme(cfg)
	return cfg, nil
}

func resolveTheme(cfg *AppConfig) {
	if cfg.Theme != "" {
		return
	}
	cfg.Theme = theme.Detect()
	if !cfg.GitPagerArgsSet {
		cfg.GitPagerArgs = DefaultGitPagerArgsForTheme(cfg.Theme)
	}
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}

// DefaultGitPagerArgsForTheme returns the default delta arguments for a given theme.
func DefaultGitPagerArgsForTheme(themeName string) []string {
	switch themeName {
	case theme.DraculaLightName:
		return []string{"--syntax-theme", "Monokai Extended Light"}
	case theme.NarnaName:
		return []string{"--syntax-theme", "OneHalfDark"}
	case theme.SolarizedLightName:
		return []string{"--syntax-theme", "Solarized (light)"}
	case theme.GruvboxDarkName:
		return []string{"--syntax-theme", "gruvbox-dark"}
	case theme.NordName:
		return []string{"--syntax-theme", "Nord"}
	default:
		return []string{"--syntax-theme", "Dracula"}
	}
}

// NormalizeThemeName returns the canonical theme name if it is supported.
func NormalizeThemeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case theme.DraculaName,
		theme.DraculaLightName,
		theme.NarnaName,
		theme.NordName,
		theme.GruvboxDarkName,
		theme.SolarizedLightName:
		return name
	default:
		return ""
	}
}
