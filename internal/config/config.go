package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"splitrelay/internal/atomicfile"
	"splitrelay/internal/dispatch"
	"splitrelay/internal/notifier"
	"splitrelay/internal/timer"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	// maxValidPort is the highest TCP port number (2^16 - 1).
	// Port 0 is valid and means "OS auto-assign".
	maxValidPort = 65535
	defaultFPS   = 30
	maxFPS       = 240
	appDirName   = "splitrelay"
)

var userHomeDirFn = os.UserHomeDir

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() calls.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// Config is the splitrelay runtime configuration. A loaded Config is treated
// as an immutable session value; Store is the only mutator.
type Config struct {
	General GeneralConfig `yaml:"general" json:"general"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Window  WindowConfig  `yaml:"window" json:"window"`
	// Hotkeys binds the primary (timer control) actions, keyed by action name.
	Hotkeys map[string]string `yaml:"hotkeys" json:"hotkeys"`
	// Keys binds the secondary (window) actions, keyed by action name.
	Keys        map[string]string `yaml:"keys" json:"keys"`
	Connections ConnectionsConfig `yaml:"connections" json:"connections"`
}

// GeneralConfig holds the file paths and timer start-up settings. Relative
// paths are resolved against the config file directory.
type GeneralConfig struct {
	Splits           string `yaml:"splits,omitempty" json:"splits,omitempty"`
	Layout           string `yaml:"layout,omitempty" json:"layout,omitempty"`
	TimingMethod     string `yaml:"timing_method" json:"timing_method"`
	Comparison       string `yaml:"comparison" json:"comparison"`
	UseGlobalHotkeys bool   `yaml:"use_global_hotkeys" json:"use_global_hotkeys"`
	StateFile        string `yaml:"state_file" json:"state_file"`
	// DigitRowKeys reports terminal digit presses as Digit keys. Terminals do
	// not tell the keypad apart from the digit row, so by default digits are
	// reported as Numpad keys to match the default bindings.
	DigitRowKeys bool `yaml:"digit_row_keys" json:"digit_row_keys"`
}

// LogConfig configures the log file. An empty Path disables file logging.
type LogConfig struct {
	Path  string `yaml:"path,omitempty" json:"path,omitempty"`
	Level string `yaml:"level" json:"level"`
	// Clear truncates the log file at start-up instead of appending.
	Clear bool `yaml:"clear" json:"clear"`
}

// WindowConfig configures the terminal window.
type WindowConfig struct {
	// FPS is the redraw rate of the timer display.
	FPS int `yaml:"fps" json:"fps"`
}

// ConnectionsConfig holds the endpoints of external notification sinks.
type ConnectionsConfig struct {
	// WebSocketAddr is the host:port the state broadcast listens on.
	WebSocketAddr string `yaml:"websocket_addr" json:"websocket_addr"`
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	hotkeys := make(map[string]string, len(dispatch.PrimaryActions))
	for _, a := range dispatch.PrimaryActions {
		hotkeys[a.String()] = dispatch.DefaultBinding(a)
	}
	keys := make(map[string]string, len(dispatch.SecondaryActions))
	for _, a := range dispatch.SecondaryActions {
		keys[a.String()] = dispatch.DefaultBinding(a)
	}
	return Config{
		General: GeneralConfig{
			TimingMethod: timer.RealTime.String(),
			Comparison:   timer.PersonalBest,
			StateFile:    "splitrelay_state.db",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Window: WindowConfig{
			FPS: defaultFPS,
		},
		Hotkeys: hotkeys,
		Keys:    keys,
		Connections: ConnectionsConfig{
			WebSocketAddr: notifier.DefaultAddr,
		},
	}
}

// DefaultPath resolves the config file path, preferring LOCALAPPDATA over
// APPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
// The temp-dir fallback is not a stable persistence location and may vary
// between sessions depending on environment configuration.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep config path resolvable even in restricted environments.
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve LOCALAPPDATA/APPDATA/home directory. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, "config.yaml")
}

// Load reads the config file. If the file does not exist, defaults are
// returned. Invalid values are replaced by their defaults with a
// [WARN-CONFIG] log; only unreadable or unparseable files return an error,
// together with DefaultConfig().
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	var parsed Config
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse config %q: %w", path, err)
	}
	applyDefaultsAndValidate(&parsed)
	return parsed, nil
}

// EnsureFile writes the default config if missing and returns the loaded
// config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Save validates cfg and writes it atomically. Returns the normalized config
// that was actually written to disk.
func Save(path string, cfg Config) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path required")
	}
	cfg = Clone(cfg)
	applyDefaultsAndValidate(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicfile.Write(path, raw, 0o600); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return cfg, nil
}

// Clone returns a deep copy of src.
func Clone(src Config) Config {
	dst := src
	dst.Hotkeys = maps.Clone(src.Hotkeys)
	dst.Keys = maps.Clone(src.Keys)
	return dst
}

// Binding returns the configured hotkey string for a, or "" when there is
// none. Primary actions are read from Hotkeys, secondary ones from Keys.
func (c Config) Binding(a dispatch.Action) string {
	if a.IsPrimary() {
		return c.Hotkeys[a.String()]
	}
	return c.Keys[a.String()]
}

// Mode returns the dispatch mode selected by use_global_hotkeys.
func (c Config) Mode() dispatch.Mode {
	return dispatch.ModeFor(c.General.UseGlobalHotkeys)
}

// SameDispatch reports whether c and other produce the same action table and
// global registrations.
func (c Config) SameDispatch(other Config) bool {
	return c.General.UseGlobalHotkeys == other.General.UseGlobalHotkeys &&
		maps.Equal(c.Hotkeys, other.Hotkeys) &&
		maps.Equal(c.Keys, other.Keys)
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() slog.Level {
	if level, ok := validLogLevels[c.Log.Level]; ok {
		return level
	}
	return slog.LevelWarn
}

// RefreshInterval returns the redraw period for window.fps.
func (c Config) RefreshInterval() time.Duration {
	fps := c.Window.FPS
	if fps <= 0 || fps > maxFPS {
		fps = defaultFPS
	}
	return time.Second / time.Duration(fps)
}

// TimingMethod returns the parsed start-up timing method.
func (c Config) TimingMethod() timer.TimingMethod {
	method, err := timer.ParseTimingMethod(c.General.TimingMethod)
	if err != nil {
		return timer.RealTime
	}
	return method
}

// ResolvePath resolves p against the directory of the config file at
// configPath. Empty and absolute paths are returned unchanged.
func ResolvePath(configPath string, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~"+string(os.PathSeparator)) || strings.HasPrefix(p, "~/") {
		if home, err := userHomeDirFn(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// applyDefaultsAndValidate fills missing defaults and validates cfg in-place.
// MUTATES: cfg is directly modified.
// Used by both Load and Save to ensure consistent normalization. Invalid
// values never fail loading; they fall back to defaults with a warning.
func applyDefaultsAndValidate(cfg *Config) {
	defaults := DefaultConfig()
	if isZeroConfig(*cfg) {
		*cfg = defaults
		return
	}

	validateTimingMethod(cfg, defaults)
	validateComparison(cfg, defaults)
	validateLogLevel(cfg, defaults)
	validateFPS(cfg, defaults)
	if strings.TrimSpace(cfg.General.StateFile) == "" {
		cfg.General.StateFile = defaults.General.StateFile
	}
	cfg.Hotkeys = sanitizeBindings(cfg.Hotkeys, "hotkeys", dispatch.PrimaryActions)
	cfg.Keys = sanitizeBindings(cfg.Keys, "keys", dispatch.SecondaryActions)
	validateWebSocketAddr(cfg, defaults)
}

func validateTimingMethod(cfg *Config, defaults Config) {
	method := strings.ToLower(strings.TrimSpace(cfg.General.TimingMethod))
	if method == "" {
		cfg.General.TimingMethod = defaults.General.TimingMethod
		return
	}
	if _, err := timer.ParseTimingMethod(method); err != nil {
		slog.Warn("[WARN-CONFIG] unknown timing_method, using default",
			"configured", cfg.General.TimingMethod, "default", defaults.General.TimingMethod)
		method = defaults.General.TimingMethod
	}
	cfg.General.TimingMethod = method
}

func validateFPS(cfg *Config, defaults Config) {
	switch {
	case cfg.Window.FPS == 0:
		cfg.Window.FPS = defaults.Window.FPS
	case cfg.Window.FPS < 0 || cfg.Window.FPS > maxFPS:
		slog.Warn("[WARN-CONFIG] window fps out of range, using default",
			"configured", cfg.Window.FPS, "max", maxFPS, "default", defaults.Window.FPS)
		cfg.Window.FPS = defaults.Window.FPS
	}
}

func validateComparison(cfg *Config, defaults Config) {
	if cfg.General.Comparison == "" {
		cfg.General.Comparison = defaults.General.Comparison
		return
	}
	for _, known := range timer.Comparisons {
		if cfg.General.Comparison == known {
			return
		}
	}
	slog.Warn("[WARN-CONFIG] unknown comparison, using default",
		"configured", cfg.General.Comparison, "default", defaults.General.Comparison)
	cfg.General.Comparison = defaults.General.Comparison
}

func validateLogLevel(cfg *Config, defaults Config) {
	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if level == "" {
		cfg.Log.Level = defaults.Log.Level
		return
	}
	if _, ok := validLogLevels[level]; !ok {
		slog.Warn("[WARN-CONFIG] unknown log level, using default",
			"configured", cfg.Log.Level, "default", defaults.Log.Level)
		level = defaults.Log.Level
	}
	cfg.Log.Level = level
}

// sanitizeBindings drops entries that do not name an action of the section
// and fills actions without an entry with their default binding. Binding
// strings themselves are validated when the action table is built so that
// each bad entry falls back to its own default.
func sanitizeBindings(entries map[string]string, section string, actions []dispatch.Action) map[string]string {
	allowed := make(map[string]bool, len(actions))
	for _, a := range actions {
		allowed[a.String()] = true
	}
	out := make(map[string]string, len(actions))
	for name, value := range entries {
		if !allowed[name] {
			slog.Warn("[WARN-CONFIG] ignoring binding for unknown action", "section", section, "action", name)
			continue
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out[name] = trimmed
		}
	}
	for _, a := range actions {
		if _, ok := out[a.String()]; !ok {
			out[a.String()] = dispatch.DefaultBinding(a)
		}
	}
	return out
}

// validateWebSocketAddr checks that the broadcast address is host:port with a
// port in range. Invalid values fall back to the default (non-fatal).
func validateWebSocketAddr(cfg *Config, defaults Config) {
	addr := strings.TrimSpace(cfg.Connections.WebSocketAddr)
	if addr == "" {
		cfg.Connections.WebSocketAddr = defaults.Connections.WebSocketAddr
		return
	}
	_, portText, err := net.SplitHostPort(addr)
	if err == nil {
		var port int
		port, err = strconv.Atoi(portText)
		if err == nil && (port < 0 || port > maxValidPort) {
			err = fmt.Errorf("port %d out of range (0-%d)", port, maxValidPort)
		}
	}
	if err != nil {
		slog.Warn("[WARN-CONFIG] invalid websocket_addr, using default",
			"configured", addr, "default", defaults.Connections.WebSocketAddr, "error", err)
		addr = defaults.Connections.WebSocketAddr
	}
	cfg.Connections.WebSocketAddr = addr
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func isZeroConfig(cfg Config) bool {
	// reflect.DeepEqual guards against field-addition drift that manual checks miss.
	return reflect.DeepEqual(cfg, Config{})
}
