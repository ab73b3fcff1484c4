package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
)

const (
	AppName        = "vless-ctl"
	ConfigFileName = "config.toml"

	DefaultEngine          = "xray"
	DefaultConfigFlag      = "-config"
	DefaultStopTimeout     = 5 * time.Second
	DefaultLogLevel        = "info"
	DefaultRegionException = "ru"
)

// engineLogLevels are the levels the engine accepts in its log section.
var engineLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
	"none":    true,
}

var regionRegex = regexp.MustCompile(`^[a-z]{2}$`)

// Duration is a time.Duration written as a string such as "5s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Settings is the user configuration read from config.toml.
type Settings struct {
	// Engine is the Xray binary, looked up in $PATH when not absolute.
	Engine string `toml:"engine"`
	// EngineArgs are extra arguments placed before the config flag,
	// written as a single shell-quoted string.
	EngineArgs string `toml:"engine_args"`
	ConfigFlag string `toml:"config_flag"`

	ProfilesDir string `toml:"profiles_dir"`
	StateDir    string `toml:"state_dir"`

	StopTimeout  Duration `toml:"stop_timeout"`
	StartupGrace Duration `toml:"startup_grace"`

	// LogLevel and RegionException go into synthesized engine configs.
	LogLevel        string `toml:"log_level"`
	RegionException string `toml:"region_exception"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Engine:          DefaultEngine,
		ConfigFlag:      DefaultConfigFlag,
		StopTimeout:     Duration(DefaultStopTimeout),
		LogLevel:        DefaultLogLevel,
		RegionException: DefaultRegionException,
	}
}

// EngineArgv splits EngineArgs into arguments.
func (s *Settings) EngineArgv() ([]string, error) {
	if strings.TrimSpace(s.EngineArgs) == "" {
		return nil, nil
	}
	return shellquote.Split(s.EngineArgs)
}

// Validate checks that the Settings are usable.
func (s *Settings) Validate() error {
	if s.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if s.ConfigFlag == "" {
		return fmt.Errorf("config_flag is required")
	}
	if _, err := s.EngineArgv(); err != nil {
		return fmt.Errorf("invalid engine_args: %w", err)
	}
	if s.StopTimeout < 0 {
		return fmt.Errorf("stop_timeout cannot be negative")
	}
	if s.StartupGrace < 0 {
		return fmt.Errorf("startup_grace cannot be negative")
	}
	if !engineLogLevels[s.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warning, error, or none)", s.LogLevel)
	}
	if !regionRegex.MatchString(s.RegionException) {
		return fmt.Errorf("invalid region_exception %q: must be a two-letter country code", s.RegionException)
	}
	return nil
}

// LoadSettings reads settings from path on top of the defaults. A missing
// file is not an error. Relative directories in the file are resolved
// against the file's directory.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	md, err := toml.DecodeFile(path, s)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("no settings file, using defaults", "path", path)
			return s, nil
		}
		return nil, errors.ConfigError("failed to parse settings "+path, err)
	}
	for _, key := range md.Undecoded() {
		logging.Warn("unknown settings key", "path", path, "key", key.String())
	}

	s.RegionException = strings.ToLower(s.RegionException)
	base := filepath.Dir(path)
	s.ProfilesDir = resolveDir(base, s.ProfilesDir)
	s.StateDir = resolveDir(base, s.StateDir)

	if err := s.Validate(); err != nil {
		return nil, errors.ConfigError("invalid settings "+path, err)
	}
	return s, nil
}

func resolveDir(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return filepath.Join(base, dir)
}

// Paths holds the directories vless-ctl reads and writes.
type Paths struct {
	ConfigDir   string
	ConfigFile  string
	ProfilesDir string
	StateDir    string
}

// DefaultPaths returns the paths under the user's configuration directory.
func DefaultPaths() (*Paths, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.ConfigError("cannot determine user config directory", err)
	}
	return PathsFor(filepath.Join(dir, AppName)), nil
}

// PathsFor returns the default layout rooted at configDir.
func PathsFor(configDir string) *Paths {
	return &Paths{
		ConfigDir:   configDir,
		ConfigFile:  filepath.Join(configDir, ConfigFileName),
		ProfilesDir: filepath.Join(configDir, "profiles"),
		StateDir:    filepath.Join(configDir, "state"),
	}
}

// Apply overrides the directories set in s.
func (p *Paths) Apply(s *Settings) {
	if s.ProfilesDir != "" {
		p.ProfilesDir = s.ProfilesDir
	}
	if s.StateDir != "" {
		p.StateDir = s.StateDir
	}
}
