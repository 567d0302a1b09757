// Package pepconfig loads and saves the TOML configuration file that
// parameterizes a pep9core host: execution limits, the optional cache's
// geometry, ROM-write policy, and where trace/debugger output goes.
package pepconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/pep9vm/pep9core/mem"
)

// Execution bounds how long a simulated program is allowed to run and
// resolves the ROM-write open question as a flag.
type Execution struct {
	// MaxSteps caps the number of instructions Run() will execute
	// before giving up on a non-terminating program. Zero means "use
	// cpu.DefaultMaxSteps".
	MaxSteps uint64 `toml:"max_steps"`

	// StrictROM, when true, makes a write to a ROM chip an error
	// instead of a silently dropped no-op.
	StrictROM bool `toml:"strict_rom"`
}

// Cache mirrors mem.CacheConfig in TOML-friendly form; Enabled gates
// whether the CPU's memory is wrapped in a mem.Cache at all.
type Cache struct {
	Enabled         bool   `toml:"enabled"`
	TagBits         int    `toml:"tag_bits"`
	IndexBits       int    `toml:"index_bits"`
	Associativity   int    `toml:"associativity"`
	Replacement     string `toml:"replacement_policy"`  // "lru", "mru", "fifo", "random"
	WriteAllocation string `toml:"write_allocation"`    // "write-allocate", "no-write-allocate"
}

// ToMemConfig translates the TOML-facing fields into mem.CacheConfig,
// rejecting a replacement/write-allocation name this binary doesn't
// know about rather than silently defaulting it.
func (c Cache) ToMemConfig() (mem.CacheConfig, error) {
	cfg := mem.CacheConfig{
		TagBits:       c.TagBits,
		IndexBits:     c.IndexBits,
		Associativity: c.Associativity,
	}
	switch c.Replacement {
	case "", "lru":
		cfg.Replacement = mem.LRU
	case "mru":
		cfg.Replacement = mem.MRU
	case "fifo":
		cfg.Replacement = mem.FIFO
	case "random":
		cfg.Replacement = mem.Random
	default:
		return cfg, fmt.Errorf("unknown cache replacement policy %q", c.Replacement)
	}
	switch c.WriteAllocation {
	case "", "write-allocate":
		cfg.WriteAllocation = mem.WriteAllocate
	case "no-write-allocate":
		cfg.WriteAllocation = mem.NoWriteAllocate
	default:
		return cfg, fmt.Errorf("unknown cache write-allocation policy %q", c.WriteAllocation)
	}
	return cfg, nil
}

// Debugger holds defaults for an interactive session: breakpoints set
// before the program starts, and whether the TUI launches automatically
// on `pep9term run`.
type Debugger struct {
	BreakOnStart    bool     `toml:"break_on_start"`
	InitialBreaks   []string `toml:"initial_breakpoints"` // hex strings, e.g. "0x0010"
	LaunchTUI       bool     `toml:"launch_tui"`
}

// Trace controls where the Stack Trace Engine's diagnostics and the
// assembled listing/object files land.
type Trace struct {
	Enabled    bool   `toml:"enabled"`
	OutputDir  string `toml:"output_dir"`
	ListingExt string `toml:"listing_ext"` // defaults to ".pepl"
	ObjectExt  string `toml:"object_ext"`  // defaults to ".pepo"
}

// Statistics controls whether cache hit/miss counters are reported
// after a run, and where.
type Statistics struct {
	Enabled    bool   `toml:"enabled"`
	OutputPath string `toml:"output_path"` // empty means stdout
}

// Config is the full on-disk shape, one `[section]` per concern,
// matching the teacher's nested-struct layout.
type Config struct {
	Execution  Execution  `toml:"execution"`
	Cache      Cache      `toml:"cache"`
	Debugger   Debugger   `toml:"debugger"`
	Trace      Trace      `toml:"trace"`
	Statistics Statistics `toml:"statistics"`
}

// DefaultConfig returns the configuration a fresh install starts with:
// no cache, lenient ROM writes, tracing on, statistics off.
func DefaultConfig() *Config {
	return &Config{
		Execution: Execution{
			MaxSteps:  0, // resolved to cpu.DefaultMaxSteps by the caller
			StrictROM: false,
		},
		Cache: Cache{
			Enabled: false,
		},
		Debugger: Debugger{
			BreakOnStart: false,
			LaunchTUI:    false,
		},
		Trace: Trace{
			Enabled:    true,
			OutputDir:  ".",
			ListingExt: ".pepl",
			ObjectExt:  ".pepo",
		},
		Statistics: Statistics{
			Enabled: false,
		},
	}
}

// GetConfigPath returns the platform-conventional location of the
// configuration file: %APPDATA%\pep9core\config.toml on Windows,
// ~/Library/Application Support/pep9core/config.toml on macOS, and
// ~/.config/pep9core/config.toml (honoring $XDG_CONFIG_HOME) elsewhere.
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// GetLogPath returns the platform-conventional location for pep9core's
// own log file, alongside the configuration directory.
func GetLogPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pep9core.log"), nil
}

func configDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("%%APPDATA%% is not set")
		}
		return filepath.Join(appData, "pep9core"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "pep9core"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "pep9core"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "pep9core"), nil
	}
}

// Load reads the configuration from its platform-conventional path. A
// missing file is not an error: DefaultConfig is returned instead, so a
// first run never requires the user to create one by hand.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and decodes the configuration file at path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to its platform-conventional path, creating the parent
// directory if necessary.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes c to path as TOML, creating the parent directory if
// necessary.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding config %s: %w", path, err)
	}
	return nil
}

// EffectiveMaxSteps returns e.MaxSteps if set, otherwise fallback
// (the caller passes cpu.DefaultMaxSteps to avoid an import cycle).
func (e Execution) EffectiveMaxSteps(fallback uint64) uint64 {
	if e.MaxSteps == 0 {
		return fallback
	}
	return e.MaxSteps
}
