package pepconfig

import (
	"path/filepath"
	"testing"

	"github.com/pep9vm/pep9core/mem"
)

func TestDefaultConfig_CacheDisabledTraceEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cache.Enabled {
		t.Fatal("expected cache to be disabled by default")
	}
	if !cfg.Trace.Enabled {
		t.Fatal("expected tracing to be enabled by default")
	}
	if cfg.Execution.StrictROM {
		t.Fatal("expected lenient ROM writes by default")
	}
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected defaults when no config file exists")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.StrictROM = true
	cfg.Execution.MaxSteps = 1000
	cfg.Cache.Enabled = true
	cfg.Cache.TagBits = 8
	cfg.Cache.IndexBits = 4
	cfg.Cache.Associativity = 2
	cfg.Cache.Replacement = "fifo"

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !loaded.Execution.StrictROM || loaded.Execution.MaxSteps != 1000 {
		t.Fatalf("got %+v, want strict ROM and max_steps=1000", loaded.Execution)
	}
	if !loaded.Cache.Enabled || loaded.Cache.TagBits != 8 || loaded.Cache.Replacement != "fifo" {
		t.Fatalf("got %+v, want round-tripped cache geometry", loaded.Cache)
	}
}

func TestCache_ToMemConfig(t *testing.T) {
	c := Cache{TagBits: 10, IndexBits: 4, Associativity: 2, Replacement: "lru", WriteAllocation: "no-write-allocate"}
	cfg, err := c.ToMemConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mem.CacheConfig{TagBits: 10, IndexBits: 4, Associativity: 2, Replacement: mem.LRU, WriteAllocation: mem.NoWriteAllocate}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestCache_ToMemConfig_UnknownPolicyIsError(t *testing.T) {
	c := Cache{Replacement: "bogus"}
	if _, err := c.ToMemConfig(); err == nil {
		t.Fatal("expected an error for an unrecognized replacement policy")
	}
}

func TestExecution_EffectiveMaxSteps(t *testing.T) {
	e := Execution{}
	if got := e.EffectiveMaxSteps(1 << 24); got != 1<<24 {
		t.Fatalf("got %d, want the fallback when MaxSteps is unset", got)
	}
	e.MaxSteps = 500
	if got := e.EffectiveMaxSteps(1 << 24); got != 500 {
		t.Fatalf("got %d, want the configured value to take precedence", got)
	}
}
