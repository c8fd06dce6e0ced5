// Package config loads and validates the harness configuration.
//
// The config is YAML, validated against an embedded CUE schema before
// decoding so type and range violations are reported with field paths
// instead of surfacing later as misbehaving triggers.
package config

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/firmfuzz/firmfuzz/internal/trigger"
)

// TriggerSpec is one entry under interrupt_triggers. Key names follow the
// firmware-config convention (num_skips, fuzz_mode, every_nth_tick).
type TriggerSpec struct {
	// Address is the watched code address for address-mode triggers.
	Address uint64 `yaml:"address"`

	// IRQ is the interrupt number for fixed-mode triggers; 0 means none.
	IRQ uint32 `yaml:"irq"`

	// NumSkips is the number of firing events to wait out between
	// pending runs.
	NumSkips uint32 `yaml:"num_skips"`

	// NumPends is the length of a pending run.
	NumPends uint32 `yaml:"num_pends"`

	// FuzzMode is one of "fixed", "enabled_index", "round_robin".
	// Defaults to "fixed".
	FuzzMode string `yaml:"fuzz_mode"`

	// TriggerMode is one of "address", "time", "time_fuzzed".
	// Defaults to "address".
	TriggerMode string `yaml:"trigger_mode"`

	// EveryNthTick is the tick interval for time-based triggers; 0
	// selects the default interval.
	EveryNthTick uint64 `yaml:"every_nth_tick"`
}

// Program is the recorded basic-block trace the core executes.
type Program struct {
	Blocks []uint64 `yaml:"blocks"`
	Loops  int      `yaml:"loops"`
}

// Config is the full harness configuration.
type Config struct {
	TickScale     uint64                 `yaml:"tick_scale"`
	TicksPerBlock uint64                 `yaml:"ticks_per_block"`
	EnabledIRQs   []uint32               `yaml:"enabled_irqs"`
	Program       Program                `yaml:"program"`
	Triggers      map[string]TriggerSpec `yaml:"interrupt_triggers"`
}

// Load reads, validates and decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes config bytes.
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TickScale == 0 {
		c.TickScale = 1
	}
	if c.TicksPerBlock == 0 {
		c.TicksPerBlock = 1
	}
	if c.Program.Loops == 0 {
		c.Program.Loops = 1
	}

	// Trigger names come from user-edited YAML; normalize to NFC so a
	// name is the same key regardless of how the editor composed it.
	normalized := make(map[string]TriggerSpec, len(c.Triggers))
	for name, spec := range c.Triggers {
		if spec.FuzzMode == "" {
			spec.FuzzMode = "fixed"
		}
		if spec.TriggerMode == "" {
			spec.TriggerMode = "address"
		}
		normalized[norm.NFC.String(name)] = spec
	}
	c.Triggers = normalized
}

// check enforces the semantic constraints the schema cannot express.
func (c *Config) check() error {
	if len(c.Program.Blocks) == 0 {
		return fmt.Errorf("config: program.blocks must not be empty")
	}
	if len(c.Triggers) > trigger.MaxTriggers {
		return fmt.Errorf("config: %d interrupt triggers configured, maximum is %d",
			len(c.Triggers), trigger.MaxTriggers)
	}
	for name, spec := range c.Triggers {
		if _, err := ParseFuzzMode(spec.FuzzMode); err != nil {
			return fmt.Errorf("config: trigger %q: %w", name, err)
		}
		mode, err := ParseTriggerMode(spec.TriggerMode)
		if err != nil {
			return fmt.Errorf("config: trigger %q: %w", name, err)
		}
		if mode == trigger.TriggerModeAddress && spec.Address == 0 {
			return fmt.Errorf("config: trigger %q: address-mode trigger requires an address", name)
		}
	}
	return nil
}

// TriggerNames returns the trigger names in sorted order. Registration
// walks this order so handles are assigned deterministically.
func (c *Config) TriggerNames() []string {
	names := make([]string, 0, len(c.Triggers))
	for name := range c.Triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFuzzMode resolves a config mode string to the trigger enum.
func ParseFuzzMode(s string) (trigger.FuzzMode, error) {
	switch s {
	case "fixed":
		return trigger.FuzzModeFixed, nil
	case "enabled_index":
		return trigger.FuzzModeEnabledIndex, nil
	case "round_robin":
		return trigger.FuzzModeRoundRobin, nil
	default:
		return 0, fmt.Errorf("unknown fuzz_mode %q", s)
	}
}

// ParseTriggerMode resolves a config mode string to the trigger enum.
func ParseTriggerMode(s string) (trigger.TriggerMode, error) {
	switch s {
	case "address":
		return trigger.TriggerModeAddress, nil
	case "time":
		return trigger.TriggerModeTime, nil
	case "time_fuzzed":
		return trigger.TriggerModeTimeFuzzed, nil
	default:
		return 0, fmt.Errorf("unknown trigger_mode %q", s)
	}
}
