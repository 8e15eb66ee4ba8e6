// Package config loads the YAML boot configuration.
//
// A configuration describes the simulated machine (physical memory size,
// backing and memory map), the heap (placement, allocator and size classes)
// and logging. Every field is optional; missing fields keep their defaults.
//
//	heap:
//	  start: 0x4eab_a2ea_0000
//	  size: 128KiB
//	  allocator: fixed_size
//	physical:
//	  size: 2MiB
//	  backing: mmap
//	log:
//	  level: debug
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phuslu/log"
	"gopkg.in/yaml.v3"

	"github.com/cubed-guy/text-os/internal/format"
	"github.com/cubed-guy/text-os/internal/logging"
	"github.com/cubed-guy/text-os/kernel/alloc"
	"github.com/cubed-guy/text-os/kernel/heap"
	"github.com/cubed-guy/text-os/kernel/memory"
)

// ErrInvalid indicates a configuration that cannot be used.
var ErrInvalid = errors.New("config: invalid")

// DefaultPhysicalSize is the default simulated physical memory size.
const DefaultPhysicalSize = 2 << 20

// Config is the boot configuration.
type Config struct {
	Heap     Heap     `yaml:"heap"`
	Physical Physical `yaml:"physical"`
	Log      Log      `yaml:"log"`
}

// Heap configures the kernel heap.
type Heap struct {
	Start       Address      `yaml:"start"`
	Size        Size         `yaml:"size"`
	Allocator   string       `yaml:"allocator"`
	SizeClasses *SizeClasses `yaml:"size_classes,omitempty"`
}

// SizeClasses bounds the fixed_size allocator's classes.
type SizeClasses struct {
	Min Size `yaml:"min"`
	Max Size `yaml:"max"`
}

// Physical configures the simulated physical memory.
type Physical struct {
	Size    Size   `yaml:"size"`
	Backing string `yaml:"backing"`

	// MemoryMap replaces the default boot memory map when non-empty.
	MemoryMap []Region `yaml:"memory_map,omitempty"`
}

// Region is one memory map entry, [Start, End).
type Region struct {
	Start Address `yaml:"start"`
	End   Address `yaml:"end"`
	Kind  string  `yaml:"kind"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Heap: Heap{
			Start:     Address(heap.DefaultStart),
			Size:      Size(heap.DefaultSize),
			Allocator: string(heap.KindFixedSize),
		},
		Physical: Physical{
			Size:    DefaultPhysicalSize,
			Backing: string(memory.BackingGo),
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Parse decodes data over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("allocator", cfg.Heap.Allocator).Msg("loaded config")
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks every section and returns the first problem found,
// wrapped in ErrInvalid with the offending field.
func (c Config) Validate() error {
	if _, err := c.HeapConfig(); err != nil {
		return err
	}
	if _, err := c.Backing(); err != nil {
		return err
	}
	if _, err := c.MemoryMap(); err != nil {
		return err
	}
	if err := c.LogOptions().Validate(); err != nil {
		return invalid("log", err)
	}
	return nil
}

// LogOptions converts the log section.
func (c Config) LogOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}

// HeapConfig converts the heap section.
func (c Config) HeapConfig() (heap.Config, error) {
	kind, err := heap.ParseAllocatorKind(c.Heap.Allocator)
	if err != nil {
		return heap.Config{}, invalid("heap.allocator", err)
	}
	hc := heap.Config{
		Start:     alloc.Addr(c.Heap.Start),
		Size:      uint64(c.Heap.Size),
		Allocator: kind,
	}
	if sc := c.Heap.SizeClasses; sc != nil {
		hc.SizeClasses = &alloc.SizeClassConfig{
			Name:     "config",
			MinBlock: uint64(sc.Min),
			MaxBlock: uint64(sc.Max),
		}
	}
	if err := hc.Validate(); err != nil {
		return heap.Config{}, invalid("heap", err)
	}
	return hc, nil
}

// Backing converts physical.backing.
func (c Config) Backing() (memory.Backing, error) {
	b, err := memory.ParseBacking(c.Physical.Backing)
	if err != nil {
		return "", invalid("physical.backing", err)
	}
	return b, nil
}

// MemoryMap converts physical.memory_map, or returns the default map for
// physical.size when none is given.
func (c Config) MemoryMap() (memory.MemoryMap, error) {
	size := uint64(c.Physical.Size)
	if size == 0 || !format.IsAligned(size, format.PageSize) {
		return nil, invalid("physical.size", fmt.Errorf("%d is not a non-zero multiple of %d", size, format.PageSize))
	}
	if len(c.Physical.MemoryMap) == 0 {
		return memory.DefaultMemoryMap(size), nil
	}

	m := make(memory.MemoryMap, 0, len(c.Physical.MemoryMap))
	for i, r := range c.Physical.MemoryMap {
		field := fmt.Sprintf("physical.memory_map[%d]", i)
		kind, err := memory.ParseRegionKind(r.Kind)
		if err != nil {
			return nil, invalid(field, err)
		}
		if r.Start >= r.End || uint64(r.End) > size {
			return nil, invalid(field, fmt.Errorf("[%#x, %#x) is empty or exceeds physical memory", uint64(r.Start), uint64(r.End)))
		}
		m = append(m, memory.MemoryRegion{
			Start: memory.PhysAddr(r.Start),
			End:   memory.PhysAddr(r.End),
			Kind:  kind,
		})
	}
	return m, nil
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
}
