package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cubed-guy/text-os/internal/config"
	"github.com/cubed-guy/text-os/internal/logging"
	"github.com/cubed-guy/text-os/kernel/boot"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	configPath    string
	logLevel      string
	allocatorFlag string
	backingFlag   string
)

// printer groups digits in reports ("131,072 bytes").
var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Boot and inspect the kernel heap",
	Long: `heapctl boots a simulated x86_64 machine (physical memory, boot memory
map, frame allocator and four-level page table), maps the kernel heap into it
and lets you inspect and exercise the heap allocators.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.Version = buildVersion()

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Boot configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().
		StringVarP(&allocatorFlag, "allocator", "a", "", "Heap allocator (bump, linked_list, fixed_size)")
	rootCmd.PersistentFlags().StringVar(&backingFlag, "backing", "", "Physical memory backing (go, malloc, mmap)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.LogOptions()
	if quiet {
		opts.Level = "error"
	}
	return logging.Init(opts)
}

// loadConfig reads --config (or the defaults) and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}
	if allocatorFlag != "" {
		cfg.Heap.Allocator = allocatorFlag
	}
	if backingFlag != "" {
		cfg.Physical.Backing = backingFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// bootMachine boots a machine from the effective configuration. The caller
// must Close it.
func bootMachine() (*boot.Machine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := boot.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	printVerbose("Booting: %d bytes of %s memory, %s heap at %#x\n",
		opts.PhysicalSize, opts.Backing, opts.Heap.Allocator, uint64(opts.Heap.Start))
	return boot.Boot(opts)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
