package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cubed-guy/text-os/kernel/memory"
)

func init() {
	rootCmd.AddCommand(newTranslateCmd())
}

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <addr>...",
		Short: "Translate virtual addresses through the booted page table",
		Long: `The translate command boots the machine and walks the page table for each
virtual address. Addresses are decimal or 0x-prefixed hexadecimal.

Example:
  heapctl translate 0x4eab_a2ea_0000 0x4eab_a2eb_ffff 0xdead_beef`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args)
		},
	}
}

// Translation is the result for one address.
type Translation struct {
	Virtual  string `json:"virtual"`
	Physical string `json:"physical,omitempty"`
	Flags    string `json:"flags,omitempty"`
	Error    string `json:"error,omitempty"`
}

func parseAddr(s string) (memory.VirtAddr, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return memory.VirtAddr(v), nil
}

func runTranslate(args []string) error {
	addrs := make([]memory.VirtAddr, 0, len(args))
	for _, a := range args {
		addr, err := parseAddr(a)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}

	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	results := make([]Translation, 0, len(addrs))
	for _, addr := range addrs {
		t := Translation{Virtual: fmt.Sprintf("%#x", uint64(addr))}
		pa, err := m.PageTable.Translate(addr)
		switch {
		case errors.Is(err, memory.ErrNotMapped), errors.Is(err, memory.ErrNonCanonical):
			t.Error = err.Error()
		case err != nil:
			return err
		default:
			flags, _ := m.PageTable.FlagsOf(addr)
			t.Physical = fmt.Sprintf("%#x", uint64(pa))
			t.Flags = flags.String()
		}
		results = append(results, t)
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, t := range results {
		if t.Error != "" {
			printInfo("%s  -> %s\n", t.Virtual, t.Error)
			continue
		}
		printInfo("%s  -> %s  [%s]\n", t.Virtual, t.Physical, t.Flags)
	}
	return nil
}
