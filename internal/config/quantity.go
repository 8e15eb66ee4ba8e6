package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Address is a 64-bit address. In YAML it may be written as a decimal or
// 0x-prefixed integer, with optional underscores ("0x4eab_a2ea_0000").
type Address uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseUint(node, nil)
	if err != nil {
		return err
	}
	*a = Address(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Address) MarshalYAML() (any, error) {
	return fmt.Sprintf("%#x", uint64(a)), nil
}

// Size is a byte count. In YAML it may carry a binary unit suffix
// ("128KiB", "2MiB") in addition to the Address forms.
type Size uint64

var sizeUnits = map[string]uint64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseUint(node, sizeUnits)
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Size) MarshalYAML() (any, error) {
	for _, unit := range []string{"GiB", "MiB", "KiB"} {
		if mult := sizeUnits[unit]; s != 0 && uint64(s)%mult == 0 {
			return fmt.Sprintf("%d%s", uint64(s)/mult, unit), nil
		}
	}
	return uint64(s), nil
}

func parseUint(node *yaml.Node, units map[string]uint64) (uint64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected a number", node.Line)
	}
	text := strings.ReplaceAll(strings.TrimSpace(node.Value), "_", "")

	mult := uint64(1)
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		units = nil
	}
	for unit, m := range units {
		num, ok := strings.CutSuffix(text, unit)
		num = strings.TrimSpace(num)
		if ok && num != "" && num[len(num)-1] >= '0' && num[len(num)-1] <= '9' {
			text, mult = num, m
			break
		}
	}

	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %q is not a valid number", node.Line, node.Value)
	}
	if v != 0 && v > ^uint64(0)/mult {
		return 0, fmt.Errorf("line %d: %q overflows 64 bits", node.Line, node.Value)
	}
	return v * mult, nil
}
