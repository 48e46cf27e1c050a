// Package builtin embeds the YAML target-symbol presets via go:embed.
package builtin

import "embed"

//go:embed *.yaml
var builtinPresets embed.FS

// FS returns the embedded filesystem containing built-in presets.
func FS() embed.FS {
	return builtinPresets
}
