package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize symscan configuration files",
	Long:  `Scaffolds .symscan.yml and .symscanignore. Existing files are left untouched.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	files := []struct {
		path    string
		content string
	}{
		{
			path:    filepath.Join(dir, ".symscan.yml"),
			content: configTemplate,
		},
		{
			path:    filepath.Join(dir, ".symscanignore"),
			content: ignoreTemplate,
		},
	}

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Printf("  skip %s (already exists)\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Printf("  create %s\n", f.path)
	}

	return nil
}

const configTemplate = `# symscan configuration
# Flags override SYMSCAN_* environment variables, which override this file.

# Tree to scan (default: build)
root: build

# Symbols to look for. Matching is a case-sensitive substring test on nm output.
targets:
  - LLVMIsMultithreaded

# Named target sets, see "symscan list-presets"
# presets:
#   - wasi-unsupported

# Extra preset definitions
# presets_dir: symscan-presets/

# archive_suffix: .a
# object_suffixes: [.o, .obj]

# Toolchain: ar and nm from this directory instead of PATH
# tool_dir: /opt/wasi-sdk/bin
# ar: llvm-ar
# nm: llvm-nm --no-sort

# workers: 1
# scratch_dir: /tmp
# tool_timeout: 30s

# Archive paths to skip (also read from .symscanignore)
# ignore:
#   - "stage0/**"

# log_level: warn
`

const ignoreTemplate = `# symscan ignore patterns
# Archives matching these patterns (relative to the scan root) are skipped.
# "**" matches any number of directories.

# Bootstrap stages
# stage0/**

# Debug variants
# **/*-debug.a
`
