package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default, since rootCmd and its
// flag variables are shared across tests.
func resetFlags(t *testing.T) {
	t.Helper()
	flagConfig, flagLogLevel, flagPresetsDir = "", "", ""
	flagTargets, flagPresets, flagObjectSuffixes = nil, nil, nil
	flagArchiveSuffix, flagToolDir, flagAr, flagNm, flagScratchDir = "", "", "", "", ""
	flagWorkers = 1
	flagToolTimeout = time.Duration(0)
	flagNoSummary, flagProgress = false, false
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), scanCmd.Flags()} {
		fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// execute runs the CLI with args and returns what it printed on stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
