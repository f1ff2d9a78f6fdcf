package commands

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/hushtab/hushcore/scoring"
)

// stderrLogger routes engine logs away from command output
type stderrLogger struct{}

func (l *stderrLogger) Printf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
}

func (l *stderrLogger) Println(v ...interface{}) {
	fmt.Fprintln(os.Stderr, v...)
}

// quietLogger drops engine logs entirely (for --json output)
type quietLogger struct{}

func (l *quietLogger) Printf(format string, v ...interface{}) {}
func (l *quietLogger) Println(v ...interface{})               {}

// loadWeights returns the built-in table or one loaded from --config
func loadWeights(path string) (*scoring.Config, error) {
	if path == "" {
		return scoring.DefaultConfig(), nil
	}
	cfg, err := scoring.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// isTerminal reports whether the writer is an interactive terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// formatMillis renders a session-relative timestamp as m:ss.mmm
func formatMillis(ts int64) string {
	return fmt.Sprintf("%d:%06.3f", ts/60000, float64(ts%60000)/1000)
}
