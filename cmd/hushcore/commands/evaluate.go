package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hushtab/hushcore/internal/evaluate"
	"github.com/hushtab/hushcore/mute"
)

// EvaluateCommand handles the evaluate subcommand
func EvaluateCommand(args []string) error {
	cmd := NewEvaluateCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func NewEvaluateCommand() *cobra.Command {
	var (
		configPath string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:     "evaluate <bundle.json[.zst]>...",
		Aliases: []string{"eval"},
		Short:   "Grade detection against ground-truth markers",
		Long: `Grade detection against ground-truth markers

Replays each recorded session and checks the detection pipeline against
the session's manual ad markers: every annotated ad window must mute,
and every content gap between windows must stay unmuted.

Sessions without markers cannot be graded and fail the run. An odd
marker count fails too, loudly, instead of dropping the trailing
marker.`,

		Example: `  # Grade one session with the built-in weights
  hushcore evaluate session.json

  # Grade with a candidate weight table
  hushcore evaluate session.json --config candidate.yaml

  # Machine-readable report
  hushcore evaluate session.json --json

  # Several sessions at once; exit code reflects the worst
  hushcore evaluate monday.json.zst tuesday.json.zst`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadWeights(configPath)
			if err != nil {
				return err
			}

			harness := evaluate.NewHarness(nil, &stderrLogger{})
			if jsonOut {
				harness = evaluate.NewHarness(nil, &quietLogger{})
			}

			failed := 0
			reports := make(map[string]*evaluate.Report, len(args))

			for _, path := range args {
				report, err := harness.EvaluateFile(context.Background(), path, cfg)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				reports[path] = report
				if !report.Pass() {
					failed++
				}
				if !jsonOut {
					printReport(path, report)
				}
			}

			if jsonOut {
				if err := json.NewEncoder(os.Stdout).Encode(reports); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d sessions failed evaluation", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Weight table YAML (default: built-in)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON reports")

	return cmd
}

func printReport(path string, report *evaluate.Report) {
	fmt.Printf("%s\n", path)

	for i, v := range report.Windows {
		fmt.Printf("  window %d  %s - %s  score %5.1f/%g  %s  %s\n",
			i+1, formatMillis(v.Window.Start), formatMillis(v.Window.End),
			v.Result.Score, v.Result.MaxScore,
			verdictMark(v.Pass), describeMiss(v.Pass, v.Predicted))
	}

	for i, v := range report.Gaps {
		note := ""
		if !v.Pass {
			note = fmt.Sprintf("false positive (signals: %v)", v.Result.Active)
		}
		fmt.Printf("  gap %d     %s - %s  score %5.1f/%g  %s  %s\n",
			i+1, formatMillis(v.Gap.Start), formatMillis(v.Gap.End),
			v.Result.Score, v.Result.MaxScore,
			verdictMark(v.Pass), note)
	}

	fmt.Printf("  %d passed, %d failed", report.Passed, report.Failed)
	if report.Stats != nil {
		fmt.Printf("  (activation rate %.0f%%)", report.Stats.ActivationRate*100)
	}
	fmt.Printf("\n\n")
}

// verdictMark colors the verdict on interactive terminals
func verdictMark(pass bool) string {
	if pass {
		if isTerminal(os.Stdout) {
			return "\033[32mPASS\033[0m"
		}
		return "PASS"
	}
	if isTerminal(os.Stdout) {
		return "\033[31mFAIL\033[0m"
	}
	return "FAIL"
}

func describeMiss(pass bool, predicted mute.State) string {
	if pass {
		return ""
	}
	return fmt.Sprintf("stayed %s through an annotated ad", predicted)
}
