package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hushtab/hushcore/detector"
	"github.com/hushtab/hushcore/scoring"
)

// DetectorCommand handles the detector subcommand
func DetectorCommand(args []string) error {
	cmd := NewDetectorCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func NewDetectorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detector",
		Aliases: []string{"detect"},
		Short:   "List and inspect signal detectors",
		Long: `List and inspect signal detectors

Each detector watches the event stream for one kind of ad evidence and
contributes a named signal to the confidence score.

Built-in detectors:
  • network-ad-detected  - Ad-delivery requests or analytics beacon bursts
  • controls-hidden      - Player controls hidden during playback
  • progress-bar-hidden  - Progress bar hidden during playback
  • back-to-live-hidden  - Back-to-live control hidden on live streams
  • short-video          - Player duration below the ad-creative ceiling`,

		Example: `  # List available detectors with their weights
  hushcore detector list

  # Get detector details
  hushcore detector info network-ad-detected`,
	}

	cmd.AddCommand(newDetectorListCommand())
	cmd.AddCommand(newDetectorInfoCommand())

	return cmd
}

// ============================================================================
// DETECTOR LIST
// ============================================================================

func newDetectorListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available detectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := detector.DefaultRegistry()
			detectors := registry.List()
			cfg := scoring.DefaultConfig()

			sort.Slice(detectors, func(i, j int) bool {
				return detectors[i].Name() < detectors[j].Name()
			})

			fmt.Printf("Available detectors:\n\n")
			for _, d := range detectors {
				fmt.Printf("  %-22s weight %-5g %s (v%s)\n",
					d.Name(), cfg.Weight(d.Name()), d.Description(), d.Version())
			}
			fmt.Printf("\nMax score %g, mute at %g, unmute below %g\n",
				cfg.MaxScore(), cfg.MuteThreshold, cfg.UnmuteThreshold)
			fmt.Printf("Use 'hushcore detector info <name>' for details\n")
			return nil
		},
	}
}

// ============================================================================
// DETECTOR INFO
// ============================================================================

func newDetectorInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show detailed detector information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := detector.DefaultRegistry()
			d, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			cfg := scoring.DefaultConfig()

			fmt.Printf("Detector: %s\n", d.Name())
			fmt.Printf("Version: %s\n", d.Version())
			fmt.Printf("Description: %s\n", d.Description())
			fmt.Printf("Default weight: %g (of max %g)\n", cfg.Weight(d.Name()), cfg.MaxScore())
			fmt.Printf("\n")

			fmt.Printf("Usage examples:\n")
			fmt.Printf("  # Replay a session and watch this signal fire\n")
			fmt.Printf("  hushcore analyze session.json -v\n\n")
			fmt.Printf("  # Grade a weight change against recorded sessions\n")
			fmt.Printf("  hushcore evaluate session.json --config candidate.yaml\n")
			return nil
		},
	}
}
