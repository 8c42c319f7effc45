package cmd

import (
	"fmt"
	"time"

	"github.com/MeKo-Tech/cutout/internal/batch"
	"github.com/spf13/cobra"
)

const timeRounding = time.Millisecond

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Process multiple images into puzzle piece documents",
	Long: `Process many images at once, writing one piece document per input
image. Directories are expanded; with --recursive they are walked.

Examples:
  cutout batch photos/ --output-dir pieces/
  cutout batch photos/ --recursive --include "*.png" --workers 4
  cutout batch a.png b.png --pieces 16 --output-dir out/`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		pl, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}

		batchCfg := batch.DefaultConfig()
		batchCfg.Pipeline = pl.Config()
		batchCfg.Workers, _ = cmd.Flags().GetInt("workers")
		batchCfg.Recursive, _ = cmd.Flags().GetBool("recursive")
		batchCfg.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
		batchCfg.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
		batchCfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
		continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
		batchCfg.ContinueOnError = continueOnError

		result, err := batch.Process(args, batchCfg)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "processed %d images in %s (%d ok, %d failed)\n",
			len(result.Items), result.Duration.Round(timeRounding), result.Succeeded(), result.Failed())
		for _, item := range result.Items {
			if item.Err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", item.Err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("workers", "w", 0, "number of concurrent workers (0 = CPU count)")
	batchCmd.Flags().BoolP("recursive", "r", false, "walk directories recursively")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	batchCmd.Flags().String("output-dir", "", "directory for per-image JSON documents")
	batchCmd.Flags().Bool("continue-on-error", true, "keep processing after individual failures")
	// Pipeline customization flags shared with trace
	batchCmd.Flags().IntP("pieces", "n", 12, "target number of puzzle pieces")
	batchCmd.Flags().Int("tolerance", 50, "background matching tolerance (0-100)")
	batchCmd.Flags().Bool("interior-sampling", false, "also keep saturated interior colors far from the background")
	batchCmd.Flags().Float64("simplify", 0.0025, "polygon simplification tolerance in normalized units")
	batchCmd.Flags().Int64("seed", 0, "random seed for reproducible decomposition (0 = random)")
	batchCmd.Flags().Int("max-dimension", 1024, "maximum working resolution (0 = no scaling)")
}
