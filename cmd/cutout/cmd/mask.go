package cmd

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/cutout/internal/mask"
	"github.com/MeKo-Tech/cutout/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

// maskCmd represents the mask command.
var maskCmd = &cobra.Command{
	Use:   "mask [image]",
	Short: "Extract the subject mask from an image",
	Long: `Run only the segmentation stage and save the binary subject mask
as a PNG. Useful for inspecting what the trace command would work from.

Examples:
  cutout mask photo.png --output mask.png
  cutout mask scan.jpg --tolerance 70 --output mask.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		if !utils.IsSupportedImage(inputPath) {
			return fmt.Errorf("unsupported image type: %s", inputPath)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile == "" {
			return errors.New("no output file provided")
		}

		cfg := GetConfig()
		pl, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}

		img, _, err := utils.LoadImage(inputPath)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}

		maxDim := pl.Config().MaxDimension
		if maxDim > 0 && (img.Bounds().Dx() > maxDim || img.Bounds().Dy() > maxDim) {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}

		m, err := mask.Extract(img, pl.Config().Mask)
		if err != nil {
			return fmt.Errorf("mask extraction failed: %w", err)
		}
		m = mask.LargestRegion(m)

		if err := utils.SavePNG(outputFile, m.ToImage()); err != nil {
			return fmt.Errorf("failed to save mask: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d subject pixels)\n", outputFile, m.Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maskCmd)
	maskCmd.Flags().Int("tolerance", 50, "background matching tolerance (0-100)")
	maskCmd.Flags().Bool("interior-sampling", false, "also keep saturated interior colors far from the background")
	maskCmd.Flags().Int("max-dimension", 1024, "maximum working resolution (0 = no scaling)")
	maskCmd.Flags().StringP("output", "o", "", "output PNG file (required)")
}
