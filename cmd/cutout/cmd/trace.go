package cmd

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/cutout/internal/config"
	"github.com/MeKo-Tech/cutout/internal/mask"
	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/pipeline"
	"github.com/MeKo-Tech/cutout/internal/utils"
	"github.com/spf13/cobra"
)

const outputFormatJSON = "json"

// traceCmd represents the trace command.
var traceCmd = &cobra.Command{
	Use:   "trace [image]",
	Short: "Extract a silhouette and decompose it into puzzle pieces",
	Long: `Process an image into a puzzle piece document.

The subject is separated from the background, its outline traced and
simplified, and the resulting silhouette split into the requested
number of pieces. Output is a JSON document with one polygon per piece.

Supported formats: JPEG, PNG, BMP

Examples:
  cutout trace photo.png
  cutout trace photo.png --pieces 16 --seed 42
  cutout trace scan.jpg --tolerance 70 --interior-sampling
  cutout trace mask.png --import-mask --output pieces.json
  cutout trace photo.png --crop-dir pieces/`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		if !utils.IsSupportedImage(inputPath) {
			return fmt.Errorf("unsupported image type: %s", inputPath)
		}

		cfg := GetConfig()

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		if format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be: %s)", format, outputFormatJSON)
		}

		outputFile := cfg.Output.File
		if cmd.Flags().Changed("output") {
			outputFile, _ = cmd.Flags().GetString("output")
		}

		pl, err := buildPipeline(cmd, cfg)
		if err != nil {
			return err
		}

		img, meta, err := utils.LoadImage(inputPath)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}

		importMask, _ := cmd.Flags().GetBool("import-mask")
		var res *pipeline.Result
		if importMask {
			res, err = pl.ProcessMask(mask.FromImage(img))
		} else {
			res, err = pl.Process(img)
		}
		if err != nil {
			if errors.Is(err, mask.ErrNoSubjectDetected) {
				return fmt.Errorf("no subject found in %s: %w", meta.Path, err)
			}
			return fmt.Errorf("processing failed: %w", err)
		}

		doc := pieces.NewDocument(res.Pieces, res.Width, res.Height, res.Degraded)
		data, err := doc.MarshalIndent()
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, data, 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
		} else {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}

		cropDir, _ := cmd.Flags().GetString("crop-dir")
		if cropDir != "" && !importMask {
			if err := writePieceCrops(cropDir, img, res.Pieces); err != nil {
				return err
			}
		}

		if res.Degraded {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
				"warning: produced %d of %d requested pieces\n", res.Achieved, pl.Config().PieceCount)
		}
		return nil
	},
}

// buildPipeline assembles a pipeline from config values and flag
// overrides shared by the trace and mask commands.
func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithPieceCount(cfg.Pipeline.PieceCount).
		WithBackgroundTolerance(cfg.Pipeline.BackgroundTolerance).
		WithInteriorSampling(cfg.Pipeline.InteriorSampling).
		WithSimplifyTolerance(cfg.Pipeline.SimplifyTolerance).
		WithSeed(cfg.Pipeline.Seed).
		WithMaxDimension(cfg.Pipeline.MaxDimension)

	if cmd.Flags().Changed("pieces") {
		n, _ := cmd.Flags().GetInt("pieces")
		b = b.WithPieceCount(n)
	}
	if cmd.Flags().Changed("tolerance") {
		t, _ := cmd.Flags().GetInt("tolerance")
		b = b.WithBackgroundTolerance(t)
	}
	if cmd.Flags().Changed("interior-sampling") {
		v, _ := cmd.Flags().GetBool("interior-sampling")
		b = b.WithInteriorSampling(v)
	}
	if cmd.Flags().Changed("simplify") {
		t, _ := cmd.Flags().GetFloat64("simplify")
		b = b.WithSimplifyTolerance(t)
	}
	if cmd.Flags().Changed("seed") {
		s, _ := cmd.Flags().GetInt64("seed")
		b = b.WithSeed(s)
	}
	if cmd.Flags().Changed("max-dimension") {
		d, _ := cmd.Flags().GetInt("max-dimension")
		b = b.WithMaxDimension(d)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	return pl, nil
}

// writePieceCrops saves each piece's bounding-box crop of the source
// image as a PNG named after the piece ID.
func writePieceCrops(dir string, img image.Image, ps []pieces.Piece) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create crop directory: %w", err)
	}
	for _, p := range ps {
		crop := pieces.CropImage(img, p)
		path := filepath.Join(dir, fmt.Sprintf("piece-%03d.png", p.ID))
		if err := utils.SavePNG(path, crop); err != nil {
			return fmt.Errorf("failed to save piece crop: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().IntP("pieces", "n", 12, "target number of puzzle pieces")
	traceCmd.Flags().Int("tolerance", 50, "background matching tolerance (0-100)")
	traceCmd.Flags().Bool("interior-sampling", false, "also keep saturated interior colors far from the background")
	traceCmd.Flags().Float64("simplify", 0.0025, "polygon simplification tolerance in normalized units")
	traceCmd.Flags().Int64("seed", 0, "random seed for reproducible decomposition (0 = random)")
	traceCmd.Flags().Int("max-dimension", 1024, "maximum working resolution (0 = no scaling)")
	traceCmd.Flags().Bool("import-mask", false, "treat the input as a pre-rendered binary mask")
	traceCmd.Flags().StringP("format", "f", "json", "output format (json)")
	traceCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	traceCmd.Flags().String("crop-dir", "", "directory for per-piece image crops")
}
