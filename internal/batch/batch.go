package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/pipeline"
	"github.com/MeKo-Tech/cutout/internal/utils"
)

// Process runs the pipeline over every discovered image. Items are
// processed concurrently; results keep the discovery order.
func Process(args []string, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	files, err := DiscoverImages(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	pl, err := pipeline.NewBuilder().WithConfig(config.Pipeline).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	start := time.Now()
	items := processParallel(pl, files, config)
	result := &Result{
		Items:    items,
		Duration: time.Since(start),
	}

	if !config.ContinueOnError {
		for _, item := range items {
			if item.Err != nil {
				return result, fmt.Errorf("processing %s: %w", item.Path, item.Err)
			}
		}
	}

	slog.Info("batch run complete",
		"files", len(files),
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
		"duration", result.Duration,
	)
	return result, nil
}

// processParallel fans the files out over a fixed worker pool.
func processParallel(pl *pipeline.Pipeline, files []string, config Config) []ItemResult {
	items := make([]ItemResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range config.workerCount() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items[i] = processOne(pl, files[i], config.OutputDir)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return items
}

// processOne runs the pipeline on a single file and, when an output
// directory is set, writes the piece document next to it.
func processOne(pl *pipeline.Pipeline, path, outputDir string) ItemResult {
	item := ItemResult{Path: path}

	img, _, err := utils.LoadImage(path)
	if err != nil {
		item.Err = fmt.Errorf("failed to load %s: %w", path, err)
		return item
	}

	res, err := pl.Process(img)
	if err != nil {
		item.Err = fmt.Errorf("failed to process %s: %w", path, err)
		return item
	}

	doc := pieces.NewDocument(res.Pieces, res.Width, res.Height, res.Degraded)
	item.Document = &doc

	if outputDir != "" {
		if err := writeDocument(outputDir, path, doc); err != nil {
			item.Err = err
		}
	}
	return item
}

// writeDocument saves the piece document as <output>/<image-stem>.json.
func writeDocument(dir, imagePath string, doc pieces.Document) error {
	data, err := doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode document for %s: %w", imagePath, err)
	}

	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	outPath := filepath.Join(dir, stem+".json")
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
