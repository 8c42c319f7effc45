// Package batch processes whole directories of images into puzzle
// piece documents.
package batch

import (
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Pipeline is the processing configuration applied to every image.
	Pipeline pipeline.Config

	// Workers is the number of images processed concurrently. Zero
	// means one worker per CPU.
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// OutputDir receives one JSON document per input image. Empty
	// keeps results in memory only.
	OutputDir string

	// ContinueOnError keeps going after individual failures instead
	// of aborting the whole batch.
	ContinueOnError bool
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() Config {
	return Config{
		Pipeline:        pipeline.DefaultConfig(),
		Workers:         0,
		ContinueOnError: true,
	}
}

// Validate checks the batch configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return c.Pipeline.Validate()
}

// workerCount resolves the effective number of workers.
func (c Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// ItemResult is the outcome for one input image.
type ItemResult struct {
	Path     string
	Document *pieces.Document
	Err      error
}

// Result holds the result of one batch run.
type Result struct {
	Items    []ItemResult
	Duration time.Duration
}

// Succeeded counts the items that processed without error.
func (r *Result) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the items that ended in an error.
func (r *Result) Failed() int {
	return len(r.Items) - r.Succeeded()
}
