package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/cutout/cmd/cutout/cmd"
	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/testutil"
	"github.com/MeKo-Tech/cutout/internal/utils"
	"github.com/cucumber/godog"
)

// RegisterTraceSteps registers step definitions for the trace command.
func (testCtx *TestContext) RegisterTraceSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a test image "([^"]*)" with a dark circle on a white background$`, testCtx.createCircleImage)
	sc.Step(`^a blank test image "([^"]*)"$`, testCtx.createBlankImage)
	sc.Step(`^I trace "([^"]*)" into (\d+) pieces with seed (\d+)$`, testCtx.runTrace)
	sc.Step(`^I extract the mask of "([^"]*)" to "([^"]*)"$`, testCtx.runMask)
	sc.Step(`^the command should succeed$`, testCtx.commandShouldSucceed)
	sc.Step(`^the command should fail with "([^"]*)"$`, testCtx.commandShouldFailWith)
	sc.Step(`^the output should be a piece document with (\d+) pieces$`, testCtx.outputShouldHavePieces)
	sc.Step(`^every piece polygon should have at least 3 vertices$`, testCtx.piecesShouldBePolygons)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.fileShouldExist)
}

func (testCtx *TestContext) imagePath(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

func (testCtx *TestContext) createCircleImage(name string) error {
	img := testutil.NewCircleImage(96, 96, 48, 48, 30, color.Black, color.White)
	path := testCtx.imagePath(name)
	if err := utils.SavePNG(path, img); err != nil {
		return err
	}
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
	return nil
}

func (testCtx *TestContext) createBlankImage(name string) error {
	img := testutil.NewUniformImage(64, 64, color.White)
	path := testCtx.imagePath(name)
	if err := utils.SavePNG(path, img); err != nil {
		return err
	}
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
	return nil
}

// runCommand executes the CLI in-process and captures its output.
func (testCtx *TestContext) runCommand(args ...string) {
	root := cmd.GetRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = buf.String()
}

func (testCtx *TestContext) runTrace(name string, pieceCount, seed int) error {
	testCtx.runCommand("trace", testCtx.imagePath(name),
		"--pieces", fmt.Sprintf("%d", pieceCount),
		"--seed", fmt.Sprintf("%d", seed),
		"--format", "json",
		"--output", "")
	return nil
}

func (testCtx *TestContext) runMask(name, output string) error {
	testCtx.runCommand("mask", testCtx.imagePath(name),
		"--output", testCtx.imagePath(output))
	return nil
}

func (testCtx *TestContext) commandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected success, got error: %w (output: %s)", testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) commandShouldFailWith(substr string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected failure containing %q, but command succeeded", substr)
	}
	if !strings.Contains(testCtx.LastError.Error(), substr) {
		return fmt.Errorf("expected error containing %q, got: %v", substr, testCtx.LastError)
	}
	return nil
}

func (testCtx *TestContext) parseDocument() (*pieces.Document, error) {
	var doc pieces.Document
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &doc); err != nil {
		return nil, fmt.Errorf("output is not a piece document: %w (output: %s)", err, testCtx.LastOutput)
	}
	return &doc, nil
}

func (testCtx *TestContext) outputShouldHavePieces(count int) error {
	doc, err := testCtx.parseDocument()
	if err != nil {
		return err
	}
	if doc.Count != count || len(doc.Pieces) != count {
		return fmt.Errorf("expected %d pieces, got count=%d len=%d", count, doc.Count, len(doc.Pieces))
	}
	return nil
}

func (testCtx *TestContext) piecesShouldBePolygons() error {
	doc, err := testCtx.parseDocument()
	if err != nil {
		return err
	}
	for _, p := range doc.Pieces {
		if len(p.Polygon) < 3 {
			return fmt.Errorf("piece %d has only %d vertices", p.ID, len(p.Polygon))
		}
	}
	return nil
}

func (testCtx *TestContext) fileShouldExist(name string) error {
	path := testCtx.imagePath(name)
	if _, _, err := utils.LoadImage(path); err != nil {
		return fmt.Errorf("expected %s to be a readable image: %w", path, err)
	}
	return nil
}
