package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Stamp geometry: diagonal, centered, large, mostly transparent gray.
const watermarkDesc = "fontname:Helvetica, points:80, fillcolor:#808080, opacity:0.2, rotation:45, scalefactor:1 abs, position:c"

// Watermarker derives the investor-facing copy of a proposal PDF. The derived
// path is a function of the project id, never of the uploaded filename, so
// reruns overwrite instead of accumulating and the serving layer can locate
// the artifact without a lookup.
type Watermarker struct {
	MediaRoot string
	Label     string
}

func NewWatermarker(mediaRoot, label string) *Watermarker {
	return &Watermarker{MediaRoot: mediaRoot, Label: label}
}

// OriginalPath is where the uploaded proposal for a project is stored.
// Originals live apart from derivatives and are never served to investors.
func (w *Watermarker) OriginalPath(projectID string) string {
	return filepath.Join(w.MediaRoot, "proposals", "original", "original_"+projectID+".pdf")
}

// WatermarkedPath is the deterministic location of the derived artifact.
func (w *Watermarker) WatermarkedPath(projectID string) string {
	return filepath.Join(w.MediaRoot, "proposals", "watermarked", "watermarked_"+projectID+".pdf")
}

// Watermark stamps every page of the source PDF with the label and writes the
// result to the project's derived path. The stamp is applied to the whole file
// in one pass; on any failure the partial output is removed so a corrupt
// derivative is never left in place. A successful return guarantees the
// derived file has the same page count as the original.
func (w *Watermarker) Watermark(originalPath, label, projectID string) (string, error) {
	if label == "" {
		label = w.Label
	}

	outPath := w.WatermarkedPath(projectID)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	wm, err := api.TextWatermark(label, watermarkDesc, true, false, types.POINTS)
	if err != nil {
		return "", fmt.Errorf("build watermark: %w", err)
	}

	if err := api.AddWatermarksFile(originalPath, outPath, nil, wm, nil); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("stamp %s: %w", originalPath, err)
	}

	origPages, err := api.PageCountFile(originalPath)
	if err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("page count of original: %w", err)
	}
	outPages, err := api.PageCountFile(outPath)
	if err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("page count of derivative: %w", err)
	}
	if origPages != outPages {
		os.Remove(outPath)
		return "", fmt.Errorf("derivative has %d pages, original has %d", outPages, origPages)
	}

	return outPath, nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}
