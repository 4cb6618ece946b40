// Package report writes detection and correspondence results to CSV,
// grounded on banshee-data-velocity.report's CSVWriter
// (internal/lidar/sweep/output.go): a thin wrapper around
// encoding/csv.Writer with one method per row shape.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Liiizhen/Optimized-fractal/internal/fractal"
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
)

// Writer emits detection and correspondence rows for one run.
type Writer struct {
	w *csv.Writer
}

// NewWriter wraps dst in a CSV writer.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(dst)}
}

// WriteDetectionHeader writes the header row for WriteDetection.
func (w *Writer) WriteDetectionHeader() error {
	return w.w.Write([]string{"image", "marker_id", "x0", "y0", "x1", "y1", "x2", "y2", "x3", "y3"})
}

// WriteDetection appends one row per detected marker in an image.
func (w *Writer) WriteDetection(image string, d fractal.Detection) error {
	row := []string{image, fmt.Sprintf("%d", d.ID)}
	for _, c := range d.Corners {
		row = append(row, fmt.Sprintf("%g", c.X), fmt.Sprintf("%g", c.Y))
	}
	return w.w.Write(row)
}

// WriteCorrespondenceHeader writes the header row for WriteCorrespondence.
func (w *Writer) WriteCorrespondenceHeader() error {
	return w.w.Write([]string{"image", "p3d_x", "p3d_y", "p3d_z", "p2d_x", "p2d_y"})
}

// WriteCorrespondence appends one (p3d, p2d) row.
func (w *Writer) WriteCorrespondence(image string, p3d geom.Point3f, p2d geom.Point2f) error {
	return w.w.Write([]string{
		image,
		fmt.Sprintf("%g", p3d.X), fmt.Sprintf("%g", p3d.Y), fmt.Sprintf("%g", p3d.Z),
		fmt.Sprintf("%g", p2d.X), fmt.Sprintf("%g", p2d.Y),
	})
}

// Flush flushes buffered rows and returns any write error encountered.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
