package fractal

import (
	"testing"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/Liiizhen/Optimized-fractal/internal/catalog"
)

// BenchmarkDetect_BlankImage times the primary detection pipeline against a
// marker-free frame, tagging each run with a UUID so results collected
// across CI runs can be correlated back to a single invocation.
func BenchmarkDetect_BlankImage(b *testing.B) {
	det, err := NewDetector(catalog.Fractal4L6, 0)
	if err != nil {
		b.Fatal(err)
	}

	img := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC1)
	defer img.Close()

	runID := uuid.New()
	b.Logf("run %s: %dx%d blank frame, config %s", runID, img.Cols(), img.Rows(), catalog.Fractal4L6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := det.Detect(img); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDetectWithCorrespondences_BlankImage covers the extended
// correspondence pipeline's cost on a frame with nothing to find, which is
// the common case in a live camera feed between marker sightings.
func BenchmarkDetectWithCorrespondences_BlankImage(b *testing.B) {
	det, err := NewDetector(catalog.Fractal4L6, 0.2)
	if err != nil {
		b.Fatal(err)
	}

	img := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC1)
	defer img.Close()

	runID := uuid.New()
	b.Logf("run %s: correspondence pipeline, config %s", runID, catalog.Fractal4L6)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, _, err := det.DetectWithCorrespondences(img); err != nil {
			b.Fatal(err)
		}
	}
}
