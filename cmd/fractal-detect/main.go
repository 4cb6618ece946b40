// Command fractal-detect is the CLI driver for the fractal marker
// detector: a "detect" subcommand for primary detections and a
// "correspond" subcommand for the extended correspondence pipeline,
// built on urfave/cli/v2 subcommands and zap logging.
package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/Liiizhen/Optimized-fractal/internal/fractal"
	"github.com/Liiizhen/Optimized-fractal/internal/report"
)

func main() {
	app := &cli.App{
		Name:  "fractal-detect",
		Usage: "detect fractal fiducial markers in images",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "FRACTAL_4L_6", Usage: "catalogue configuration"},
			&cli.Float64Flag{Name: "marker-size", Usage: "external marker side length, in meters"},
			&cli.StringFlag{Name: "csv", Usage: "write results to this CSV path"},
			&cli.StringFlag{Name: "debug-image", Usage: "write a debug overlay for the first image to this path"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "run the primary detector on one or more images",
				ArgsUsage: "IMAGE...",
				Action:    runDetect,
			},
			{
				Name:      "correspond",
				Usage:     "run the extended correspondence pipeline on one or more images",
				ArgsUsage: "IMAGE...",
				Action:    runCorrespond,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fractal-detect: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *zap.SugaredLogger {
	if c.Bool("verbose") {
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	return zap.NewNop().Sugar()
}

func openDetector(c *cli.Context) (*fractal.Detector, error) {
	return fractal.NewDetector(c.String("config"), c.Float64("marker-size"))
}

func newCSVWriter(c *cli.Context) (*report.Writer, *os.File, error) {
	path := c.String("csv")
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return report.NewWriter(f), f, nil
}

func runDetect(c *cli.Context) error {
	logger := newLogger(c)
	det, err := openDetector(c)
	if err != nil {
		return err
	}

	csvWriter, csvFile, err := newCSVWriter(c)
	if err != nil {
		return err
	}
	if csvFile != nil {
		defer csvFile.Close()
		if err := csvWriter.WriteDetectionHeader(); err != nil {
			return err
		}
	}

	for i, path := range c.Args().Slice() {
		img := gocv.IMRead(path, gocv.IMReadUnchanged)
		if img.Empty() {
			logger.Warnw("skipping unreadable image", "path", path)
			continue
		}

		detections, err := det.Detect(img)
		if err != nil {
			img.Close()
			return fmt.Errorf("detect %q: %w", path, err)
		}
		logger.Debugw("detected markers", "path", path, "count", len(detections))

		for _, d := range detections {
			fmt.Printf("%s\tid=%d\tcorners=%v\n", path, d.ID, d.Corners)
			if csvWriter != nil {
				if err := csvWriter.WriteDetection(path, d); err != nil {
					img.Close()
					return err
				}
			}
		}

		if i == 0 && c.String("debug-image") != "" {
			writeDebugImage(img, detections, c.String("debug-image"), logger)
		}
		img.Close()
	}

	if csvWriter != nil {
		return csvWriter.Flush()
	}
	return nil
}

func runCorrespond(c *cli.Context) error {
	logger := newLogger(c)
	det, err := openDetector(c)
	if err != nil {
		return err
	}

	csvWriter, csvFile, err := newCSVWriter(c)
	if err != nil {
		return err
	}
	if csvFile != nil {
		defer csvFile.Close()
		if err := csvWriter.WriteCorrespondenceHeader(); err != nil {
			return err
		}
	}

	for _, path := range c.Args().Slice() {
		img := gocv.IMRead(path, gocv.IMReadUnchanged)
		if img.Empty() {
			logger.Warnw("skipping unreadable image", "path", path)
			continue
		}

		detections, p3d, p2d, err := det.DetectWithCorrespondences(img)
		img.Close()
		if err != nil {
			return fmt.Errorf("correspond %q: %w", path, err)
		}
		logger.Debugw("built correspondences", "path", path, "detections", len(detections), "pairs", len(p3d))

		for i := range p3d {
			fmt.Printf("%s\tp3d=%v\tp2d=%v\n", path, p3d[i], p2d[i])
			if csvWriter != nil {
				if err := csvWriter.WriteCorrespondence(path, p3d[i], p2d[i]); err != nil {
					return err
				}
			}
		}
	}

	if csvWriter != nil {
		return csvWriter.Flush()
	}
	return nil
}

func writeDebugImage(img gocv.Mat, detections []fractal.Detection, path string, logger *zap.SugaredLogger) {
	debugImg := img.Clone()
	defer debugImg.Close()
	for _, d := range detections {
		d.Draw(debugImg, color.RGBA{R: 0, G: 255, B: 0, A: 255})
	}
	if ok := gocv.IMWrite(path, debugImg); !ok {
		logger.Warnw("failed to write debug image", "path", path)
	}
}
