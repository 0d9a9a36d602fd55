package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage"
	"go.viam.com/rdk/rimage/transform"

	"github.com/erh/vdensetrack"
)

func main() {
	err := realMain()
	if err != nil {
		panic(err)
	}
}

func realMain() error {
	logger := logging.NewLogger("vo")
	ctx := context.Background()

	grayGlob := flag.String("gray", "", "glob of gray/color image files, sorted by name")
	depthGlob := flag.String("depth", "", "glob of 16-bit depth image files, sorted by name")
	fx := flag.Float64("fx", 0, "focal length x (pixels)")
	fy := flag.Float64("fy", 0, "focal length y (pixels)")
	cx := flag.Float64("cx", 0, "principal point x")
	cy := flag.Float64("cy", 0, "principal point y")
	depthScale := flag.Float64("depth-scale", 1000, "depth units per meter")
	minLevel := flag.Int("min-level", 0, "finest pyramid level")
	maxLevel := flag.Int("max-level", 4, "coarsest pyramid level")
	maxIterations := flag.Int("max-iterations", 20, "max iterations per level")
	uniformWeights := flag.Bool("uniform-weights", false, "disable student-t weighting")

	flag.Parse()

	if *grayGlob == "" || *depthGlob == "" {
		return fmt.Errorf("need -gray and -depth globs")
	}
	if *fx == 0 || *fy == 0 {
		return fmt.Errorf("need camera intrinsics (-fx -fy -cx -cy)")
	}

	grayFiles, err := sortedGlob(*grayGlob)
	if err != nil {
		return err
	}
	depthFiles, err := sortedGlob(*depthGlob)
	if err != nil {
		return err
	}
	if len(grayFiles) != len(depthFiles) {
		return fmt.Errorf("got %d gray files but %d depth files", len(grayFiles), len(depthFiles))
	}
	if len(grayFiles) < 2 {
		return fmt.Errorf("need at least 2 frames, got %d", len(grayFiles))
	}

	gray, width, height, err := loadGray(grayFiles[0])
	if err != nil {
		return err
	}
	depth, err := loadDepth(ctx, depthFiles[0], width, height, *depthScale)
	if err != nil {
		return err
	}

	opts := vdensetrack.DefaultOptions()
	opts.MinLevel = *minLevel
	opts.MaxLevel = *maxLevel
	opts.MaxIterationsPerLevel = *maxIterations
	opts.UseTDistWeights = !*uniformWeights

	intrinsics := &transform.PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     *fx,
		Fy:     *fy,
		Ppx:    *cx,
		Ppy:    *cy,
	}

	tracker, err := vdensetrack.NewTracker(gray, depth, intrinsics, opts, logger)
	if err != nil {
		return err
	}

	for i := 1; i < len(grayFiles); i++ {
		gray, w, h, err := loadGray(grayFiles[i])
		if err != nil {
			return err
		}
		if w != width || h != height {
			return fmt.Errorf("frame %s is %dx%d, expected %dx%d", grayFiles[i], w, h, width, height)
		}
		depth, err := loadDepth(ctx, depthFiles[i], width, height, *depthScale)
		if err != nil {
			return err
		}

		xi, err := tracker.Align(ctx, gray, depth)
		if err != nil {
			return err
		}
		pose, err := tracker.Pose()
		if err != nil {
			return err
		}
		logger.Infof("frame %d twist %v pose %v", i, xi, pose)
	}

	return nil
}

func sortedGlob(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %s", pattern)
	}
	sort.Strings(files)
	return files, nil
}

func loadGray(fn string) ([]float32, int, int, error) {
	img, err := rimage.NewImageFromFile(fn)
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			out[y*width+x] = float32(g.Y) / 255
		}
	}
	return out, width, height, nil
}

func loadDepth(ctx context.Context, fn string, width, height int, scale float64) ([]float32, error) {
	dm, err := rimage.NewDepthMapFromFile(ctx, fn)
	if err != nil {
		return nil, err
	}
	if dm.Width() != width || dm.Height() != height {
		return nil, fmt.Errorf("depth %s is %dx%d, expected %dx%d", fn, dm.Width(), dm.Height(), width, height)
	}
	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[y*width+x] = float32(float64(dm.GetDepth(x, y)) / scale)
		}
	}
	return out, nil
}
