package background

import (
	"io"
	"math"

	"github.com/cheggaaa/pb/v3"
)

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

func newTestBar() *pb.ProgressBar {
	bar := pb.New(0)
	bar.SetWriter(io.Discard)
	return bar
}
