package main

import (
	"fmt"
	"io"
	"time"

	"pascalc/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings *buildpipeline.Timings) {
	for _, stage := range []buildpipeline.Stage{buildpipeline.StageLoad, buildpipeline.StageLower, buildpipeline.StageEmit, buildpipeline.StageRun} {
		if timings.Has(stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
