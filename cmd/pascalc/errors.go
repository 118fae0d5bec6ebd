package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"pascalc/internal/buildpipeline"
	"pascalc/internal/diag"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	codeLabel  = color.New(color.FgYellow)
	okLabel    = color.New(color.FgGreen, color.Bold)
	pathLabel  = color.New(color.Faint)
)

// printError renders err, one line per joined error. Lowering faults carry
// their ICE identifier.
func printError(out io.Writer, err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			printError(out, e)
		}
		return
	}
	msg := strings.TrimSpace(err.Error())
	if ice, ok := diag.AsInternal(err); ok {
		id := ice.Code.ID()
		msg = strings.Replace(msg, id, codeLabel.Sprint(id), 1)
	}
	fmt.Fprintf(out, "%s %s\n", errorLabel.Sprint("error:"), msg)
}

func printBuildSummary(out io.Writer, res *buildpipeline.BuildResult) {
	for _, u := range res.Units {
		switch {
		case u.Err != nil:
			fmt.Fprintf(out, "%s %s\n", errorLabel.Sprint("failed"), u.Display)
		case u.Output != "":
			cached := ""
			if u.Lowered != nil && u.Lowered.Cached {
				cached = pathLabel.Sprint(" (cached)")
			}
			fmt.Fprintf(out, "%s %s -> %s%s\n", okLabel.Sprint("built "), u.Display, pathLabel.Sprint(u.Output), cached)
		default:
			fmt.Fprintf(out, "%s %s\n", okLabel.Sprint("lowered"), u.Display)
		}
	}
}
