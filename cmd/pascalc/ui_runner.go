package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"pascalc/internal/buildpipeline"
	"pascalc/internal/ui"
)

type buildOutcome struct {
	result *buildpipeline.BuildResult
	err    error
}

func runBuildWithUI(ctx context.Context, title string, files []string, req *buildpipeline.BuildRequest) (*buildpipeline.BuildResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the pipeline from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
