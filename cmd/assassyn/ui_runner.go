package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"assassyn/internal/buildpipeline"
	"assassyn/internal/ui"
)

type elaborateOutcome struct {
	result buildpipeline.ElaborateResult
	err    error
}

func runElaborateWithUI(ctx context.Context, title string, units []string, req *buildpipeline.ElaborateRequest) (buildpipeline.ElaborateResult, error) {
	if req == nil {
		return buildpipeline.ElaborateResult{}, fmt.Errorf("missing elaborate request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan elaborateOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Elaborate(ctx, &reqCopy)
		outcomeCh <- elaborateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
