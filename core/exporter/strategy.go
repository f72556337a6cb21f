package exporter

import (
	"context"
	"fmt"
	"time"

	"cad-exporter/core/models"
	"cad-exporter/providers/onshape"
)

// strategy is the closed set of export protocols. Mesh exports download
// synchronously; every other format goes through the asynchronous
// translation lifecycle. A nil payload with a nil error means the unit
// finished with no output.
type strategy interface {
	run(ctx context.Context, e *Engine, state *runState, cc *comboContext, unit models.ExportUnit) (*models.Payload, error)
}

func strategyFor(format string) strategy {
	if models.IsMeshFormat(format) {
		return meshStrategy{}
	}
	return translationStrategy{}
}

// meshStrategy fetches the binary mesh in one request. The configuration
// travels as the query token; combine scope switches to the whole-studio
// endpoint with provider-side grouping.
type meshStrategy struct{}

func (meshStrategy) run(ctx context.Context, e *Engine, state *runState, cc *comboContext, unit models.ExportUnit) (*models.Payload, error) {
	opts := onshape.STLExportOptions{
		DocumentID:  unit.DocumentID,
		WorkspaceID: state.workspaceID,
		ElementID:   unit.ElementID,
		ConfigToken: cc.encoding.QueryToken,
		Quality:     state.quality,
		Grouped:     unit.Combine,
	}
	if !unit.Combine {
		opts.PartID = cc.meshPartID
	}
	return e.provider.ExportSTL(ctx, opts)
}

// translationStrategy submits a translation job, polls it to a terminal
// state and fetches the result blob. The configuration travels as the
// opaque encoded id in the submission body; the translation endpoints do
// not accept the query-token form.
type translationStrategy struct{}

func (translationStrategy) run(ctx context.Context, e *Engine, state *runState, cc *comboContext, unit models.ExportUnit) (*models.Payload, error) {
	if cc.asyncPartErr != nil {
		return nil, cc.asyncPartErr
	}

	opts := onshape.TranslationOptions{
		DocumentID:  unit.DocumentID,
		WorkspaceID: state.workspaceID,
		ElementID:   unit.ElementID,
		FormatName:  models.NormalizeFormat(unit.Format),
		EncodedID:   cc.encoding.EncodedID,
	}
	if !unit.Combine {
		if cc.asyncPartID == "" {
			return nil, &PartResolutionError{Msg: "no part identifier available for translation"}
		}
		opts.PartIDs = []string{cc.asyncPartID}
	}

	translationID, err := e.provider.CreateTranslation(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("submit translation: %w", err)
	}

	machine := NewPollMachine(e.pollAttempts)
	for !machine.Terminal() {
		if err := sleepCtx(ctx, e.pollInterval); err != nil {
			return nil, err
		}
		status, err := e.provider.GetTranslation(ctx, translationID)
		if err != nil {
			// A failed poll request is terminal; polling does not continue
			// across transport errors.
			return nil, err
		}
		machine = machine.Observe(status)
	}

	switch machine.State {
	case PollFailed:
		return nil, &TranslationFailedError{Reason: machine.Reason}
	case PollTimedOut:
		return nil, &TimeoutError{Attempts: machine.Attempt}
	}

	if len(machine.ResultIDs) == 0 {
		return nil, nil
	}
	return e.provider.DownloadExternalData(ctx, unit.DocumentID, machine.ResultIDs[0])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
