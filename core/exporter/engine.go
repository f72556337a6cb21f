// Package exporter implements the export orchestration engine: it expands a
// request into every configuration x format x part combination, drives each
// one through the provider's synchronous or asynchronous export protocol and
// packs the results into a single archive.
package exporter

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"cad-exporter/core/archive"
	"cad-exporter/core/expander"
	"cad-exporter/core/extractor"
	"cad-exporter/core/models"
	"cad-exporter/providers/onshape"

	"github.com/sirupsen/logrus"
)

// Provider is the slice of the CAD provider API the engine drives.
type Provider interface {
	ResolveWorkspace(ctx context.Context, documentID string) (string, error)
	ListParts(ctx context.Context, documentID, workspaceID, elementID, configToken string) ([]models.Part, error)
	EncodeConfiguration(ctx context.Context, documentID, elementID string, records []models.ParameterRecord) (models.ConfigEncoding, error)
	ExportSTL(ctx context.Context, opts onshape.STLExportOptions) (*models.Payload, error)
	CreateTranslation(ctx context.Context, opts onshape.TranslationOptions) (string, error)
	GetTranslation(ctx context.Context, translationID string) (*models.TranslationStatus, error)
	DownloadExternalData(ctx context.Context, documentID, fileID string) (*models.Payload, error)
}

const (
	// DefaultPollInterval is the fixed delay between translation polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultPollAttempts bounds polling to roughly a three-minute ceiling.
	DefaultPollAttempts = 90
)

// Options tune the engine. Zero values fall back to the defaults.
type Options struct {
	PollInterval time.Duration
	PollAttempts int
	Quality      models.MeshQuality
}

// Engine orchestrates export requests against the provider.
type Engine struct {
	provider     Provider
	tracker      JobTracker
	pollInterval time.Duration
	pollAttempts int
	quality      models.MeshQuality
}

// NewEngine creates a new export engine
func NewEngine(provider Provider, tracker JobTracker, opts Options) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = DefaultPollAttempts
	}
	return &Engine{
		provider:     provider,
		tracker:      tracker,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
		quality:      opts.Quality,
	}
}

// UnitOutcome is the per-unit result of one run.
type UnitOutcome struct {
	Unit      models.ExportUnit
	JobID     string
	EntryName string
	Size      int64
	NoOutput  bool
	Duplicate bool
	Err       error
}

// RunResult is the archive plus the outcome of every dispatched unit.
type RunResult struct {
	Archive  []byte
	Outcomes []UnitOutcome
}

// runState is the read-only per-request context shared by all units.
type runState struct {
	req         *models.ExportRequest
	workspaceID string
	quality     models.MeshQuality
	sink        *archive.Assembler
}

// comboContext carries the per-combination results shared by every format
// of that combination: the configuration encoding (one provider round trip,
// reused) and the resolved part identifiers.
type comboContext struct {
	combo        models.ConfigCombination
	encoding     models.ConfigEncoding
	encodingErr  error
	meshPartID   string
	asyncPartID  string
	partErr      error // part resolution failure affecting every format
	asyncPartErr error // part resolution failure affecting async formats only
	partLabel    string
}

type flightCall struct {
	done    chan struct{}
	outcome UnitOutcome
}

// Run executes one export request: fan-out over every combination and
// format, archive assembly, and job tracking. Unit failures do not abort
// sibling units; the archive contains whatever succeeded.
func (e *Engine) Run(ctx context.Context, req *models.ExportRequest) (*RunResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	workspaceID, err := e.provider.ResolveWorkspace(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	state := &runState{
		req:         req,
		workspaceID: workspaceID,
		quality:     mergeQuality(e.quality, req.Quality),
		sink:        archive.NewAssembler(),
	}

	combos := expander.Expand(req.Configuration)
	formats := make([]string, len(req.Formats))
	for i, f := range req.Formats {
		formats[i] = models.NormalizeFormat(f)
	}

	logrus.Infof("Starting export of %s: %d combinations x %d formats", req.StudioName, len(combos), len(formats))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes []UnitOutcome
		flights  = make(map[string]*flightCall)
	)

	for _, combo := range combos {
		wg.Add(1)
		go func(combo models.ConfigCombination) {
			defer wg.Done()
			cc := e.prepareCombination(ctx, state, combo, formats)

			var unitWG sync.WaitGroup
			for _, format := range formats {
				unit := models.ExportUnit{
					DocumentID:  req.DocumentID,
					ElementID:   req.ElementID,
					StudioName:  req.StudioName,
					PartID:      req.PartID,
					PartName:    req.PartName,
					Format:      format,
					Combination: combo,
					Combine:     req.Combine,
				}
				unitWG.Add(1)
				go func(unit models.ExportUnit) {
					defer unitWG.Done()
					outcome := e.runDeduplicated(ctx, state, cc, unit, flights, &mu)
					mu.Lock()
					outcomes = append(outcomes, outcome)
					mu.Unlock()
				}(unit)
			}
			unitWG.Wait()
		}(combo)
	}
	wg.Wait()

	data, err := state.sink.Close()
	if err != nil {
		return nil, err
	}
	return &RunResult{Archive: data, Outcomes: outcomes}, nil
}

// runDeduplicated collapses concurrent requests for the same logical unit:
// the first caller executes the network sequence, duplicates wait and
// observe its outcome.
func (e *Engine) runDeduplicated(ctx context.Context, state *runState, cc *comboContext, unit models.ExportUnit, flights map[string]*flightCall, mu *sync.Mutex) UnitOutcome {
	jobID := UnitJobID(unit)

	mu.Lock()
	if call, ok := flights[jobID]; ok {
		mu.Unlock()
		<-call.done
		outcome := call.outcome
		outcome.Duplicate = true
		return outcome
	}
	call := &flightCall{done: make(chan struct{})}
	flights[jobID] = call
	mu.Unlock()

	call.outcome = e.runUnit(ctx, state, cc, unit, jobID)
	close(call.done)
	return call.outcome
}

// prepareCombination performs the per-combination work shared across
// formats: one configuration-encoding round trip and, when needed, one
// part-listing round trip to re-resolve the part identifier.
func (e *Engine) prepareCombination(ctx context.Context, state *runState, combo models.ConfigCombination, formats []string) *comboContext {
	req := state.req
	cc := &comboContext{
		combo:       combo,
		meshPartID:  req.PartID,
		asyncPartID: req.PartID,
		partLabel:   partLabel(req),
	}

	if !combo.Empty() {
		enc, err := e.provider.EncodeConfiguration(ctx, req.DocumentID, req.ElementID, combo.Records())
		if err != nil {
			cc.encodingErr = &EncodingError{Tag: combo.Tag(), Err: err}
			return cc
		}
		cc.encoding = enc
	}

	if req.Combine {
		return cc
	}

	hasAsync := false
	for _, f := range formats {
		if !models.IsMeshFormat(f) {
			hasAsync = true
			break
		}
	}

	// The caller-supplied identifier is trusted for the unconfigured case;
	// configured async exports re-resolve because identifiers shift across
	// configurations. A name-only request resolves for every path.
	needListing := req.PartID == "" || (hasAsync && !combo.Empty())
	if !needListing {
		return cc
	}

	parts, err := e.provider.ListParts(ctx, req.DocumentID, state.workspaceID, req.ElementID, cc.encoding.QueryToken)
	if err != nil {
		err = fmt.Errorf("list parts: %w", err)
		if req.PartID == "" {
			cc.partErr = err
		} else {
			cc.asyncPartErr = err
		}
		return cc
	}

	match, ok := matchConfiguredPart(parts, req.PartName, req.PartID)
	if !ok {
		rerr := &PartResolutionError{Msg: fmt.Sprintf("no part matching name %q or id %q in studio %s", req.PartName, req.PartID, req.ElementID)}
		if req.PartID == "" {
			cc.partErr = rerr
		} else {
			cc.asyncPartErr = rerr
		}
		return cc
	}

	cc.asyncPartID = match.PartID
	if req.PartID == "" {
		cc.meshPartID = match.PartID
	}
	if req.PartName == "" && match.Name != "" {
		cc.partLabel = match.Name
	}
	return cc
}

// runUnit drives a single unit from job creation to its terminal state.
func (e *Engine) runUnit(ctx context.Context, state *runState, cc *comboContext, unit models.ExportUnit, jobID string) UnitOutcome {
	outcome := UnitOutcome{Unit: unit, JobID: jobID}

	job := &models.Job{
		ID:         jobID,
		DocumentID: unit.DocumentID,
		ElementID:  unit.ElementID,
		StudioName: unit.StudioName,
		PartID:     unit.PartID,
		PartName:   unit.PartName,
		Format:     unit.Format,
		ConfigTag:  unit.Combination.Tag(),
		Combine:    unit.Combine,
		Status:     models.JobStatusPending,
	}
	if err := e.tracker.CreateJob(job); err != nil {
		logrus.Warnf("Failed to create job record %s: %v", jobID, err)
	}
	if err := e.tracker.MarkExporting(jobID); err != nil {
		logrus.Warnf("Failed to update job %s: %v", jobID, err)
	}

	fail := func(err error) UnitOutcome {
		outcome.Err = err
		if terr := e.tracker.MarkFailed(jobID, err.Error()); terr != nil {
			logrus.Warnf("Failed to update job %s: %v", jobID, terr)
		}
		logrus.Warnf("Export unit %s (%s) failed: %v", jobID, unit.Format, err)
		return outcome
	}

	if cc.encodingErr != nil {
		return fail(cc.encodingErr)
	}
	if cc.partErr != nil {
		return fail(cc.partErr)
	}

	payload, err := strategyFor(unit.Format).run(ctx, e, state, cc, unit)
	if err != nil {
		return fail(err)
	}
	if payload == nil {
		// Translation finished with zero results. Not an error, but the
		// unit contributes nothing to the archive.
		outcome.NoOutput = true
		if terr := e.tracker.MarkDone(jobID, "no_output", "", 0, ""); terr != nil {
			logrus.Warnf("Failed to update job %s: %v", jobID, terr)
		}
		return outcome
	}

	entryName, data, contentType, err := finishPayload(cc, unit, payload)
	if err != nil {
		return fail(err)
	}
	if err := state.sink.Add(entryName, data); err != nil {
		return fail(err)
	}

	outcome.EntryName = entryName
	outcome.Size = int64(len(data))
	if terr := e.tracker.MarkDone(jobID, "export_complete", entryName, outcome.Size, contentType); terr != nil {
		logrus.Warnf("Failed to update job %s: %v", jobID, terr)
	}
	if terr := e.tracker.RecordArtifact(jobID, entryName, map[string]interface{}{
		"size":         outcome.Size,
		"content_type": contentType,
	}); terr != nil {
		logrus.Warnf("Failed to record artifact for job %s: %v", jobID, terr)
	}
	logrus.Infof("Export unit %s done: %s (%d bytes)", jobID, entryName, outcome.Size)
	return outcome
}

// finishPayload turns a fetched payload into its archive entry. Container
// payloads from the synchronous mesh path keep the provider's grouping and
// are stored verbatim under a .zip name; containers from translations are
// unpacked to the single requested file.
func finishPayload(cc *comboContext, unit models.ExportUnit, payload *models.Payload) (string, []byte, string, error) {
	ext := models.FormatExtension(unit.Format)
	data := payload.Bytes
	contentType := payload.ContentType

	if extractor.IsContainer(payload.ContentType, payload.Bytes) {
		if models.IsMeshFormat(unit.Format) {
			ext = "zip"
			contentType = "application/zip"
		} else {
			matchName := unit.PartName
			if matchName == "" {
				matchName = cc.partLabel
			}
			sel, err := extractor.Select(payload.Bytes, unit.Format, unit.StudioName, matchName)
			if err != nil {
				return "", nil, "", &ExtractionError{Err: err}
			}
			data = sel.Bytes
		}
	}

	label := cc.partLabel
	if unit.Combine {
		label = "Combined"
	}
	name := archive.EntryName(unit.StudioName, label, unit.Combination.Tag(), ext)
	return name, data, contentType, nil
}

// UnitJobID derives the stable job id of a unit from its identifying tuple.
func UnitJobID(u models.ExportUnit) string {
	scope := u.PartID + "/" + u.PartName
	if u.Combine {
		scope = "combined"
	}
	key := strings.Join([]string{u.ElementID, scope, models.NormalizeFormat(u.Format), u.Combination.Tag()}, "|")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func partLabel(req *models.ExportRequest) string {
	if req.Combine {
		return "Combined"
	}
	if req.PartName != "" {
		return req.PartName
	}
	return req.PartID
}

func validate(req *models.ExportRequest) error {
	if req.DocumentID == "" {
		return &ValidationError{Msg: "document_id is required"}
	}
	if req.ElementID == "" {
		return &ValidationError{Msg: "element_id is required"}
	}
	if req.StudioName == "" {
		return &ValidationError{Msg: "studio_name is required"}
	}
	if len(req.Formats) == 0 {
		return &ValidationError{Msg: "at least one format is required"}
	}
	if !req.Combine && req.PartID == "" && req.PartName == "" {
		return &ValidationError{Msg: "part_id or part_name is required unless combine is set"}
	}
	for _, p := range req.Configuration {
		if p.ID == "" {
			return &ValidationError{Msg: "configuration parameter without id"}
		}
		if len(p.Values) == 0 {
			return &ValidationError{Msg: fmt.Sprintf("configuration parameter %s has no values", p.ID)}
		}
	}
	return nil
}

func mergeQuality(defaults, overrides models.MeshQuality) models.MeshQuality {
	q := defaults
	if overrides.MinFacetWidth != "" {
		q.MinFacetWidth = overrides.MinFacetWidth
	}
	if overrides.AngleTolerance != "" {
		q.AngleTolerance = overrides.AngleTolerance
	}
	if overrides.ChordTolerance != "" {
		q.ChordTolerance = overrides.ChordTolerance
	}
	return q
}
