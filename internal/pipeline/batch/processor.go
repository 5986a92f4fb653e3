// Package batch runs the cleaning, validation and split-write pipeline over
// every input file in a directory.
package batch

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"member-pipeline/internal/common/errors"
	"member-pipeline/internal/common/observability"
	"member-pipeline/internal/models"
	"member-pipeline/internal/pipeline"
	"member-pipeline/internal/pipeline/cleaner"
	"member-pipeline/internal/pipeline/eligibility"
	"member-pipeline/internal/pipeline/memberid"
	"member-pipeline/internal/pipeline/table"
)

const runKind = "process"

// FileResult describes what happened to one input file.
type FileResult struct {
	Name              string         `json:"name"`
	Stage             pipeline.Stage `json:"stage"`
	Accepted          int            `json:"accepted"`
	Rejected          int            `json:"rejected"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	SuccessPath       string         `json:"successPath,omitempty"`
	FailPath          string         `json:"failPath,omitempty"`
}

// Result summarises one processing run.
type Result struct {
	RunID      string       `json:"runId"`
	Discovered int          `json:"filesDiscovered"`
	Processed  int          `json:"filesProcessed"`
	Skipped    int          `json:"filesSkipped"`
	Accepted   int          `json:"accepted"`
	Rejected   int          `json:"rejected"`
	Files      []FileResult `json:"files"`
}

// Processor owns one settings snapshot. It is safe to call Run repeatedly.
type Processor struct {
	fs        afero.Fs
	settings  pipeline.Settings
	validator *eligibility.Validator
	observer  pipeline.Observer
	obs       *observability.Observability
}

func NewProcessor(fs afero.Fs, settings pipeline.Settings, observer pipeline.Observer, obs *observability.Observability) *Processor {
	if observer == nil {
		observer = pipeline.NopObserver{}
	}
	return &Processor{
		fs:        fs,
		settings:  settings,
		validator: eligibility.New(settings.ReferenceDate),
		observer:  observer,
		obs:       obs,
	}
}

// Run processes every file in the input directory. Any invalid entry aborts
// the run before a single output is written; any per-file failure aborts the
// remaining files.
func (p *Processor) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	runID := uuid.New().String()
	p.observer.RunStarted(runID, runKind)
	defer func() {
		elapsed := time.Since(start)
		p.observer.RunFinished(runID, runKind, err, elapsed)
		status := "success"
		if err != nil {
			status = "failure"
		}
		p.obs.RecordRun(ctx, runKind, status)
		p.obs.RecordRunDuration(ctx, elapsed, runKind, status)
	}()

	if err := p.settings.Validate(); err != nil {
		return nil, err
	}

	names, err := p.discover()
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{p.settings.SuccessDir, p.settings.FailDir} {
		if err := table.EnsureDir(p.fs, dir); err != nil {
			return nil, errors.NewOutputWriteFailedError(dir, err)
		}
	}

	processed, err := p.processedSet()
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.settings.Parallelism)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			r, err := p.processFile(gctx, name, processed[name])
			results[i] = r
			if err != nil {
				p.observer.FileFailed(name, err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res = &Result{RunID: runID, Discovered: len(names), Files: results}
	for _, r := range results {
		switch r.Stage {
		case pipeline.StageSkipped:
			res.Skipped++
		case pipeline.StageDone:
			res.Processed++
			res.Accepted += r.Accepted
			res.Rejected += r.Rejected
		}
	}
	return res, nil
}

// discover lists the input directory and rejects the run if any entry lacks
// the data extension.
func (p *Processor) discover() ([]string, error) {
	entries, err := table.List(p.fs, p.settings.InputDir)
	if err != nil {
		return nil, errors.NewInputReadFailedError(p.settings.InputDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != p.settings.DataExtension {
			p.observer.StageReached(e.Name(), pipeline.StageRejected)
			return nil, errors.NewInvalidInputFilenameError(e.Name(), p.settings.DataExtension)
		}
		p.observer.StageReached(e.Name(), pipeline.StageDiscovered)
		names = append(names, e.Name())
	}
	return names, nil
}

// processedSet returns the input names whose accept and reject outputs both
// already exist.
func (p *Processor) processedSet() (map[string]bool, error) {
	set := make(map[string]bool)
	entries, err := table.List(p.fs, p.settings.SuccessDir)
	if err != nil {
		return nil, errors.NewOutputReadFailedError(p.settings.SuccessDir, err)
	}
	for _, e := range entries {
		name, ok := strings.CutPrefix(e.Name(), pipeline.SuccessPrefix)
		if !ok || e.IsDir() || strings.HasSuffix(name, table.PartialSuffix) {
			continue
		}
		exists, err := table.Exists(p.fs, p.settings.FailPath(name))
		if err != nil {
			return nil, errors.NewOutputReadFailedError(p.settings.FailPath(name), err)
		}
		if exists {
			set[name] = true
		}
	}
	return set, nil
}

func (p *Processor) processFile(ctx context.Context, name string, alreadyProcessed bool) (res FileResult, err error) {
	ctx, span := p.obs.StartSpan(ctx, "pipeline.process-file", attribute.String("file", name))
	defer func() {
		span.SetAttributes(attribute.String("stage", string(res.Stage)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res = FileResult{Name: name, Stage: pipeline.StageDiscovered}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if alreadyProcessed && p.settings.SkipProcessed {
		res.Stage = pipeline.StageSkipped
		p.observer.FileSkipped(name, "outputs already present")
		return res, nil
	}

	path := filepath.Join(p.settings.InputDir, name)
	raw, err := table.Read(p.fs, path)
	if err != nil {
		if stderrors.Is(err, table.ErrMalformed) {
			return res, errors.NewMalformedInputFileError(path, err.Error(), err)
		}
		return res, errors.NewInputReadFailedError(path, err)
	}
	if missing := pipeline.RequiredColumns(raw); len(missing) > 0 {
		return res, errors.NewMalformedInputFileError(path,
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}
	p.advance(&res, pipeline.StageIngested)

	cleaned, report := cleaner.Clean(raw)
	res.DuplicatesRemoved = report.DuplicatesRemoved
	p.observer.Cleaned(name, report)
	p.advance(&res, pipeline.StageCleaned)

	validated := p.validator.ValidateAll(cleaned)
	p.advance(&res, pipeline.StageValidated)

	accepted, rejected := eligibility.Split(validated)
	AssignMemberIDs(accepted)
	res.Accepted, res.Rejected = len(accepted), len(rejected)
	p.observer.Split(name, res.Accepted, res.Rejected)
	p.advance(&res, pipeline.StageSplit)

	res.SuccessPath = p.settings.SuccessPath(name)
	res.FailPath = p.settings.FailPath(name)
	if err := table.WriteAtomic(p.fs, res.SuccessPath, models.AcceptedColumns, accepted); err != nil {
		return res, errors.NewOutputWriteFailedError(res.SuccessPath, err)
	}
	if err := table.WriteAtomic(p.fs, res.FailPath, models.RejectedColumns, rejected); err != nil {
		return res, errors.NewOutputWriteFailedError(res.FailPath, err)
	}
	p.advance(&res, pipeline.StageWritten)
	p.advance(&res, pipeline.StageDone)

	return res, nil
}

func (p *Processor) advance(res *FileResult, stage pipeline.Stage) {
	res.Stage = stage
	p.observer.StageReached(res.Name, stage)
}

// AssignMemberIDs sets MemberID on accepted records in place.
func AssignMemberIDs(accepted []models.ValidatedRecord) {
	for i := range accepted {
		rec := &accepted[i]
		if rec.LastName == nil || rec.DateOfBirth == nil {
			continue
		}
		rec.MemberID = memberid.Generate(*rec.LastName, *rec.DateOfBirth)
	}
}
