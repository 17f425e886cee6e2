package mlflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/modelsync"
)

const (
	artifactsScheme = "mlflow-artifacts:"

	runStatusFinished = "FINISHED"
	runStatusFailed   = "FAILED"
)

// detachCancel returns a context that is not cancelled when parent is cancelled,
// but still respects parent's deadline so a shared lookup does not hang.
// The caller should call the returned cancel when done to release the deadline timer.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}

type runTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type runInfo struct {
	RunID       string `json:"run_id"`
	ArtifactURI string `json:"artifact_uri"`
}

type modelVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"`
	RunID   string `json:"run_id"`
}

// LogModel stores d as a new version of the registered model d.RegisteredName.
// The run backing the version is marked FINISHED, or FAILED when a later step fails.
// The first error is returned; nothing is retried.
func (c *Client) LogModel(ctx context.Context, d *modelsync.ModelDescriptor) (mv *modelsync.ModelVersion, err error) {
	if d == nil {
		return nil, ErrNilDescriptor
	}
	requestID := uuid.NewString()
	ctx = withRequestID(ctx, requestID)
	ctx, span := c.tracer.Start(ctx, "mlflow.LogModel", trace.WithAttributes(
		attribute.String("mlflow.registered_model", d.RegisteredName),
		attribute.String("mlflow.model", d.Model),
		attribute.String("mlflow.task", string(d.Task)),
		attribute.String("mlflow.request_id", requestID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	logger := c.logger.WithFields(log.Fields{
		"registered_name": d.RegisteredName,
		"request_id":      requestID,
	})

	experimentID, err := c.resolveExperiment(ctx)
	if err != nil {
		return nil, err
	}
	run, err := c.createRun(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("mlflow.run_id", run.RunID))
	logger = logger.WithField("run_id", run.RunID)
	defer func() {
		status := runStatusFinished
		if err != nil {
			status = runStatusFailed
		}
		if uerr := c.updateRun(context.WithoutCancel(ctx), run.RunID, status); uerr != nil {
			logger.WithError(uerr).Warnf("could not mark run %s", status)
		}
	}()

	model := newMLModel(d, run.RunID, uuid.NewString(), time.Now())
	files, err := artifactFiles(d, model)
	if err != nil {
		return nil, err
	}
	root, err := artifactRoot(run.ArtifactURI)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := c.putArtifact(ctx, path.Join(root, d.ArtifactPath, name), files[name]); err != nil {
			return nil, err
		}
	}
	if err := c.logModelMetadata(ctx, run.RunID, model); err != nil {
		return nil, err
	}
	if err := c.createRegisteredModel(ctx, d.RegisteredName); err != nil {
		return nil, err
	}
	source := "runs:/" + run.RunID + "/" + d.ArtifactPath
	v, err := c.createModelVersion(ctx, d.RegisteredName, source, run.RunID)
	if err != nil {
		return nil, err
	}
	logger.WithField("version", v.Version).Debug("created model version")
	return &modelsync.ModelVersion{
		Name:    v.Name,
		Version: v.Version,
		Source:  v.Source,
		RunID:   v.RunID,
	}, nil
}

// resolveExperiment returns the configured experiment's id, looking it up (or creating it) once.
func (c *Client) resolveExperiment(ctx context.Context) (string, error) {
	if c.experimentName == "" {
		return defaultExperimentID, nil
	}
	c.mu.RLock()
	id := c.experimentID
	c.mu.RUnlock()
	if id != "" {
		return id, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	v, err, _ := c.sf.Do(c.experimentName, func() (any, error) {
		lookupCtx, cancel := detachCancel(ctx)
		defer cancel()
		id, err := c.getExperimentByName(lookupCtx, c.experimentName)
		if errors.Is(err, ErrResourceNotFound) {
			id, err = c.createExperiment(lookupCtx, c.experimentName)
		}
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.experimentID = id
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) getExperimentByName(ctx context.Context, name string) (string, error) {
	var resp struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	endpoint := "experiments/get-by-name?experiment_name=" + url.QueryEscape(name)
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", err
	}
	if resp.Experiment.ExperimentID == "" {
		return "", fmt.Errorf("%w: experiment %q has no id", ErrRequestFailed, name)
	}
	return resp.Experiment.ExperimentID, nil
}

func (c *Client) createExperiment(ctx context.Context, name string) (string, error) {
	var resp struct {
		ExperimentID string `json:"experiment_id"`
	}
	req := map[string]string{"name": name}
	if err := c.call(ctx, http.MethodPost, "experiments/create", req, &resp); err != nil {
		return "", err
	}
	c.logger.WithFields(log.Fields{"experiment": name, "experiment_id": resp.ExperimentID}).Info("created experiment")
	return resp.ExperimentID, nil
}

func (c *Client) createRun(ctx context.Context, experimentID string) (*runInfo, error) {
	req := struct {
		ExperimentID string   `json:"experiment_id"`
		StartTime    int64    `json:"start_time"`
		Tags         []runTag `json:"tags"`
	}{
		ExperimentID: experimentID,
		StartTime:    time.Now().UnixMilli(),
		Tags: []runTag{
			{Key: "mlflow.source.type", Value: "LOCAL"},
			{Key: "mlflow.source.name", Value: "modelsync"},
		},
	}
	var resp struct {
		Run struct {
			Info runInfo `json:"info"`
		} `json:"run"`
	}
	if err := c.call(ctx, http.MethodPost, "runs/create", req, &resp); err != nil {
		return nil, err
	}
	if resp.Run.Info.RunID == "" {
		return nil, fmt.Errorf("%w: runs/create returned no run_id", ErrRequestFailed)
	}
	return &resp.Run.Info, nil
}

func (c *Client) updateRun(ctx context.Context, runID, status string) error {
	req := struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		EndTime int64  `json:"end_time"`
	}{RunID: runID, Status: status, EndTime: time.Now().UnixMilli()}
	return c.call(ctx, http.MethodPost, "runs/update", req, nil)
}

func (c *Client) logModelMetadata(ctx context.Context, runID string, m *mlModel) error {
	modelJSON, err := sonic.MarshalString(m)
	if err != nil {
		return fmt.Errorf("%w: encode model_json: %w", ErrRequestFailed, err)
	}
	req := struct {
		RunID     string `json:"run_id"`
		ModelJSON string `json:"model_json"`
	}{RunID: runID, ModelJSON: modelJSON}
	return c.call(ctx, http.MethodPost, "runs/log-model", req, nil)
}

// createRegisteredModel creates the registered model; an existing one is not an error.
func (c *Client) createRegisteredModel(ctx context.Context, name string) error {
	err := c.call(ctx, http.MethodPost, "registered-models/create", map[string]string{"name": name}, nil)
	if errors.Is(err, ErrResourceAlreadyExists) {
		return nil
	}
	return err
}

func (c *Client) createModelVersion(ctx context.Context, name, source, runID string) (*modelVersion, error) {
	req := struct {
		Name   string `json:"name"`
		Source string `json:"source"`
		RunID  string `json:"run_id"`
	}{Name: name, Source: source, RunID: runID}
	var resp struct {
		ModelVersion modelVersion `json:"model_version"`
	}
	if err := c.call(ctx, http.MethodPost, "model-versions/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp.ModelVersion, nil
}

// artifactRoot converts a run artifact URI served by the mlflow-artifacts proxy
// (mlflow-artifacts:/0/<run>/artifacts or mlflow-artifacts://host/0/<run>/artifacts)
// into the path below /api/2.0/mlflow-artifacts/artifacts/.
func artifactRoot(artifactURI string) (string, error) {
	rest, ok := strings.CutPrefix(artifactURI, artifactsScheme)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedArtifactStore, artifactURI)
	}
	if authority, ok := strings.CutPrefix(rest, "//"); ok {
		if i := strings.Index(authority, "/"); i >= 0 {
			rest = authority[i:]
		} else {
			rest = ""
		}
	}
	return strings.Trim(rest, "/"), nil
}
