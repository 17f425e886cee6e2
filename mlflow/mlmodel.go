package mlflow

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/modelsync"
)

const (
	mlmodelFile = "MLmodel"
	// modelFile holds the openai flavor payload: model id, task and messages.
	modelFile = "model.yaml"

	pythonTimeLayout = "2006-01-02 15:04:05.000000"
)

// mlModel is the MLmodel metadata file. The same value is sent as model_json to runs/log-model.
type mlModel struct {
	ArtifactPath   string                    `yaml:"artifact_path" json:"artifact_path"`
	Flavors        map[string]map[string]any `yaml:"flavors" json:"flavors"`
	ModelUUID      string                    `yaml:"model_uuid" json:"model_uuid"`
	RunID          string                    `yaml:"run_id" json:"run_id"`
	UTCTimeCreated string                    `yaml:"utc_time_created" json:"utc_time_created"`
}

// openaiModel is the openai flavor payload stored in model.yaml.
type openaiModel struct {
	Model    string              `yaml:"model"`
	Task     modelsync.Task      `yaml:"task"`
	Messages []modelsync.Message `yaml:"messages,omitempty"`
}

func newMLModel(d *modelsync.ModelDescriptor, runID, modelUUID string, created time.Time) *mlModel {
	return &mlModel{
		ArtifactPath: d.ArtifactPath,
		Flavors: map[string]map[string]any{
			"openai": {
				"code": nil,
				"data": modelFile,
			},
			"python_function": {
				"loader_module": "mlflow.openai",
				"data":          modelFile,
			},
		},
		ModelUUID:      modelUUID,
		RunID:          runID,
		UTCTimeCreated: created.UTC().Format(pythonTimeLayout),
	}
}

// artifactFiles renders the files uploaded under the descriptor's artifact path, keyed by file name.
func artifactFiles(d *modelsync.ModelDescriptor, m *mlModel) (map[string][]byte, error) {
	mlmodel, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("mlflow: encode %s: %w", mlmodelFile, err)
	}
	payload, err := yaml.Marshal(&openaiModel{
		Model:    d.Model,
		Task:     d.Task,
		Messages: d.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("mlflow: encode %s: %w", modelFile, err)
	}
	return map[string][]byte{
		mlmodelFile: mlmodel,
		modelFile:   payload,
	}, nil
}
