// Package mlflow provides a modelsync.Registry backed by an MLflow tracking server.
// LogModel mirrors mlflow.openai.log_model with registered_model_name: it creates a run,
// uploads the MLmodel and model.yaml artifacts through the mlflow-artifacts proxy,
// records the model on the run, registers the model name and creates a model version.
// Use New with the tracking server URL; requests are never retried.
package mlflow
