// Package onnx runs HuggingFace transformer models exported to ONNX: sequence
// classifiers for disaster type and severity, and a token classifier for NER.
//
// Each model directory holds:
//
//	model.onnx      exported graph
//	tokenizer.json  HuggingFace fast-tokenizer definition
//	config.json     model config with an id2label map (or labels.json, a JSON array)
package onnx

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Runtime owns the process-wide onnxruntime environment. Create one at
// startup, load models with it, and Close it after the models are closed.
type Runtime struct{}

// NewRuntime loads the onnxruntime shared library and initializes the
// environment. An empty libPath uses the platform default library name.
func NewRuntime(libPath string) (*Runtime, error) {
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return &Runtime{}, nil
}

// Close destroys the onnxruntime environment.
func (r *Runtime) Close() error {
	if r == nil || !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
