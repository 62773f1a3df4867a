package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initialized bool
	initMu      sync.Mutex
)

// Initialize sets up the ONNX Runtime environment once per process.
// An empty libraryPath keeps the library's platform default.
func Initialize(libraryPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}

	initialized = true
	return nil
}

// Shutdown releases the ONNX Runtime environment
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}

	initialized = false
	return nil
}

func ensureInitialized() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	return nil
}

// ioNames reads the first input and all output names from the model file
func ioNames(modelPath string) (string, []string, error) {
	inputName, outputs, err := ioInfo(modelPath)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, len(outputs))
	for i, o := range outputs {
		names[i] = o.Name
	}
	return inputName, names, nil
}

// ioInfo returns the first input name and every output of the model
func ioInfo(modelPath string) (string, []ort.InputOutputInfo, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return "", nil, fmt.Errorf("read model info %s: %w", modelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnexpectedModel, modelPath)
	}
	return inputs[0].Name, outputs, nil
}
