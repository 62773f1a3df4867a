package onnx

import "errors"

var (
	ErrNotInitialized  = errors.New("onnx runtime not initialized")
	ErrUnexpectedModel = errors.New("model inputs or outputs do not match expectations")
	ErrInputSize       = errors.New("input tensor has wrong length")
)
