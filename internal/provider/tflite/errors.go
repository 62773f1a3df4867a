package tflite

import "errors"

var (
	// ErrNotCompiled is returned when the binary was built without the tflite tag
	ErrNotCompiled = errors.New("tflite support not compiled in, rebuild with -tags tflite")
	ErrLoadModel   = errors.New("load tflite model")
	ErrInvoke      = errors.New("tflite invoke failed")
	ErrInputSize   = errors.New("input tensor has wrong length")
)

// Config describes a TFLite embedding network such as MobileFaceNet
type Config struct {
	ModelPath string
	Threads   int
}
