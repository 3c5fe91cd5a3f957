package rag

// Logger is the slice of the application logger this package needs. The
// internal zap wrapper satisfies it; tests and library consumers can pass
// NopLogger.
type Logger interface {
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, string, map[string]interface{})  {}
func (NopLogger) Warn(string, string, map[string]interface{})  {}
func (NopLogger) Error(string, string, map[string]interface{}) {}
