package libpython

import "fmt"

// ConfigError reports an invalid or incomplete build configuration.
// It is returned before any compiler is invoked.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StagingError reports a filesystem failure while preparing build inputs.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// ToolchainError reports a failed compile or archive pass.
type ToolchainError struct {
	Pass string
	Err  error
}

func (e *ToolchainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Pass, e.Err)
}

func (e *ToolchainError) Unwrap() error {
	return e.Err
}
