package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the taxonomy of failures a font build can produce.
type ErrorType string

const (
	ErrorTypeMissingInput ErrorType = "missing_input"
	ErrorTypeConfigParse  ErrorType = "config_parse"
	ErrorTypeIconAsset    ErrorType = "icon_asset"
	ErrorTypeSvgData      ErrorType = "svg_data"
	ErrorTypeStyle        ErrorType = "style_compile"
	ErrorTypeFont         ErrorType = "font_emit"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeValidation   ErrorType = "validation"
)

// Codes used across the build. A BuildError matches another through
// errors.Is when both type and code agree.
const (
	CodeMissingInputFile = "MISSING_INPUT_FILE"
	CodeConfigParse      = "CONFIG_PARSE_ERROR"
	CodeIconAssetMissing = "ICON_ASSET_MISSING"
	CodeReconcileFailed  = "RECONCILE_FAILED"
	CodeSvgDataMalformed = "SVG_DATA_MALFORMED"
	CodeStyleCompile     = "STYLE_COMPILE_ERROR"
	CodeFontEmit         = "FONT_EMIT_FAILURE"
)

// BuildError is a structured error type with context.
type BuildError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Stage    string
	FilePath string
	Fatal    bool
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Stage != "" {
		parts = append(parts, "stage:"+e.Stage)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *BuildError) Is(target error) bool {
	var t *BuildError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *BuildError) WithContext(key string, value interface{}) *BuildError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file the error refers to.
func (e *BuildError) WithPath(path string) *BuildError {
	e.FilePath = path

	return e
}

// WithStage records the pipeline stage that produced the error.
func (e *BuildError) WithStage(stage string) *BuildError {
	e.Stage = stage

	return e
}

// Error creation functions

// NewMissingInputError reports a required input file or folder that does not exist.
func NewMissingInputError(path string, cause error) *BuildError {
	return &BuildError{
		Type:     ErrorTypeMissingInput,
		Code:     CodeMissingInputFile,
		Message:  fmt.Sprintf("unable to find %q", path),
		Cause:    cause,
		FilePath: path,
		Fatal:    true,
	}
}

// NewConfigParseError reports structured input that could not be decoded or validated.
func NewConfigParseError(path, message string, cause error) *BuildError {
	return &BuildError{
		Type:     ErrorTypeConfigParse,
		Code:     CodeConfigParse,
		Message:  message,
		Cause:    cause,
		FilePath: path,
		Fatal:    true,
	}
}

// NewIconAssetError reports an icon without a usable SVG file.
func NewIconAssetError(path string) *BuildError {
	return &BuildError{
		Type:     ErrorTypeIconAsset,
		Code:     CodeIconAssetMissing,
		Message:  fmt.Sprintf("Invalid icon at \"%s\"", path),
		FilePath: path,
	}
}

// NewReconcileError is returned once a batch of icon asset errors fails the run.
func NewReconcileError(count int) *BuildError {
	return &BuildError{
		Type:    ErrorTypeIconAsset,
		Code:    CodeReconcileFailed,
		Message: fmt.Sprintf("%d icon(s) could not be reconciled", count),
		Fatal:   true,
	}
}

// NewSvgDataError reports an SVG file whose path data cannot be extracted.
func NewSvgDataError(path, message string, cause error) *BuildError {
	return &BuildError{
		Type:     ErrorTypeSvgData,
		Code:     CodeSvgDataMalformed,
		Message:  message,
		Cause:    cause,
		FilePath: path,
		Fatal:    true,
	}
}

// NewStyleError reports a failed stylesheet compilation.
func NewStyleError(path, message string, cause error) *BuildError {
	return &BuildError{
		Type:     ErrorTypeStyle,
		Code:     CodeStyleCompile,
		Message:  message,
		Cause:    cause,
		FilePath: path,
	}
}

// NewFontError reports a failed font generation.
func NewFontError(message string, cause error) *BuildError {
	return &BuildError{
		Type:    ErrorTypeFont,
		Code:    CodeFontEmit,
		Message: message,
		Cause:   cause,
		Fatal:   true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *BuildError {
	return &BuildError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
		Fatal:   true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *BuildError {
	return &BuildError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// Sentinels usable with errors.Is.
var (
	ErrMissingInput     = &BuildError{Type: ErrorTypeMissingInput, Code: CodeMissingInputFile}
	ErrConfigParse      = &BuildError{Type: ErrorTypeConfigParse, Code: CodeConfigParse}
	ErrIconAssetMissing = &BuildError{Type: ErrorTypeIconAsset, Code: CodeIconAssetMissing}
	ErrReconcileFailed  = &BuildError{Type: ErrorTypeIconAsset, Code: CodeReconcileFailed}
	ErrSvgDataMalformed = &BuildError{Type: ErrorTypeSvgData, Code: CodeSvgDataMalformed}
	ErrStyleCompile     = &BuildError{Type: ErrorTypeStyle, Code: CodeStyleCompile}
	ErrFontEmit         = &BuildError{Type: ErrorTypeFont, Code: CodeFontEmit}
)

// IsFatal reports whether err must abort the build.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var be *BuildError
	if errors.As(err, &be) {
		return be.Fatal
	}

	return true
}

// IsStyleError checks if an error came from stylesheet compilation.
func IsStyleError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Type == ErrorTypeStyle
	}

	return false
}

// TypeOf returns the ErrorType of err, or "" for foreign errors.
func TypeOf(err error) ErrorType {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Type
	}

	return ""
}
