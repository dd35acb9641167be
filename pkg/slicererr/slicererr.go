// Package slicererr defines the taxonomy of errors and warnings the
// slicing pipeline can produce, each carrying a stable hex code for
// downstream tooling to key off of.
package slicererr

import "fmt"

// Code is a stable, externally-visible identifier for an error or
// warning kind.
type Code uint32

const (
	CodeObjectFileNotFound Code = 0x1000 + iota
	CodeSettingsFileNotFound
	CodeStlLoadError
	CodeThreemfLoadError
	CodeThreemfUnsupportedType
	CodeSettingsFileMisformat
	CodeSettingsFileMissingSettings
	CodeTowerGeneration
	CodeNoInputProvided
	CodeInputMisformat
	CodeSettingsRecursiveLoadError
	CodeSliceGeneration
	CodeModelOutsideBuildArea
	CodeMovesOutsideBuildArea
	CodeInExcludeArea
)

const CodeUnspecified Code = 0xFFFFFFFF

// Error is a slicing-pipeline error carrying a stable code and a
// human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[0x%04X] %s", uint32(e.Code), e.Message)
}

func ObjectFileNotFound(filepath string) *Error {
	return &Error{CodeObjectFileNotFound, fmt.Sprintf("could not load object file %q: not found", filepath)}
}

func SettingsFileNotFound(filepath string) *Error {
	return &Error{CodeSettingsFileNotFound, fmt.Sprintf("could not load settings file %q: not found", filepath)}
}

func StlLoadError(cause error) *Error {
	return &Error{CodeStlLoadError, fmt.Sprintf("error loading STL file: %v", cause)}
}

func ThreemfLoadError(cause error) *Error {
	return &Error{CodeThreemfLoadError, fmt.Sprintf("error loading 3MF file: %v", cause)}
}

func ThreemfUnsupportedType() *Error {
	return &Error{CodeThreemfUnsupportedType, "3MF file uses an unsupported feature"}
}

func SettingsFileMisformat(filepath string) *Error {
	return &Error{CodeSettingsFileMisformat, fmt.Sprintf("settings file %q was formatted incorrectly", filepath)}
}

func SettingsFileMissingSettings(missing string) *Error {
	return &Error{CodeSettingsFileMissingSettings, fmt.Sprintf("settings file is missing setting %q", missing)}
}

func TowerGeneration(cause error) *Error {
	return &Error{CodeTowerGeneration, fmt.Sprintf("error building cross-section tower: %v", cause)}
}

func NoInputProvided() *Error {
	return &Error{CodeNoInputProvided, "no input provided"}
}

func InputMisformat() *Error {
	return &Error{CodeInputMisformat, "input incorrectly formatted"}
}

func SettingsRecursiveLoadError(filepath string) *Error {
	return &Error{CodeSettingsRecursiveLoadError, fmt.Sprintf("failed to load additional settings file %q", filepath)}
}

func SliceGeneration(cause error) *Error {
	return &Error{CodeSliceGeneration, fmt.Sprintf("error ordering polygon loops for slicing: %v", cause)}
}

func Unspecified(cause error) *Error {
	return &Error{CodeUnspecified, fmt.Sprintf("third party error: %v", cause)}
}

func ModelOutsideBuildArea() *Error {
	return &Error{CodeModelOutsideBuildArea, "model geometry falls outside the build volume"}
}

func MovesOutsideBuildArea() *Error {
	return &Error{CodeMovesOutsideBuildArea, "a generated move falls outside the build volume"}
}

func InExcludeArea(x, y float64) *Error {
	return &Error{CodeInExcludeArea, fmt.Sprintf("model point (%.3f, %.3f) falls inside a bed exclude area", x, y)}
}

// WarningCode identifies a non-fatal validation finding.
type WarningCode uint32

const (
	WarningLayerSizeTooLow WarningCode = 0x1000 + iota
	WarningLayerSizeTooHigh
	WarningAccelerationTooLow
	WarningNozzleTemperatureTooHigh
	WarningNozzleTemperatureTooLow
	WarningSkirtAndBrimOverlap
	WarningExtrusionWidthTooHigh
	WarningExtrusionWidthTooLow
)

// Warning is a non-fatal settings-validation finding.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("[0x%04X] %s", uint32(w.Code), w.Message)
}

func LayerSizeTooLow(layerHeight, nozzleDiameter float64) *Warning {
	return &Warning{WarningLayerSizeTooLow, fmt.Sprintf(
		"layer height (%g mm) is less than 20%% of the nozzle diameter (%g mm)", layerHeight, nozzleDiameter)}
}

func LayerSizeTooHigh(layerHeight, nozzleDiameter float64) *Warning {
	return &Warning{WarningLayerSizeTooHigh, fmt.Sprintf(
		"layer height (%g mm) is more than 80%% of the nozzle diameter (%g mm)", layerHeight, nozzleDiameter)}
}

func AccelerationTooLow(acceleration, speed, bedSize float64) *Warning {
	return &Warning{WarningAccelerationTooLow, fmt.Sprintf(
		"acceleration (%g) may be too low to reach speed (%g) across the bed (%g mm)", acceleration, speed, bedSize)}
}

func NozzleTemperatureTooHigh(temp float64) *Warning {
	return &Warning{WarningNozzleTemperatureTooHigh, fmt.Sprintf("nozzle temperature (%g) is unusually high", temp)}
}

func NozzleTemperatureTooLow(temp float64) *Warning {
	return &Warning{WarningNozzleTemperatureTooLow, fmt.Sprintf("nozzle temperature (%g) is unusually low", temp)}
}

func SkirtAndBrimOverlap(skirtDistance, brimWidth float64) *Warning {
	return &Warning{WarningSkirtAndBrimOverlap, fmt.Sprintf(
		"skirt distance (%g mm) overlaps the brim width (%g mm)", skirtDistance, brimWidth)}
}

func ExtrusionWidthTooHigh(width, nozzleDiameter float64) *Warning {
	return &Warning{WarningExtrusionWidthTooHigh, fmt.Sprintf(
		"extrusion width (%g mm) is too high for the nozzle diameter (%g mm)", width, nozzleDiameter)}
}

func ExtrusionWidthTooLow(width, nozzleDiameter float64) *Warning {
	return &Warning{WarningExtrusionWidthTooLow, fmt.Sprintf(
		"extrusion width (%g mm) is too low for the nozzle diameter (%g mm)", width, nozzleDiameter)}
}
