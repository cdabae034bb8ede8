// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatasetSettings(&settings.Dataset); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDataSettings(&settings.Data); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateFeatureSettings(&settings.Features); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateModelSettings(&settings.Model); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLogSettings(&settings.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatasetSettings(settings *DatasetSettings) error {
	var errs []string

	if settings.Path == "" {
		errs = append(errs, "dataset path must not be empty")
	}
	if settings.Catalog == "" {
		errs = append(errs, "catalog file name must not be empty")
	}
	if settings.BaseIndex < 0 {
		errs = append(errs, fmt.Sprintf("base index must be non-negative, got %d", settings.BaseIndex))
	}

	if len(errs) > 0 {
		return fmt.Errorf("dataset settings errors: %v", errs)
	}
	return nil
}

func validateDataSettings(settings *DataSettings) error {
	var errs []string

	if settings.Path == "" {
		errs = append(errs, "data path must not be empty")
	}
	settings.Format = strings.ToLower(strings.TrimPrefix(settings.Format, "."))
	if !isSupportedClipFormat(settings.Format) {
		errs = append(errs, fmt.Sprintf("clip format must be one of %v, got %q", SupportedClipFormats, settings.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("data settings errors: %v", errs)
	}
	return nil
}

func validateFeatureSettings(settings *FeatureSettings) error {
	var errs []string

	if settings.Path == "" || settings.LabelPath == "" {
		errs = append(errs, "feature and label cache paths must not be empty")
	}
	if settings.Path != "" && settings.Path == settings.LabelPath {
		errs = append(errs, "feature and label cache paths must differ")
	}
	if settings.Workers < 0 {
		errs = append(errs, fmt.Sprintf("workers must be non-negative, got %d", settings.Workers))
	}
	if settings.FrameSize < 64 || settings.FrameSize&(settings.FrameSize-1) != 0 {
		errs = append(errs, fmt.Sprintf("frame size must be a power of two >= 64, got %d", settings.FrameSize))
	}
	if settings.HopSize <= 0 || settings.HopSize > settings.FrameSize {
		errs = append(errs, fmt.Sprintf("hop size must be in (0, framesize], got %d", settings.HopSize))
	}
	if settings.Bands <= 0 {
		errs = append(errs, fmt.Sprintf("bands must be positive, got %d", settings.Bands))
	}

	if len(errs) > 0 {
		return fmt.Errorf("feature settings errors: %v", errs)
	}
	return nil
}

func validateModelSettings(settings *ModelSettings) error {
	var errs []string

	if settings.Path == "" {
		errs = append(errs, "model path must not be empty")
	}
	if settings.Epochs <= 0 {
		errs = append(errs, fmt.Sprintf("epochs must be positive, got %d", settings.Epochs))
	}
	if settings.LearningRate <= 0 {
		errs = append(errs, fmt.Sprintf("learning rate must be positive, got %g", settings.LearningRate))
	}
	if settings.L2 < 0 {
		errs = append(errs, fmt.Sprintf("l2 must be non-negative, got %g", settings.L2))
	}

	if len(errs) > 0 {
		return fmt.Errorf("model settings errors: %v", errs)
	}
	return nil
}

func validateLogSettings(settings *LogSettings) error {
	switch strings.ToLower(settings.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got %q", settings.Level)
	}
}
