package model

import (
	"encoding/json"
	"fmt"

	"github.com/tphakala/esc50-go/internal/dataset"
	"github.com/tphakala/esc50-go/internal/errors"
)

// LabelsAttr is the model attribute holding the JSON encoded class list.
const LabelsAttr = "labels"

// SaveLabels stamps the model file with the current class directory
// listing of dataDir. Index i of the list names model output class i.
func SaveLabels(modelPath, dataDir string) ([]string, error) {
	labels, err := dataset.ClassDirectories(dataDir)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(labels)
	if err != nil {
		return nil, errors.New(err).
			Component("model").
			Category(errors.CategoryModelSave).
			Build()
	}

	if err := SetAttr(modelPath, LabelsAttr, string(encoded)); err != nil {
		return nil, err
	}
	return labels, nil
}

// LoadLabels returns the class list stored with the model. A model without
// the attribute yields a nil list and no error.
func LoadLabels(modelPath string) ([]string, error) {
	value, ok, err := Attr(modelPath, LabelsAttr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var labels []string
	if err := json.Unmarshal([]byte(value), &labels); err != nil {
		return nil, errors.New(fmt.Errorf("invalid %q attribute: %w", LabelsAttr, err)).
			Component("model").
			Category(errors.CategoryLabelLoad).
			FileContext(modelPath).
			Build()
	}
	return labels, nil
}
