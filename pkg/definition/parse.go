package definition

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Parse decodes a single definition document. Files ending in .yaml or .yml
// are read as YAML, .json as JSON; any other name tries JSON then YAML. The
// result is validated before it is returned.
func Parse(name string, data []byte) (model.Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.Definition{}, fmt.Errorf("definition: file %s is empty", name)
	}

	var (
		def model.Definition
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &def)
	case ".json":
		err = json.Unmarshal(data, &def)
	default:
		if err = json.Unmarshal(data, &def); err != nil {
			def = model.Definition{}
			err = decodeYAML(data, &def)
		}
	}
	if err != nil {
		return model.Definition{}, fmt.Errorf("definition: parse %s: %w", name, err)
	}

	if err := normalise(&def); err != nil {
		return model.Definition{}, fmt.Errorf("definition: %s: %w", name, err)
	}
	if err := def.Validate(); err != nil {
		return model.Definition{}, fmt.Errorf("definition: %s: %w", name, err)
	}
	return def, nil
}

func decodeYAML(data []byte, def *model.Definition) error {
	if err := yaml.Unmarshal(data, def); err != nil {
		return err
	}
	for idx := range def.Steps {
		step := &def.Steps[idx]
		if len(step.SchemaYAML) == 0 {
			continue
		}
		raw, err := json.Marshal(step.SchemaYAML)
		if err != nil {
			return fmt.Errorf("step %q schema: %w", step.ID, err)
		}
		step.Schema = raw
		step.SchemaYAML = nil
	}
	return nil
}

// normalise trims identifiers and gives anonymous steps a positional id.
func normalise(def *model.Definition) error {
	def.ID = strings.TrimSpace(def.ID)
	def.Endpoint = strings.TrimSpace(def.Endpoint)
	def.Method = strings.ToUpper(strings.TrimSpace(def.Method))
	if len(def.Steps) == 0 {
		return fmt.Errorf("definition %q declares no steps", def.ID)
	}
	for idx := range def.Steps {
		step := &def.Steps[idx]
		step.ID = strings.TrimSpace(step.ID)
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%d", idx+1)
		}
		if strings.TrimSpace(step.Label) == "" {
			step.Label = model.DefaultLabeler(step.ID)
		}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
