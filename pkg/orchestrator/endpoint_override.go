package orchestrator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

// EndpointConfig describes where a choice field loads its options from. Zero
// values are omitted when converted to metadata.
type EndpointConfig struct {
	URL         string
	Method      string
	LabelField  string
	ValueField  string
	ResultsPath string
	QueryParam  string
	Params      map[string]string
}

// EndpointOverride supplies option endpoint metadata for a field whose
// definition does not declare one.
type EndpointOverride struct {
	DefinitionID string
	FieldPath    string
	Endpoint     EndpointConfig
}

// WithEndpointOverrides registers endpoint overrides applied right after the
// definition is resolved. Overrides are scoped per definition and only applied
// when the target field has neither a search URL nor endpoint metadata.
func WithEndpointOverrides(overrides []EndpointOverride) Option {
	cloned := cloneEndpointOverrides(overrides)
	return func(o *Orchestrator) {
		if len(cloned) == 0 || o == nil {
			return
		}

		if o.endpointOverrides == nil {
			o.endpointOverrides = make(map[string][]EndpointOverride)
		}

		for _, override := range cloned {
			if err := validateEndpointOverride(override); err != nil {
				o.initialiseErr = errors.Join(o.initialiseErr, err)
				continue
			}
			o.endpointOverrides[override.DefinitionID] = append(o.endpointOverrides[override.DefinitionID], override)
		}
	}
}

func cloneEndpointOverrides(overrides []EndpointOverride) []EndpointOverride {
	if len(overrides) == 0 {
		return nil
	}
	cloned := make([]EndpointOverride, 0, len(overrides))
	for _, override := range overrides {
		copied := override
		if len(override.Endpoint.Params) > 0 {
			copied.Endpoint.Params = make(map[string]string, len(override.Endpoint.Params))
			for key, value := range override.Endpoint.Params {
				copied.Endpoint.Params[key] = value
			}
		}
		cloned = append(cloned, copied)
	}
	return cloned
}

func validateEndpointOverride(override EndpointOverride) error {
	if strings.TrimSpace(override.DefinitionID) == "" {
		return errors.New("orchestrator: endpoint override missing definition id")
	}
	if strings.TrimSpace(override.FieldPath) == "" {
		return fmt.Errorf("orchestrator: endpoint override %q missing field path", override.DefinitionID)
	}
	if strings.TrimSpace(override.Endpoint.URL) == "" {
		return fmt.Errorf("orchestrator: endpoint override %q for %s missing endpoint url", override.DefinitionID, override.FieldPath)
	}
	return nil
}

func (o *Orchestrator) applyEndpointOverrides(def *model.Definition) {
	overrides := o.endpointOverrides[def.ID]
	if len(overrides) == 0 {
		return
	}

	for _, override := range overrides {
		target := locateField(def, override.FieldPath)
		if target == nil {
			o.logger.Warn("endpoint override target not found",
				zap.String("definition", def.ID), zap.String("field", override.FieldPath))
			continue
		}
		if target.SearchURL != "" || hasEndpointMetadata(target.Metadata) {
			continue
		}
		target.Metadata = mergeStringMap(target.Metadata, flattenEndpointConfig(override.Endpoint))
	}
}

// locateField resolves a dotted path against every step of the definition.
func locateField(def *model.Definition, path string) *model.Field {
	segments := strings.Split(path, ".")
	for idx := range def.Steps {
		if field := walkFieldsByPath(def.Steps[idx].Fields, segments); field != nil {
			return field
		}
	}
	return nil
}

func walkFieldsByPath(fields []model.Field, segments []string) *model.Field {
	if len(segments) == 0 {
		return nil
	}
	for idx := range fields {
		field := &fields[idx]
		if field.Name != segments[0] {
			continue
		}
		if len(segments) == 1 {
			return field
		}
		return walkFieldsByPath(field.Nested, segments[1:])
	}
	return nil
}

func hasEndpointMetadata(metadata map[string]string) bool {
	for key := range metadata {
		if strings.HasPrefix(key, "options.endpoint.") {
			return true
		}
	}
	return false
}

func flattenEndpointConfig(cfg EndpointConfig) map[string]string {
	meta := make(map[string]string)

	add := func(key, value string) {
		if value == "" {
			return
		}
		meta[key] = value
	}

	add(options.MetaEndpointURL, strings.TrimSpace(cfg.URL))
	add(options.MetaEndpointMethod, strings.ToUpper(strings.TrimSpace(cfg.Method)))
	add(options.MetaLabelField, strings.TrimSpace(cfg.LabelField))
	add(options.MetaValueField, strings.TrimSpace(cfg.ValueField))
	add(options.MetaResultsPath, strings.TrimSpace(cfg.ResultsPath))
	add(options.MetaQueryParam, strings.TrimSpace(cfg.QueryParam))

	keys := make([]string, 0, len(cfg.Params))
	for key := range cfg.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		add(options.MetaParamPrefix+key, cfg.Params[key])
	}
	return meta
}
