package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/config/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

// ValidateAgainstSchema compiles schemaBytes under name and validates the
// JSON document data against it. ref selects a sub-schema ("#/definitions/x");
// empty validates against the root.
func ValidateAgainstSchema(name string, schemaBytes, data []byte, ref string) error {
	if strings.Contains(name, "#") {
		return fmt.Errorf("invalid schema name %q", name)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	url := name
	if ref != "" {
		if !strings.HasPrefix(ref, "#") {
			ref = "#" + ref
		}
		url += ref
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", url, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation against %s failed: %w", name, err)
	}
	return nil
}

// ValidateRepodataJSON validates a conda repodata.json document.
func ValidateRepodataJSON(data []byte) error {
	return ValidateAgainstSchema("conda-repodata.schema.json", schema.RepodataSchema, data, "")
}

// ValidatePackageIndexJSON validates a native package index document.
func ValidatePackageIndexJSON(data []byte) error {
	return ValidateAgainstSchema("package-index.schema.json", schema.PackageIndexSchema, data, "")
}

// ValidatePackageIndexYAML converts a YAML package index to JSON and
// validates it. The JSON form is returned for decoding.
func ValidatePackageIndexYAML(data []byte) ([]byte, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := ValidatePackageIndexJSON(js); err != nil {
		return nil, err
	}
	return js, nil
}

// ValidateConfigJSON validates the global configuration document.
func ValidateConfigJSON(data []byte) error {
	return ValidateAgainstSchema("os-package-search-config.schema.json", schema.ConfigSchema, data, "")
}

// ValidateConfigYAML validates a YAML configuration file. An empty file is
// accepted.
func ValidateConfigYAML(data []byte) error {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if trimmed := bytes.TrimSpace(js); len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	return ValidateConfigJSON(js)
}
