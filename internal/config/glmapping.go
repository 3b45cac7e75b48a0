package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"settlement-ledger-backend/internal/services/engine"
)

// LoadGLMapping reads the GL account name to external ledger account id
// mapping. The engine treats the mapping as opaque; accounts missing from it
// surface in the reconciliation report rather than failing the run.
func LoadGLMapping() (engine.GLMapping, error) {
	path := envOr("GL_MAPPING_FILE", "config/gl_mapping.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			GetLogger().WithField("path", path).
				Warn("GL mapping file not found, all accounts will report as unmapped")
			return engine.GLMapping{}, nil
		}
		return nil, err
	}

	var doc struct {
		Accounts map[string]string `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return engine.GLMapping(doc.Accounts), nil
}
