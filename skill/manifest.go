package skill

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk skill policy file. It lets deployments enable or
// disable skills and mark destructive tools as confirmation-gated without
// recompiling:
//
//	skills:
//	  blacklist: [shell]
//	  require_confirmation: [delete_file, git_push]
type Manifest struct {
	Skills Policy `yaml:"skills"`
}

// LoadManifest reads and validates a YAML policy manifest. The returned
// policy obeys the same mutual-exclusion rule as programmatic configuration.
func LoadManifest(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read skill manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Policy{}, fmt.Errorf("parse skill manifest %s: %w", path, err)
	}
	if err := m.Skills.Validate(); err != nil {
		return Policy{}, err
	}
	return m.Skills, nil
}
