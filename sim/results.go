package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ResultsFile is written under <out>/<actor>/.
	ResultsFile = "results.yaml"
	// ConfigFile is written under <out>/.
	ConfigFile = "config.yaml"
)

// WriteResults stores res as YAML at <dir>/<actor>/results.yaml and returns
// the path.
func WriteResults(dir string, res *ActorResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("sim: nil result")
	}

	return writeYAML(filepath.Join(dir, res.Actor, ResultsFile), res)
}

// WriteConfig stores the effective configuration next to the results.
func WriteConfig(dir string, cfg any) (string, error) {
	return writeYAML(filepath.Join(dir, ConfigFile), cfg)
}

// ReadResults loads a file written by WriteResults.
func ReadResults(path string) (*ActorResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res ActorResult
	if err = yaml.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("sim: decode %s: %w", path, err)
	}

	return &res, nil
}

func writeYAML(path string, v any) (string, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sim: encode %s: %w", path, err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err = os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}

	return path, nil
}
