package spec

import (
	"fmt"
	"path/filepath"
	"time"

	"dem-fill-client/core/orchestrator"
	"dem-fill-client/core/poller"

	"gopkg.in/yaml.v3"
)

// RunSpec represents the YAML run definition
type RunSpec struct {
	Run RunSpecRun `yaml:"run"`
}

// RunSpecRun represents the run section of the spec
type RunSpecRun struct {
	Input               string `yaml:"input"`
	Filename            string `yaml:"filename"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	FailureThreshold    int    `yaml:"failure_threshold"`
	SkipUpload          bool   `yaml:"skip_upload"`
}

// ParseRunSpec parses a YAML run specification into run parameters, applying
// the same defaulting rules as the CLI flags. Filename defaults to the
// input's basename; a run that skips upload must name the staged file
// explicitly.
func ParseRunSpec(specYAML string) (orchestrator.RunParams, error) {
	var spec RunSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return orchestrator.RunParams{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	run := spec.Run
	params := orchestrator.RunParams{
		LocalPath:  run.Input,
		Filename:   run.Filename,
		SkipUpload: run.SkipUpload,
		Policy:     poller.DefaultPolicy(),
	}

	if params.Filename == "" {
		if run.Input == "" {
			return orchestrator.RunParams{}, fmt.Errorf("run spec needs input or filename")
		}
		params.Filename = filepath.Base(run.Input)
	}
	if !params.SkipUpload && run.Input == "" {
		return orchestrator.RunParams{}, fmt.Errorf("run spec needs input unless skip_upload is set")
	}

	if run.TimeoutSeconds > 0 {
		params.Policy.MaxWait = time.Duration(run.TimeoutSeconds) * time.Second
	}
	if run.PollIntervalSeconds > 0 {
		params.Policy.Interval = time.Duration(run.PollIntervalSeconds) * time.Second
	}
	if run.FailureThreshold > 0 {
		params.Policy.FailureThreshold = run.FailureThreshold
	}

	return params, nil
}
