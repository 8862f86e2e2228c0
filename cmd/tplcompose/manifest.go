package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplcompose/pkg/compose"
)

// manifest is the YAML document consumed by the batch command.
type manifest struct {
	BaseDir     string        `yaml:"base_dir"`
	Concurrency int           `yaml:"concurrency"`
	Jobs        []manifestJob `yaml:"jobs"`
}

type manifestJob struct {
	Name        string            `yaml:"name"`
	Template    string            `yaml:"template"`
	Content     string            `yaml:"content"`
	Placeholder string            `yaml:"placeholder"`
	Output      string            `yaml:"output"`
	Tokens      map[string]any    `yaml:"tokens"`
	Partials    map[string]string `yaml:"partials"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, errors.New("manifest: no jobs defined")
	}
	for i := range m.Jobs {
		if strings.TrimSpace(m.Jobs[i].Name) == "" {
			m.Jobs[i].Name = fmt.Sprintf("job-%d", i+1)
		}
	}
	return &m, nil
}

// jobs converts manifest entries into compose jobs, reading partial files
// relative to baseDir.
func (m *manifest) jobs(baseDir string) ([]compose.Job, error) {
	out := make([]compose.Job, 0, len(m.Jobs))
	for _, job := range m.Jobs {
		partials, err := loadPartials(baseDir, job.Partials)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
		out = append(out, compose.Job{
			Name:           job.Name,
			TemplatePath:   job.Template,
			ContentPath:    job.Content,
			PlaceholderKey: job.Placeholder,
			Tokens:         compose.Tokens(job.Tokens),
			Partials:       partials,
		})
	}
	return out, nil
}
