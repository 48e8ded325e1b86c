package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/capigiba/ADS/internal/domain"
	"github.com/capigiba/ADS/internal/usecase"
)

type skillsYAML struct {
	Entries []skillsYAMLEntry `yaml:"entries"`
}

type skillsYAMLEntry struct {
	JobTitle string   `yaml:"job_title"`
	Skills   []string `yaml:"skills"`
	Active   *bool    `yaml:"active"`
}

// seedSkillsFromYAML upserts the skill library from a YAML file at startup.
// Upserts are idempotent, so reseeding on every boot is safe.
func seedSkillsFromYAML(ctx domain.Context, svc usecase.SkillService, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("seed file not found: %s", path)
		}
		return err
	}
	var doc skillsYAML
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("yaml parse: %w", err)
	}
	if len(doc.Entries) == 0 {
		// Also accept a bare map of title to skills.
		var m map[string][]string
		if err := yaml.Unmarshal(b, &m); err == nil {
			for title, skills := range m {
				doc.Entries = append(doc.Entries, skillsYAMLEntry{JobTitle: title, Skills: skills})
			}
		}
	}
	if len(doc.Entries) == 0 {
		return fmt.Errorf("no entries to seed in %s", path)
	}

	seeded := 0
	for _, e := range doc.Entries {
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		if _, err := svc.Upsert(ctx, e.JobTitle, e.Skills, active); err != nil {
			slog.Warn("skipping skill seed entry", slog.String("job_title", e.JobTitle), slog.Any("error", err))
			continue
		}
		seeded++
	}
	slog.Info("skill library seeded", slog.Int("entries", seeded), slog.String("file", path))
	return nil
}
