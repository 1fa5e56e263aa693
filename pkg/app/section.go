package app

import (
	"fmt"

	"github.com/smart715/jobsify/pkg/config"
)

// section is one entity type in the picker.
type section struct {
	entity config.Entity
}

func sectionsFromConfig(cfg *config.Config) []section {
	out := make([]section, len(cfg.Entities))
	for i, e := range cfg.Entities {
		out[i] = section{entity: e}
	}
	return out
}

func (s section) Title() string { return s.entity.Name }

func (s section) Description() string {
	d := fmt.Sprintf("%d columns", len(s.entity.Columns))
	if n := len(s.entity.Form); n > 0 {
		d += fmt.Sprintf(" • %d fields", n)
	}
	if s.entity.Reconcile != "" {
		d += " • " + s.entity.Reconcile
	}
	return d
}

func (s section) FilterValue() string { return s.entity.Name + " " + s.entity.DisplayLabel() }
