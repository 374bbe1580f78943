package config

import (
	"fmt"

	"github.com/cognicore/ocrfix/pkg/ocrfix/classify"
)

// Loader loads the correction tables and constructs the classifier
type Loader struct {
	TablesPath string
	// Replace discards the built-in tables instead of extending them.
	Replace bool
}

// Components holds all loaded configuration components
type Components struct {
	Tables     Tables
	Classifier *classify.Classifier
}

// Load reads the tables file (if any) and returns initialized components
func (l *Loader) Load() (*Components, error) {
	tables := DefaultTables()

	if l.TablesPath != "" {
		loaded, err := LoadTables(l.TablesPath)
		if err != nil {
			return nil, fmt.Errorf("load tables: %w", err)
		}
		if l.Replace {
			tables = Tables{}.Merge(*loaded)
		} else {
			tables = tables.Merge(*loaded)
		}
	}

	classifier, err := classify.NewClassifier(tables.GarbagePatterns, tables.PreserveTerms)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	return &Components{Tables: tables, Classifier: classifier}, nil
}
