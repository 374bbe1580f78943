package correctionset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Encode renders the set as indented JSON, or YAML when yamlFormat is set.
func (cs *CorrectionSet) Encode(yamlFormat bool) ([]byte, error) {
	if yamlFormat {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cs); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write persists the set atomically. The format follows the file extension.
func (cs *CorrectionSet) Write(path string) error {
	data, err := cs.Encode(isYAML(path))
	if err != nil {
		return fmt.Errorf("encode corrections: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".corrections-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write corrections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close corrections: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename corrections: %w", err)
	}
	return nil
}

// Load reads a correction set written by Write.
func Load(path string) (*CorrectionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", internalerr.ErrInputMissing, path)
		}
		return nil, err
	}
	return Decode(data, isYAML(path))
}

// Decode parses a correction set document.
func Decode(data []byte, yamlFormat bool) (*CorrectionSet, error) {
	if err := Validate(data, yamlFormat); err != nil {
		return nil, err
	}
	var cs CorrectionSet
	if yamlFormat {
		if err := yaml.Unmarshal(data, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
		}
	} else if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	return &cs, nil
}
