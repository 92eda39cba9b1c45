// Package configloader reads the YAML files that tune the AI layer
// (persona overrides, classifier keyword tables).
package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader resolves files relative to a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a new configuration loader.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Load reads one YAML file and unmarshals it into target.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", subPath, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", subPath, err)
	}
	return nil
}

// LoadDir decodes every *.yaml / *.yml file of subDir into a fresh T, keyed
// by file name without extension. A missing directory yields an empty map.
func LoadDir[T any](l *Loader, subDir string) (map[string]*T, error) {
	dirPath := filepath.Join(l.baseDir, subDir)

	entries, err := os.ReadDir(dirPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dirPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	result := make(map[string]*T, len(names))
	for _, name := range names {
		target := new(T)
		if err := l.Load(filepath.Join(subDir, name), target); err != nil {
			return nil, err
		}
		result[strings.TrimSuffix(name, filepath.Ext(name))] = target
	}
	return result, nil
}

// ReadFileWithFallback tries to read file from path relative to baseDir,
// then falls back to executable directory for production builds.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	absPath := filepath.Join(l.baseDir, path)
	data, err := os.ReadFile(absPath)
	if err == nil {
		return data, nil
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}

	execAbsPath := filepath.Join(filepath.Dir(execPath), l.baseDir, path)
	data, fallbackErr := os.ReadFile(execAbsPath)
	if fallbackErr != nil {
		return nil, err
	}
	return data, nil
}
