// Package config reads service settings from the environment, optionally
// layered over a YAML file named by CONFIG_FILE, and opens the shared
// infrastructure clients.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileEnv = "CONFIG_FILE"

// Source resolves keys from the environment first and the config file second.
// Conversion failures are collected and reported together by Err.
type Source struct {
	file   map[string]string
	lookup func(string) (string, bool)
	errs   []error
}

// Load builds a Source from the process environment and CONFIG_FILE, if set.
func Load() (*Source, error) {
	return load(os.LookupEnv, os.ReadFile)
}

func load(lookup func(string) (string, bool), readFile func(string) ([]byte, error)) (*Source, error) {
	src := &Source{file: map[string]string{}, lookup: lookup}
	path, ok := lookup(FileEnv)
	if !ok || strings.TrimSpace(path) == "" {
		return src, nil
	}
	raw, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	file, err := parseFile(raw)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	src.file = file
	return src, nil
}

// FromMap is a Source backed only by values, used by tests and tools.
func FromMap(values map[string]string) *Source {
	return &Source{
		file:   map[string]string{},
		lookup: func(key string) (string, bool) { v, ok := values[key]; return v, ok },
	}
}

func parseFile(raw []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc))
	for key, value := range doc {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("key %s: nested values are not supported", key)
		default:
			out[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func (s *Source) raw(key string) (string, bool) {
	if v, ok := s.lookup(key); ok && v != "" {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}

func (s *Source) String(key, def string) string {
	if v, ok := s.raw(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (s *Source) Int(key string, def int) int {
	v, ok := s.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (s *Source) Duration(key string, def time.Duration) time.Duration {
	v, ok := s.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

// List splits a comma separated value, dropping blanks.
func (s *Source) List(key string) []string {
	v, ok := s.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Require records an error for every key that has no value.
func (s *Source) Require(keys ...string) {
	for _, key := range keys {
		if _, ok := s.raw(key); !ok {
			s.errs = append(s.errs, fmt.Errorf("%s is required", key))
		}
	}
}

func (s *Source) Err() error {
	return errors.Join(s.errs...)
}
