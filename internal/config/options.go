package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options configures a blockc run. Every field may be omitted from the
// options file.
type Options struct {
	// Seed initialises the random generator of every context
	Seed uint64 `yaml:"seed,omitempty"`

	// Ticks bounds the number of scheduler slices
	Ticks int `yaml:"ticks,omitempty"`

	// ForceWarp compiles every function without suspend points
	ForceWarp bool `yaml:"force_warp,omitempty"`

	// Color is one of auto, always, never
	Color string `yaml:"color,omitempty"`

	// Dump prints the instruction listing and the compiled blocks
	Dump bool `yaml:"dump,omitempty"`

	// Scripts restricts execution to the named scripts
	Scripts []string `yaml:"scripts,omitempty"`
}

// DefaultOptions returns the options used without an options file
func DefaultOptions() *Options {
	o := &Options{}
	o.setDefaults()
	return o
}

// LoadOptions reads an options file
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses options YAML. path is used in error messages.
func ParseOptions(data []byte, path string) (*Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := o.validate(path); err != nil {
		return nil, err
	}
	o.setDefaults()
	return &o, nil
}

// FindOptions looks for OptionsFileName in dir. It returns "" without an
// error when there is none.
func FindOptions(dir string) (string, error) {
	path := filepath.Join(dir, OptionsFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

func (o *Options) validate(path string) error {
	var errs []string
	if o.Ticks < 0 {
		errs = append(errs, fmt.Sprintf("ticks must not be negative, got %d", o.Ticks))
	}
	switch o.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Sprintf("color must be one of %s, %s, %s, got %q", ColorAuto, ColorAlways, ColorNever, o.Color))
	}
	seen := make(map[string]bool)
	for _, s := range o.Scripts {
		if seen[s] {
			errs = append(errs, fmt.Sprintf("script %q listed twice", s))
		}
		seen[s] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %s", path, strings.Join(errs, "; "))
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Ticks == 0 {
		o.Ticks = DefaultTicks
	}
	if o.Color == "" {
		o.Color = ColorAuto
	}
}

// IsProgramFile checks if a path has a recognized program extension
func IsProgramFile(path string) bool {
	for _, ext := range ProgramFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
