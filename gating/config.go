package gating

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/flowcompass"
	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

// Config describes the manually drawn gates for one panel: the marker
// channels to be combined into boolean subsets, the rectangle gates whose
// boundaries suggest each channel's cutoff, and the parent population within
// which events are counted.
type Config struct {
	ConfigPath string `json:"-" yaml:"-"`

	// Default cutoff strategy for markers that don't set their own
	Strategy string  `json:"strategy" yaml:"strategy"`
	TrimSD   float64 `json:"trim_sd" yaml:"trim_sd"`

	Markers []Marker        `json:"markers" yaml:"markers"`
	Gates   []RectangleGate `json:"gates" yaml:"gates"`
	Parent  *ParentGate     `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// Marker is one channel of interest. Column defaults to Name. An explicit
// Cutoff skips resolution from the rectangle gates.
type Marker struct {
	Name     string   `json:"name" yaml:"name"`
	Column   string   `json:"column,omitempty" yaml:"column,omitempty"`
	Cutoff   *float64 `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
	Strategy string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	TrimSD   float64  `json:"trim_sd,omitempty" yaml:"trim_sd,omitempty"`
}

func (m Marker) column() string {
	if m.Column != "" {
		return m.Column
	}

	return m.Name
}

// RectangleGate bounds a single channel. Either bound may be open.
type RectangleGate struct {
	Name    string   `json:"name" yaml:"name"`
	Channel string   `json:"channel" yaml:"channel"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Contains is inclusive at both bounds. NaN is never contained.
func (g RectangleGate) Contains(value float64) bool {
	if value != value {
		return false
	}
	if g.Min != nil && value < *g.Min {
		return false
	}
	if g.Max != nil && value > *g.Max {
		return false
	}

	return true
}

// ParentGate is the intersection of several rectangle gates, e.g. CD3+CD4+.
type ParentGate struct {
	Name  string          `json:"name" yaml:"name"`
	Gates []RectangleGate `json:"gates" yaml:"gates"`
}

// ParseConfigFromPath reads a gate config. Files ending in .yaml or .yml are
// decoded as YAML; anything else as JSON.
func ParseConfigFromPath(path string) (Config, error) {
	path = flowcompass.ExpandHome(path)

	f, err := os.Open(path)
	if err != nil {
		return Config{ConfigPath: path}, pfx.Err(err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	out, err := ParseConfig(f, ext == ".yaml" || ext == ".yml")
	out.ConfigPath = path

	return out, err
}

// ParseConfig decodes and validates a gate config.
func ParseConfig(r io.Reader, isYAML bool) (Config, error) {
	out := Config{}

	if isYAML {
		if err := yaml.NewDecoder(r).Decode(&out); err != nil {
			return out, pfx.Err(err)
		}
	} else {
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			if e, ok := err.(*json.SyntaxError); ok {
				log.Printf("syntax error at byte offset %d", e.Offset)
			}
			return out, pfx.Err(err)
		}
	}

	return out, out.Validate()
}

// Validate checks the config for problems that would otherwise surface only
// when events are counted.
func (c Config) Validate() error {
	if len(c.Markers) == 0 {
		return fmt.Errorf("Gate config names no markers")
	}

	seen := make(map[string]struct{})
	for i, m := range c.Markers {
		if m.Name == "" {
			return fmt.Errorf("Marker #%d has no name", i)
		}
		if _, exists := seen[m.Name]; exists {
			return fmt.Errorf("Marker %s is listed more than once", m.Name)
		}
		seen[m.Name] = struct{}{}
	}

	gates := c.Gates
	if c.Parent != nil {
		if len(c.Parent.Gates) == 0 {
			return fmt.Errorf("Parent gate %s has no rectangle gates", c.Parent.Name)
		}
		gates = append(append([]RectangleGate(nil), gates...), c.Parent.Gates...)
	}

	for _, g := range gates {
		if g.Channel == "" {
			return fmt.Errorf("Gate %s has no channel", g.Name)
		}
		if g.Min == nil && g.Max == nil {
			return fmt.Errorf("Gate %s on %s has neither a min nor a max", g.Name, g.Channel)
		}
		if g.Min != nil && g.Max != nil && *g.Min > *g.Max {
			return fmt.Errorf("Gate %s on %s has min %g greater than max %g", g.Name, g.Channel, *g.Min, *g.Max)
		}
	}

	return nil
}

// MarkerNames returns the marker names in subset order.
func (c Config) MarkerNames() []string {
	out := make([]string, 0, len(c.Markers))
	for _, m := range c.Markers {
		out = append(out, m.Name)
	}

	return out
}
