package display

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var defaultStyles []byte

// ColorDef is an adaptive color definition
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a style definition
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	MarginTop  int    `yaml:"marginTop,omitempty"`
}

// StyleConfig is the styles file
type StyleConfig struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Styles maps semantic names to lipgloss styles
type Styles map[string]lipgloss.Style

// ParseStyles builds Styles from a YAML styles file
func ParseStyles(data []byte) (Styles, error) {
	var cfg StyleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	styles := make(Styles, len(cfg.Styles))
	for name, def := range cfg.Styles {
		s := lipgloss.NewStyle()
		if def.Bold {
			s = s.Bold(true)
		}
		if def.Italic {
			s = s.Italic(true)
		}
		if def.Underline {
			s = s.Underline(true)
		}
		if def.Foreground != "" {
			color, ok := colors[def.Foreground]
			if !ok {
				return nil, fmt.Errorf("style %s uses unknown color %q", name, def.Foreground)
			}
			s = s.Foreground(color)
		}
		if def.MarginTop > 0 {
			s = s.MarginTop(def.MarginTop)
		}
		styles[name] = s
	}
	return styles, nil
}

// DefaultStyles returns the embedded styles
func DefaultStyles() Styles {
	s, err := ParseStyles(defaultStyles)
	if err != nil {
		panic(err)
	}
	return s
}

// Render applies the named style to text. Unknown names render plain.
func (s Styles) Render(name, text string) string {
	if style, ok := s[name]; ok {
		return style.Render(text)
	}
	return text
}
