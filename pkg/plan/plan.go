// Package plan reads declarative capture plans.
//
// A plan names the resources a snapshot should contain. It can be written
// in YAML or TOML; the format is chosen from the file extension:
//
//	description: before gaming tweaks
//	registry:
//	  - {root: HKLM, path: 'SOFTWARE\Contoso', name: Level}
//	services: [SysMain, WSearch]
//	power:
//	  - {type: active-scheme, args: [/getactivescheme]}
//	network:
//	  settings: [TcpAckFrequency, TCPNoDelay]
//	  system: [NetworkThrottlingIndex]
//	dns: all
//	tcpip: [autotuninglevel]
//	files: ['C:\Windows\System32\drivers\etc\hosts']
package plan

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a plan file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Newf(errors.ErrPlanInvalid, "unsupported plan file %q (use .yaml, .yml or .toml)", path).
		WithDetail("path", path)
}

// RegistryItem names one registry value
type RegistryItem struct {
	Root string `yaml:"root" toml:"root"`
	Path string `yaml:"path" toml:"path"`
	Name string `yaml:"name" toml:"name"`
}

// PowerItem names one power query
type PowerItem struct {
	Type string   `yaml:"type" toml:"type"`
	Args []string `yaml:"args" toml:"args"`
}

// NetworkItem lists per-interface and machine-wide network parameters
type NetworkItem struct {
	// Settings are captured on every interface
	Settings []string `yaml:"settings" toml:"settings"`
	System   []string `yaml:"system" toml:"system"`
}

// DNSTarget is either every up adapter or a list of interface aliases
type DNSTarget struct {
	All        bool
	Interfaces []string
}

// Empty reports whether no DNS capture was requested
func (d DNSTarget) Empty() bool {
	return !d.All && len(d.Interfaces) == 0
}

// Plan is a validated capture plan
type Plan struct {
	Description string
	// Parallel captures independent resource groups concurrently
	Parallel bool
	Registry []adapters.RegistryID
	Services []string
	Power    []adapters.PowerID
	Network  NetworkItem
	DNS      DNSTarget
	TcpIp    []string
	Files    []string
}

// Size is the number of explicitly named resources. Expanding entries
// (all DNS adapters, every interface) count once.
func (p *Plan) Size() int {
	n := len(p.Registry) + len(p.Services) + len(p.Power) + len(p.Network.System) +
		len(p.TcpIp) + len(p.Files) + len(p.DNS.Interfaces)
	if len(p.Network.Settings) > 0 {
		n++
	}
	if p.DNS.All {
		n++
	}
	return n
}

type document struct {
	Description string         `yaml:"description" toml:"description"`
	Parallel    bool           `yaml:"parallel" toml:"parallel"`
	Registry    []RegistryItem `yaml:"registry" toml:"registry"`
	Services    []string       `yaml:"services" toml:"services"`
	Power       []PowerItem    `yaml:"power" toml:"power"`
	Network     NetworkItem    `yaml:"network" toml:"network"`
	DNS         any            `yaml:"dns" toml:"dns"`
	TcpIp       []string       `yaml:"tcpip" toml:"tcpip"`
	Files       []string       `yaml:"files" toml:"files"`
}

// Parse decodes and validates a plan. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Plan, error) {
	var doc document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, errors.ErrPlanInvalid, "failed to parse YAML plan")
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrPlanInvalid, "failed to parse TOML plan")
		}
	default:
		return nil, errors.Newf(errors.ErrPlanInvalid, "unknown plan format %q", format)
	}
	return doc.validate()
}

// Load reads the plan at path from fsys
func Load(fsys types.FS, path string) (*Plan, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPlanInvalid, "failed to read plan %s", path).
			WithDetail("path", path)
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	logger := logging.GetLogger("plan")
	logger.Debug().
		Str("path", path).
		Int("resources", p.Size()).
		Bool("parallel", p.Parallel).
		Msg("Plan loaded")
	return p, nil
}

func (d *document) validate() (*Plan, error) {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	p := &Plan{
		Description: strings.TrimSpace(d.Description),
		Parallel:    d.Parallel,
		Network:     d.Network,
	}

	for i, item := range d.Registry {
		root, err := types.ParseRoot(item.Root)
		if err != nil {
			bad("registry[%d]: unknown root %q", i, item.Root)
			continue
		}
		if strings.TrimSpace(item.Path) == "" {
			bad("registry[%d]: path is required", i)
			continue
		}
		p.Registry = append(p.Registry, adapters.RegistryID{Root: root, Path: item.Path, Name: item.Name})
	}

	for i, name := range d.Services {
		if strings.TrimSpace(name) == "" {
			bad("services[%d]: name is required", i)
			continue
		}
		p.Services = append(p.Services, name)
	}

	for i, item := range d.Power {
		if strings.TrimSpace(item.Type) == "" {
			bad("power[%d]: type is required", i)
			continue
		}
		id := adapters.PowerID{Type: item.Type, Args: item.Args}
		if len(id.Args) == 0 {
			id.Args = adapters.DefaultPowerQuery
		}
		p.Power = append(p.Power, id)
	}

	lists := []struct {
		name   string
		values []string
	}{
		{"network.settings", d.Network.Settings},
		{"network.system", d.Network.System},
		{"tcpip", d.TcpIp},
		{"files", d.Files},
	}
	for _, l := range lists {
		for i, v := range l.values {
			if strings.TrimSpace(v) == "" {
				bad("%s[%d]: empty entry", l.name, i)
			}
		}
	}
	p.TcpIp = d.TcpIp
	p.Files = d.Files

	switch v := d.DNS.(type) {
	case nil:
	case string:
		if !strings.EqualFold(v, "all") {
			bad("dns: expected \"all\" or a list of interfaces, got %q", v)
		}
		p.DNS.All = true
	case []any:
		for i, e := range v {
			s, ok := e.(string)
			if !ok || strings.TrimSpace(s) == "" {
				bad("dns[%d]: expected an interface name", i)
				continue
			}
			p.DNS.Interfaces = append(p.DNS.Interfaces, s)
		}
	default:
		bad("dns: expected \"all\" or a list of interfaces")
	}

	if len(problems) > 0 {
		return nil, errors.Newf(errors.ErrPlanInvalid, "invalid plan: %s", strings.Join(problems, "; ")).
			WithDetail("problems", problems)
	}
	if p.Size() == 0 {
		return nil, errors.New(errors.ErrPlanInvalid, "plan does not name any resources")
	}
	return p, nil
}
