package definition

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed machines/*.yaml
var builtins embed.FS

// ErrUnknownMachine is returned by Builtin for names that are not embedded.
var ErrUnknownMachine = errors.New("unknown machine")

// Definition is a machine file.
type Definition struct {
	Name        string `yaml:"name" json:"name" mapstructure:"name"`
	Description string `yaml:"description" json:"description,omitempty" mapstructure:"description"`
	Start       string `yaml:"start" json:"start" mapstructure:"start"`
	Accept      string `yaml:"accept" json:"accept,omitempty" mapstructure:"accept"`
	Reject      string `yaml:"reject" json:"reject,omitempty" mapstructure:"reject"`
	StepLimit   int    `yaml:"step_limit" json:"step_limit,omitempty" mapstructure:"step_limit"`
	Input       string `yaml:"input" json:"input,omitempty" mapstructure:"input"`
	Rules       string `yaml:"rules" json:"rules" mapstructure:"rules"`
}

// Request builds an engine request over input. An empty input is the empty
// tape.
func (d *Definition) Request(input string) domain.Request {
	return domain.Request{Rules: d.Rules, StartState: d.Start, Input: input}
}

// SampleRequest runs the machine on the input its file ships with.
func (d *Definition) SampleRequest() domain.Request {
	return d.Request(d.Input)
}

// EffectiveStepLimit is override when positive, else the file's step_limit
// when positive, else fallback.
func (d *Definition) EffectiveStepLimit(override, fallback int) int {
	switch {
	case override > 0:
		return override
	case d.StepLimit > 0:
		return d.StepLimit
	}
	return fallback
}

// Validate checks the fields the engine cannot default.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Rules) == "" {
		return fmt.Errorf("definition %q: rules are empty", d.Name)
	}
	if d.StepLimit < 0 {
		return fmt.Errorf("definition %q: %w", d.Name, domain.ErrInvalidStepLimit)
	}
	return nil
}

// Load reads a machine file. .yaml/.yml and .json are structured; any other
// extension is treated as bare rule text named after the file.
func Load(filePath string) (*Definition, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return Parse(name, filepath.Ext(filePath), data)
}

// Parse decodes data according to ext (including the dot).
func Parse(name, ext string, data []byte) (*Definition, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s%s: %w", name, ext, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s%s: %w", name, ext, err)
		}
	default:
		return &Definition{Name: name, Rules: string(data)}, nil
	}

	def, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid machine file %s%s: %w", name, ext, err)
	}
	if def.Name == "" {
		def.Name = name
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Decode maps a generic document onto a Definition. Unknown keys are errors.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &def, nil
}

// Builtin returns an embedded sample machine by name.
func Builtin(name string) (*Definition, error) {
	data, err := builtins.ReadFile(path.Join("machines", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMachine, name)
		}
		return nil, err
	}
	return Parse(name, ".yaml", data)
}

// Builtins lists the embedded machine names.
func Builtins() []string {
	entries, _ := fs.ReadDir(builtins, "machines")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads ref as a builtin name when no such file exists.
func Resolve(ref string) (*Definition, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	if def, err := Builtin(ref); err == nil {
		return def, nil
	}
	return Load(ref)
}
