package detector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
	"gopkg.in/yaml.v3"
)

// Manifest is a recorded detection: the tokens of one photo plus an
// optional expected trace or level for verification
type Manifest struct {
	Tokens   []token.Token `json:"tokens" yaml:"tokens"`
	Expected string        `json:"expected,omitempty" yaml:"expected,omitempty"`
	Level    string        `json:"level,omitempty" yaml:"level,omitempty"`
}

// LoadManifest reads a manifest file; the format follows the extension
// (.json, .yaml, .yml)
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mdwerror.Wrap(err, "manifest not found").
				WithCode(mdwerror.CodeNotFound).
				WithDetail("path", path)
		}
		return nil, mdwerror.Wrap(err, "failed to read manifest").WithCode(mdwerror.CodeInternal)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	m, err := ParseManifest(data, format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse manifest").WithDetail("path", path)
	}
	return m, nil
}

// ParseManifest decodes a manifest. A bare token list is accepted in place
// of the full object. format is "json", "yaml" or "yml".
func ParseManifest(data []byte, format string) (*Manifest, error) {
	var (
		m   Manifest
		err error
	)
	switch format {
	case "json":
		err = decodeJSON(data, &m)
	case "yaml", "yml":
		err = decodeYAML(data, &m)
	default:
		return nil, mdwerror.Newf("unsupported manifest format %q", format).
			WithCode(mdwerror.CodeInvalidFormat)
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "invalid manifest").WithCode(mdwerror.CodeInvalidFormat)
	}

	for i, tok := range m.Tokens {
		if err := tok.Validate(); err != nil {
			return nil, mdwerror.Wrap(err, fmt.Sprintf("invalid token %d", i)).
				WithCode(mdwerror.CodeValidationFailed).
				WithDetail("index", i)
		}
	}
	return &m, nil
}

func decodeJSON(data []byte, m *Manifest) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &m.Tokens)
	}
	return json.Unmarshal(data, m)
}

func decodeYAML(data []byte, m *Manifest) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		return node.Content[0].Decode(&m.Tokens)
	}
	return node.Decode(m)
}

// Save writes the manifest as JSON or YAML according to the extension
func (m *Manifest) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m)
	default:
		data, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return mdwerror.Wrap(err, "failed to encode manifest").WithCode(mdwerror.CodeInternal)
	}
	return os.WriteFile(path, data, 0644)
}
