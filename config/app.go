package config

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig is one entry of the app roster: the kind name plus whatever
// options that kind understands.
type AppConfig struct {
	Kind    string
	Options yaml.Node
}

func NewAppConfig(kind string, options map[string]interface{}) (AppConfig, error) {
	app := AppConfig{Kind: kind, Options: yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
	if len(options) == 0 {
		return app, nil
	}

	err := app.Options.Encode(options)
	if err != nil {
		return AppConfig{}, errors.Wrapf(err, "failed to encode options of %s", kind)
	}

	return app, nil
}

func (a *AppConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: app entry must be a mapping", value.Line)
	}

	options := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: value.Line}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if key.Value == "name" {
			a.Kind = val.Value
			continue
		}

		options.Content = append(options.Content, key, val)
	}

	a.Options = options
	return nil
}

// Decode fills v from the entry's options. Keys v does not declare are an
// error so a typo in the config does not go unnoticed.
func (a AppConfig) Decode(v interface{}) error {
	if len(a.Options.Content) == 0 {
		return nil
	}

	raw, err := yaml.Marshal(&a.Options)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	err = decoder.Decode(v)
	if err != nil {
		return errors.Wrapf(err, "invalid options for %s", a.Kind)
	}

	return nil
}
