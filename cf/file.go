package cf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a yaml or toml document, chosen by extension, into a map
// suitable for Load.
func LoadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file [%s]", path)
	}
	return Parse(filepath.Ext(path), data)
}

func Parse(ext string, data []byte) (map[string]interface{}, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dataMap := make(map[interface{}]interface{})
		if err := yaml.Unmarshal(data, &dataMap); err != nil {
			return nil, errors.Wrap(err, "unable to unmarshal yaml")
		}
		return MapIToMapS(dataMap), nil

	case ".toml":
		dataMap := make(map[string]interface{})
		if err := toml.Unmarshal(data, &dataMap); err != nil {
			return nil, errors.Wrap(err, "unable to unmarshal toml")
		}
		return dataMap, nil

	default:
		return nil, errors.Errorf("unsupported config format [%s]", ext)
	}
}
