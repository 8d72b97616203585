package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"breakfit/domain/fit"
	"breakfit/internal/errors"
)

// profilesFile is the YAML layout of PROFILES_FILE:
//
//	profiles:
//	  - name: conservative
//	    description: Few segments, gross outliers only
//	    config:
//	      complexity_penalty: 50
//	      max_breaks: 4
//	      outlier_threshold: 4
//	      plot_results: false
type profilesFile struct {
	Profiles []fit.Profile `yaml:"profiles"`
}

// LoadProfiles reads named profiles from a YAML file
func LoadProfiles(path string) (map[string]fit.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read profiles file: %w", err))
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates profile definitions. Unknown keys
// are rejected so misspelled settings do not pass unnoticed.
func ParseProfiles(data []byte) (map[string]fit.Profile, error) {
	var file profilesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse profiles: %w", err))
	}

	out := make(map[string]fit.Profile, len(file.Profiles))
	for i, p := range file.Profiles {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("profile %d has no name", i))
		}
		if _, dup := out[p.Name]; dup {
			return nil, errors.ConfigInvalid(fmt.Sprintf("profile %q defined twice", p.Name))
		}
		if err := p.Config.Validate(); err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("profile %q: %v", p.Name, err))
		}
		out[p.Name] = p
	}
	return out, nil
}
