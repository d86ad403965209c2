package config

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/cometbft/cometbft/libs/os"
)

// The rendered file must round-trip through viper back into Config: every
// key in the template maps to a mapstructure tag in config.go.
//
//go:embed config.toml.tpl
var defaultConfigTemplate string

var configTemplate = template.Must(template.New("configFile").Parse(defaultConfigTemplate))

// WriteConfigFile renders config into the node's config.toml.
func WriteConfigFile(configFilePath string, config *Config) {
	var buffer bytes.Buffer
	if err := configTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}
	os.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}
