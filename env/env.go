//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements the configuration environment of the
// oblivious computation system.
package env

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/markkurossi/obliv/share"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// DefaultWidth defines the default bit width of the input values.
const DefaultWidth = 32

// Config defines the system configuration. Config must not be
// modified after being passed to any module. It is safe for
// concurrent use by multiple modules as they do not modify it.
type Config struct {
	Rand   io.Reader       `yaml:"-"`
	Logger *zerolog.Logger `yaml:"-"`

	// Protocol names the secure computation protocol.
	Protocol string `yaml:"protocol"`

	// Width specifies the bit width of the input values.
	Width int `yaml:"width"`

	// Dealer specifies the commodity server address.
	Dealer string `yaml:"dealer"`

	// Parties list the computing party addresses, indexed by party
	// ID.
	Parties []string `yaml:"parties"`

	// Datasets list the public dataset sizes of the parties.
	Datasets []int `yaml:"datasets"`

	// Grid defines the auction price grid.
	Grid Grid `yaml:"grid"`
}

// Grid defines a public price grid Low, Low+Step, ...,
// Low+(Size-1)*Step.
type Grid struct {
	Low  uint64 `yaml:"low"`
	Step uint64 `yaml:"step"`
	Size int    `yaml:"size"`
}

// Load loads the configuration from the YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("config: %w", err)
	}
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, xerrors.Errorf("config %s: %v: %w", path, err,
			share.ErrConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, xerrors.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the configuration and sets default values for
// unset optional fields.
func (config *Config) Validate() error {
	if len(config.Protocol) == 0 {
		config.Protocol = share.GMW.String()
	}
	if _, err := share.ParseProtocol(config.Protocol); err != nil {
		return err
	}
	if config.Width == 0 {
		config.Width = DefaultWidth
	}
	if config.Width < 1 || config.Width > share.MaxWidth {
		return xerrors.Errorf("invalid width %d: %w", config.Width,
			share.ErrConfiguration)
	}
	if len(config.Parties) == 1 {
		return xerrors.Errorf("at least 2 parties required: %w",
			share.ErrConfiguration)
	}
	if len(config.Datasets) > 0 && len(config.Parties) > 0 &&
		len(config.Datasets) != len(config.Parties) {
		return xerrors.Errorf("%d datasets for %d parties: %w",
			len(config.Datasets), len(config.Parties),
			share.ErrConfiguration)
	}
	for idx, size := range config.Datasets {
		if size < 0 {
			return xerrors.Errorf("dataset %d: invalid size %d: %w",
				idx, size, share.ErrConfiguration)
		}
	}
	if config.Grid.Step == 0 {
		config.Grid.Step = 1
	}
	if config.Grid.Size < 0 {
		return xerrors.Errorf("invalid grid size %d: %w", config.Grid.Size,
			share.ErrConfiguration)
	}
	return nil
}

// GetRandom returns the source of entropy for shares and dealer
// seeds.
func (config *Config) GetRandom() io.Reader {
	if config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the logger of the configuration.
func (config *Config) GetLogger() zerolog.Logger {
	if config.Logger != nil {
		return *config.Logger
	}
	return log.Logger
}
