package core

import (
	"fmt"
	"strings"
)

type JournalConfig struct {
	Enabled bool `koanf:"enabled" mapstructure:"enabled"`
}

type Config struct {
	Name          string        `koanf:"name" mapstructure:"name"`
	BulkChunkSize int           `koanf:"bulk_chunk_size" mapstructure:"bulk_chunk_size"`
	Journal       JournalConfig `koanf:"journal" mapstructure:"journal"`
}

func DefaultConfig() Config {
	return Config{
		Name:          "uow",
		BulkChunkSize: 100,
		Journal:       JournalConfig{Enabled: true},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	if c.BulkChunkSize < 0 {
		return fmt.Errorf("core: bulk_chunk_size must not be negative")
	}
	return nil
}
