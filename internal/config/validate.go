package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateDescribe(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		return errors.New("paths.catalog_path must be set")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.BatchSize < 1 {
		return errors.New("ingest.batch_size must be at least 1")
	}
	if c.Ingest.BatchTimeout < 1 {
		return errors.New("ingest.batch_timeout must be at least 1 second")
	}
	if c.Ingest.SettleDelay < 0 {
		return errors.New("ingest.settle_delay must not be negative")
	}
	if c.Ingest.ShutdownWait < 1 {
		return errors.New("ingest.shutdown_wait must be at least 1 second")
	}
	if len(c.Ingest.Extensions) == 0 {
		return errors.New("ingest.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateDescribe() error {
	if strings.TrimSpace(c.Describe.BaseURL) == "" {
		return errors.New("describe.base_url must be set")
	}
	if c.Describe.SamplingFPS <= 0 {
		return errors.New("describe.sampling_fps must be positive")
	}
	if c.Describe.MaxPixels <= 0 {
		return errors.New("describe.max_pixels must be positive")
	}
	if c.Describe.TimeoutSeconds <= 0 {
		return errors.New("describe.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !c.Transcription.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Transcription.Binary) == "" {
		return errors.New("transcription.binary must be set when transcription.enabled is true")
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
