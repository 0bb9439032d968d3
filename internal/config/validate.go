package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/curator/config.toml"
		}
		return fmt.Errorf("paths.library_dir is required. Set CURATOR_LIBRARY_DIR or edit %s (create with 'curator config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog.base_url must be an absolute URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return errors.New("catalog.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if (c.Media.IntroTimestamp == "") != (c.Media.OtherTimestamp == "") {
		return errors.New("media.intro_timestamp and media.other_timestamp must be set together")
	}
	tag, err := language.Parse(c.Media.MetadataLanguage)
	if err != nil {
		return fmt.Errorf("media.metadata_language %q: %w", c.Media.MetadataLanguage, err)
	}
	if base, confidence := tag.Base(); confidence == language.No || base.String() == "und" {
		return fmt.Errorf("media.metadata_language %q is not a recognised language", c.Media.MetadataLanguage)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.Host == "" {
		return errors.New("publish.host must be set when publish.enabled is true")
	}
	if c.Publish.User == "" {
		return errors.New("publish.user must be set when publish.enabled is true")
	}
	if c.Publish.Password == "" {
		return errors.New("publish.password must be set when publish.enabled is true (or set CURATOR_SFTP_PASSWORD)")
	}
	if c.Publish.Port <= 0 || c.Publish.Port > 65535 {
		return errors.New("publish.port must be between 1 and 65535")
	}
	return nil
}
