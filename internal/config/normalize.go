package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeClassification()
	c.normalizeMedia()
	c.normalizeStaging()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		if value, ok := os.LookupEnv("CURATOR_LIBRARY_DIR"); ok {
			c.Paths.LibraryDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.LibraryDir, err = expandPath(strings.TrimSpace(c.Paths.LibraryDir)); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultCatalogUserAgent
	}
	if c.Catalog.TimeoutSeconds == 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
}

func (c *Config) normalizeClassification() {
	keywords := make([]string, 0, len(c.Classification.DocumentKeywords))
	seen := make(map[string]struct{}, len(c.Classification.DocumentKeywords))
	for _, keyword := range c.Classification.DocumentKeywords {
		normalized := strings.ToLower(strings.TrimSpace(keyword))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		keywords = append(keywords, normalized)
	}
	c.Classification.DocumentKeywords = keywords
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.IntroTimestamp = strings.TrimSpace(c.Media.IntroTimestamp)
	c.Media.OtherTimestamp = strings.TrimSpace(c.Media.OtherTimestamp)
	c.Media.MetadataLanguage = strings.ToLower(strings.TrimSpace(c.Media.MetadataLanguage))
	if c.Media.MetadataLanguage == "" {
		c.Media.MetadataLanguage = defaultMetadataLanguage
	}
}

func (c *Config) normalizeStaging() {
	exts := make([]string, 0, len(c.Staging.KeptExtensions))
	for _, ext := range c.Staging.KeptExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Staging.KeptExtensions = exts
}

func (c *Config) normalizePublish() error {
	c.Publish.Host = strings.TrimSpace(c.Publish.Host)
	c.Publish.User = strings.TrimSpace(c.Publish.User)
	if c.Publish.Password == "" {
		if value, ok := os.LookupEnv("CURATOR_SFTP_PASSWORD"); ok {
			c.Publish.Password = value
		}
	}
	if c.Publish.Port == 0 {
		c.Publish.Port = defaultSFTPPort
	}
	c.Publish.RemoteDir = strings.TrimSpace(c.Publish.RemoteDir)
	if c.Publish.RemoteDir == "" {
		c.Publish.RemoteDir = defaultSFTPRemoteDir
	}
	var err error
	if c.Publish.KnownHosts, err = expandPath(strings.TrimSpace(c.Publish.KnownHosts)); err != nil {
		return fmt.Errorf("publish.known_hosts: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
