package config

const (
	defaultStateDir         = "~/.local/share/curator"
	defaultLogDir           = "~/.local/share/curator/logs"
	defaultCatalogBaseURL   = "https://codewithmosh.com"
	defaultCatalogUserAgent = "curator/dev"
	defaultCatalogTimeout   = 30
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultIntroTimestamp   = "00:00:02"
	defaultOtherTimestamp   = "00:00:08"
	defaultMetadataLanguage = "en"
	defaultSFTPPort         = 22
	defaultSFTPRemoteDir    = "/"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults. The library
// directory has no default; it must come from the config file or
// CURATOR_LIBRARY_DIR.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			UserAgent:      defaultCatalogUserAgent,
			TimeoutSeconds: defaultCatalogTimeout,
		},
		Classification: Classification{
			DocumentKeywords: []string{"cheat sheet", "summary", "exercise"},
		},
		Media: Media{
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			IntroTimestamp:   defaultIntroTimestamp,
			OtherTimestamp:   defaultOtherTimestamp,
			MetadataLanguage: defaultMetadataLanguage,
			SectionComment:   true,
		},
		Documents: Documents{
			Organize: true,
		},
		Publish: Publish{
			Port:      defaultSFTPPort,
			RemoteDir: defaultSFTPRemoteDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
