package preflight

import (
	"context"
	"strings"

	"curator/internal/config"
)

// CheckCatalogFromConfig evaluates catalog reachability from config.
func CheckCatalogFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Catalog"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Catalog.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	return CheckCatalog(ctx, cfg.Catalog.BaseURL, cfg.Catalog.UserAgent)
}

// CheckPublishFromConfig evaluates the SFTP publish target from config.
func CheckPublishFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "SFTP"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Publish.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Publish.User) == "" {
		return Result{Name: name, Detail: "Missing user"}
	}
	return CheckSFTP(ctx, cfg.Publish.Host, cfg.Publish.Port)
}
