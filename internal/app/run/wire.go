package run

import (
	"fmt"
	"log/slog"

	"github.com/John-Robertt/thbost/internal/config"
	"github.com/John-Robertt/thbost/internal/infra/cache"
	"github.com/John-Robertt/thbost/internal/infra/httpx"
	"github.com/John-Robertt/thbost/internal/release"
	"github.com/John-Robertt/thbost/internal/thbwiki"
)

// NewEndpoint 按配置构造带缓存与重试的 GET 端点。
func NewEndpoint(eff config.EffectiveConfig, apiURL string, logger *slog.Logger) (*thbwiki.Endpoint, error) {
	client, err := httpx.NewClient(eff.ProxyURL, eff.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("proxy_url 无效：%w", err)
	}
	return &thbwiki.Endpoint{
		URL:       apiURL,
		UserAgent: eff.UserAgent,
		ProxyURL:  eff.ProxyURL,
		Client:    client,
		Cache:     cache.New(eff.CacheDir, eff.Offline),
		Offline:   eff.Offline,
		Logger:    logger,
	}, nil
}

// Wire 按配置组装真实依赖：THBWiki 端点与发行表。
//
// 发行表文件不存在时使用空表（所有查询都不命中）并记录 warn。
func Wire(eff config.EffectiveConfig, runID string, logger *slog.Logger) (Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ep, err := NewEndpoint(eff, eff.APIURL, logger)
	if err != nil {
		return Deps{}, err
	}

	table, exists, err := release.Load(eff.ReleaseTable)
	if err != nil {
		return Deps{}, err
	}
	if !exists {
		logger.Warn("发行表不存在，全部作品按作品名输出", "path", eff.ReleaseTable)
	}

	return Deps{
		RunID:    runID,
		Source:   thbwiki.Wiki{Getter: ep, Category: eff.Category},
		Releases: table,
		Logger:   logger,
	}, nil
}
