package release

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"

	"github.com/John-Robertt/thbost/internal/domain"
)

// DefaultWikidataURL 是 Wikidata SPARQL 端点。
const DefaultWikidataURL = "https://query.wikidata.org/sparql"

// sparqlQuery 列出东方 Project 系列（Q907907）的全部作品及其发行编号与多语言标题。
const sparqlQuery = `
SELECT ?game ?thReleaseValue ?titleJa ?titleEn ?titleZh ?titleZhHans WHERE {
    wd:Q907907 p:P527 [
        ps:P527 ?game ;
        pq:P1545 ?thReleaseValue
    ] .
    OPTIONAL { ?game rdfs:label ?titleJa FILTER(LANG(?titleJa) = "ja") }
    OPTIONAL { ?game rdfs:label ?titleEn FILTER(LANG(?titleEn) = "en") }
    OPTIONAL { ?game rdfs:label ?titleZh FILTER(LANG(?titleZh) = "zh") }
    OPTIONAL { ?game rdfs:label ?titleZhHans FILTER(LANG(?titleZhHans) = "zh-hans") }
}
ORDER BY xsd:float(?thReleaseValue)
`

// t2s 把繁体中文转换为简体中文；词典只加载一次。
var t2s = sync.OnceValues(func() (*opencc.OpenCC, error) {
	return opencc.New("t2s")
})

// toSimplified 把 zh 标题转换为简体，用作缺失的 zh-hans 标题。
func toSimplified(s string) (string, error) {
	cc, err := t2s()
	if err != nil {
		return "", fmt.Errorf("加载繁简转换词典失败：%w", err)
	}
	return cc.Convert(s)
}

// Getter 是一个按查询参数返回响应体的端点。
type Getter interface {
	Get(ctx context.Context, params map[string]string) (string, error)
}

type binding struct {
	Value string `json:"value"`
}

// Fetch 通过 SPARQL 查询重建发行表。
//
// 规则：
// - 标题中的 "_" 替换为空格
// - 缺少 zh-hans 标题时由 zh 标题转换为简体得到
func Fetch(ctx context.Context, g Getter) (*Table, error) {
	body, err := g.Get(ctx, map[string]string{
		"format": "json",
		"query":  sparqlQuery,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results struct {
			Bindings []map[string]binding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("解析 SPARQL 响应失败：%w", err)
	}

	langs := []struct{ field, code string }{
		{"titleJa", "ja"},
		{"titleEn", "en"},
		{"titleZh", "zh"},
		{"titleZhHans", "zh-hans"},
	}
	var rs []domain.Release
	for _, b := range resp.Results.Bindings {
		id, ok := b["thReleaseValue"]
		if !ok || strings.TrimSpace(id.Value) == "" {
			continue
		}
		r := domain.Release{ID: id.Value, Title: map[string]string{}}
		for _, l := range langs {
			if v, ok := b[l.field]; ok {
				r.Title[l.code] = strings.ReplaceAll(v.Value, "_", " ")
			}
		}
		if _, ok := r.Title["zh-hans"]; !ok {
			if zh, ok := r.Title["zh"]; ok {
				hans, err := toSimplified(zh)
				if err != nil {
					return nil, err
				}
				r.Title["zh-hans"] = hans
			}
		}
		rs = append(rs, r)
	}
	return New(rs), nil
}
