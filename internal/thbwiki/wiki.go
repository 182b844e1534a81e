package thbwiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const (
	// DefaultCategory 是列出全部音乐室页面的分类。
	DefaultCategory = "分类:音乐室"
	// categoryLimit 是一次 categorymembers 查询的上限；超过即视为截断。
	categoryLimit = 50
)

var (
	// ErrTruncated 表示页面列表被分页截断（响应含 continue）。
	ErrTruncated = errors.New("response is truncated")
	// ErrPageMissing 表示请求的页面不存在或没有修订内容。
	ErrPageMissing = errors.New("page missing")
)

// APIError 是 MediaWiki 在 200 响应体里返回的 {"error":{...}}。
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

// Getter 是一个按查询参数返回响应体的端点（通常为 *Endpoint）。
type Getter interface {
	Get(ctx context.Context, params map[string]string) (string, error)
}

// Wiki 提供音乐室流程需要的三个 API 调用。
type Wiki struct {
	Getter   Getter
	Category string
}

// ListMusicRoomPages 返回分类下的全部页面标题（文档顺序）。
func (w Wiki) ListMusicRoomPages(ctx context.Context) ([]string, error) {
	category := w.Category
	if category == "" {
		category = DefaultCategory
	}
	var resp struct {
		Continue json.RawMessage `json:"continue"`
		Query    struct {
			CategoryMembers []struct {
				Title string `json:"title"`
			} `json:"categorymembers"`
		} `json:"query"`
	}
	if err := w.get(ctx, map[string]string{
		"action":  "query",
		"list":    "categorymembers",
		"cmlimit": strconv.Itoa(categoryLimit),
		"cmtitle": category,
		"format":  "json",
	}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Continue) > 0 {
		return nil, fmt.Errorf("%w: category %q has more than %d members", ErrTruncated, category, categoryLimit)
	}
	titles := make([]string, 0, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		titles = append(titles, m.Title)
	}
	return titles, nil
}

// FetchPage 返回页面最新修订的 main slot wikitext。
func (w Wiki) FetchPage(ctx context.Context, title string) (string, error) {
	var resp struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				Missing   bool   `json:"missing"`
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := w.get(ctx, map[string]string{
		"action":        "query",
		"prop":          "revisions",
		"rvprop":        "content",
		"rvslots":       "main",
		"titles":        title,
		"format":        "json",
		"formatversion": "2",
	}, &resp); err != nil {
		return "", err
	}
	pages := resp.Query.Pages
	if len(pages) == 0 || pages[0].Missing || len(pages[0].Revisions) == 0 {
		return "", fmt.Errorf("%w: %q", ErrPageMissing, title)
	}
	return pages[0].Revisions[0].Slots.Main.Content, nil
}

// Expand 请求远端展开 text 中的模板，返回展开后的 wikitext。
func (w Wiki) Expand(ctx context.Context, text string) (string, error) {
	var resp struct {
		ExpandTemplates struct {
			Wikitext string `json:"wikitext"`
		} `json:"expandtemplates"`
	}
	if err := w.get(ctx, map[string]string{
		"action": "expandtemplates",
		"text":   text,
		"prop":   "wikitext",
		"format": "json",
	}, &resp); err != nil {
		return "", err
	}
	return resp.ExpandTemplates.Wikitext, nil
}

func (w Wiki) get(ctx context.Context, params map[string]string, out any) error {
	if w.Getter == nil {
		return errors.New("thbwiki: nil getter")
	}
	body, err := w.Getter.Get(ctx, params)
	if err != nil {
		return err
	}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return fmt.Errorf("解析 %s 响应失败：%w", params["action"], err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("解析 %s 响应失败：%w", params["action"], err)
	}
	return nil
}
