package htmlx

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HasMarkup 粗略判断文本是否含 HTML 标签或实体。
func HasMarkup(s string) bool {
	return strings.Contains(s, "<") || strings.Contains(s, "&")
}

// Text 把模板展开结果中的 HTML 片段转成纯文本。
//
// 规则：
// - 不含标签/实体的文本原样返回（不经过 HTML 解析，保留首尾空白）
// - <br> 转为换行；其余标签只保留文本；实体解码
func Text(fragment string) (string, error) {
	if !HasMarkup(fragment) {
		return fragment, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + fragment + "</body>"))
	if err != nil {
		return "", err
	}
	body := doc.Find("body")
	body.Find("br").ReplaceWithHtml("\n")
	return body.Text(), nil
}
