package musicroom

import (
	"context"
	"fmt"
	"strings"
)

const (
	// Delimiter 用于把一批片段拼成一次展开请求，并切分展开结果。
	Delimiter = "|"
	// DefaultBatchSize 是每次展开请求携带的片段数上限。
	DefaultBatchSize = 40
)

// Expander 把一段 wikitext 发给远端做模板展开（阻塞调用）。
type Expander interface {
	Expand(ctx context.Context, text string) (string, error)
}

// ExpanderFunc 让普通函数满足 Expander。
type ExpanderFunc func(ctx context.Context, text string) (string, error)

func (f ExpanderFunc) Expand(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// Batch 收集待展开的片段（按精确字符串去重、保持首次加入顺序），
// 一轮远端调用后按精确匹配回填结果。
//
// 约束：
// - 一个 Batch 只服务一个页面的一遍展开，不跨 goroutine 共享。
// - 请求与结果逐批等长；不等长即失败，不做部分回填。
type Batch struct {
	snippets []string
	index    map[string]int
	results  []string
}

// Append 加入一个片段；已存在的片段不重复加入。
func (b *Batch) Append(snippet string) {
	if b.index == nil {
		b.index = map[string]int{}
	}
	if _, ok := b.index[snippet]; ok {
		return
	}
	b.index[snippet] = len(b.snippets)
	b.snippets = append(b.snippets, snippet)
}

// Len 返回去重后的片段数。
func (b *Batch) Len() int { return len(b.snippets) }

// Resolve 按 size 把片段切成连续的若干批，依次调用 exp 展开，结果与片段一一对应。
// size<=0 时使用 DefaultBatchSize。片段为空时不发请求。
func (b *Batch) Resolve(ctx context.Context, exp Expander, size int) error {
	if size <= 0 {
		size = DefaultBatchSize
	}
	results := make([]string, 0, len(b.snippets))
	for start := 0; start < len(b.snippets); start += size {
		end := min(start+size, len(b.snippets))
		chunk := b.snippets[start:end]

		resp, err := exp.Expand(ctx, strings.Join(chunk, Delimiter))
		if err != nil {
			return err
		}
		parts := strings.Split(resp, Delimiter)
		if len(parts) != len(chunk) {
			return fmt.Errorf("%w: chunk [%d,%d) sent %d, got %d", ErrLengthMismatch, start, end, len(chunk), len(parts))
		}
		results = append(results, parts...)
	}
	b.results = results
	return nil
}

// Substitute 返回片段的展开结果；只做精确匹配，未加入或未展开的片段返回 ErrSubstitutionNotFound。
func (b *Batch) Substitute(snippet string) (string, error) {
	i, ok := b.index[snippet]
	if !ok || i >= len(b.results) {
		return "", fmt.Errorf("%w: %q", ErrSubstitutionNotFound, snippet)
	}
	return b.results[i], nil
}
