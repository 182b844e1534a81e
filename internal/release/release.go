// Package release 维护发行编号表：作品名 -> 发行编号（如 "6"、"12.8"）-> 各语言标题。
package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/infra/fsx"
)

// aliases 在查找前对作品名做子串替换，弥合 wiki 页面名与发行表标题的差异。
var aliases = []struct{ from, to string }{
	{"东方文花帖DS", "Double Spoiler"},
	{"东方花映塚", "东方花映冢"},
}

// Table 是只读的发行表。构造后不再修改，可在 goroutine 间共享。
type Table struct {
	releases []domain.Release
	byID     map[string]int
}

type fileEntry struct {
	Title map[string]string `toml:"title"`
}

// New 按发行编号的数值升序构造发行表（非数值编号排在最后，按字典序）。
func New(releases []domain.Release) *Table {
	rs := make([]domain.Release, len(releases))
	copy(rs, releases)
	sort.SliceStable(rs, func(i, j int) bool { return lessID(rs[i].ID, rs[j].ID) })

	t := &Table{releases: rs, byID: make(map[string]int, len(rs))}
	for i, r := range rs {
		t.byID[r.ID] = i
	}
	return t
}

func lessID(a, b string) bool {
	fa, ea := strconv.ParseFloat(a, 64)
	fb, eb := strconv.ParseFloat(b, 64)
	switch {
	case ea == nil && eb == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case ea == nil:
		return true
	case eb == nil:
		return false
	default:
		return a < b
	}
}

// Load 读取 TOML 发行表。文件不存在时返回空表与 exists=false。
func Load(path string) (*Table, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), false, nil
		}
		return nil, false, err
	}
	t, err := Decode(b)
	if err != nil {
		return nil, true, fmt.Errorf("解析发行表 %s 失败：%w", path, err)
	}
	return t, true, nil
}

// Decode 解析 TOML 发行表内容。
func Decode(b []byte) (*Table, error) {
	var raw map[string]fileEntry
	if err := toml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	rs := make([]domain.Release, 0, len(raw))
	for id, e := range raw {
		rs = append(rs, domain.Release{ID: id, Title: e.Title})
	}
	return New(rs), nil
}

// Encode 把发行表编码为 TOML。
func (t *Table) Encode() ([]byte, error) {
	raw := make(map[string]fileEntry, len(t.releases))
	for _, r := range t.releases {
		raw[r.ID] = fileEntry{Title: r.Title}
	}
	return toml.Marshal(raw)
}

// Save 原子写入发行表。
func (t *Table) Save(path string) error {
	b, err := t.Encode()
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), b)
}

func (t *Table) Len() int { return len(t.releases) }

// Get 按发行编号查找。
func (t *Table) Get(id string) (domain.Release, bool) {
	i, ok := t.byID[id]
	if !ok {
		return domain.Release{}, false
	}
	return t.releases[i], true
}

// ByTitle 按作品名查找发行记录：先做别名替换，
// 再按编号顺序返回第一个任一语言标题包含作品名的记录。
func (t *Table) ByTitle(game string) (domain.Release, bool) {
	for _, a := range aliases {
		game = strings.ReplaceAll(game, a.from, a.to)
	}
	if game == "" {
		return domain.Release{}, false
	}
	for _, r := range t.releases {
		for _, title := range r.Title {
			if strings.Contains(title, game) {
				return r, true
			}
		}
	}
	return domain.Release{}, false
}
