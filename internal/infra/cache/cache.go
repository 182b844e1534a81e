package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/thbost/internal/infra/fsx"
)

// Store 提供 <dir>/ 下按内容寻址的 API 响应缓存。
//
// 约束：
// - 文件名是请求描述的 sha256（见 Fingerprint），同一请求永远命中同一文件
// - offline：只允许读（ReadOnly=true）
type Store struct {
	Dir      string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
	}
}

// Entry 是落盘的缓存条目：请求描述 + 响应体。
type Entry struct {
	Request json.RawMessage `json:"request"`
	Resp    struct {
		Body string `json:"body"`
	} `json:"resp"`
}

// Fingerprint 返回请求描述的 JSON 编码的 sha256（十六进制）。
// encoding/json 对 map 键排序，因此参数顺序不影响结果。
func Fingerprint(request any) (string, json.RawMessage, error) {
	b, err := json.Marshal(request)
	if err != nil {
		return "", nil, fmt.Errorf("编码请求描述失败：%w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), b, nil
}

var keyRE = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Path 返回 key 对应的缓存文件路径。
func (s Store) Path(key string) (string, error) {
	if !keyRE.MatchString(key) {
		return "", fmt.Errorf("非法缓存键：%q", key)
	}
	return filepath.Join(s.Dir, key), nil
}

// Read 读取缓存条目。未命中返回 ok=false, err=nil。
func (s Store) Read(key string) (Entry, bool, error) {
	path, err := s.Path(key)
	if err != nil {
		return Entry{}, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("缓存条目损坏 %s：%w", path, err)
	}
	return e, true, nil
}

// Write 原子写入缓存条目（覆盖同名文件）。
func (s Store) Write(key string, e Entry) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if _, err := s.Path(key); err != nil {
		return err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.Dir, key, b)
}
