package musicroom

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat 表示文件名无法归入任何已知源文件格式。
	ErrUnknownFormat = errors.New("unknown source format")
	// ErrInvalidMacro 表示标题宏不是恰好两个整数参数的单个模板，或语言代码与字段不符。
	ErrInvalidMacro = errors.New("invalid title macro")
	// ErrMalformedEntry 表示条目的参数个数不符合该键的要求。
	ErrMalformedEntry = errors.New("malformed entry")
	// ErrLengthMismatch 表示一次展开的结果条数与请求条数不等。
	ErrLengthMismatch = errors.New("expansion length mismatch")
	// ErrSubstitutionNotFound 表示回填时找不到片段对应的展开结果。
	ErrSubstitutionNotFound = errors.New("substitution not found")
)

// ParseError 携带出错的曲目序号（从 0 开始）与条目键。
type ParseError struct {
	Track int
	Key   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("track %d: %v", e.Track, e.Err)
	}
	return fmt.Sprintf("track %d: %s: %v", e.Track, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExpandError 表示某一遍展开（title/category/source）失败。
type ExpandError struct {
	Pass string
	Err  error
}

func (e *ExpandError) Error() string {
	return fmt.Sprintf("expand %s: %v", e.Pass, e.Err)
}

func (e *ExpandError) Unwrap() error { return e.Err }
