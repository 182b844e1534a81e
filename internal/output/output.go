// Package output 负责游戏文档的落盘（TOML）、结构校验（JSON Schema）以及 stdout 的 yaml/json 输出。
package output

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/infra/fsx"
)

// Format 是 stdout 输出格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat 解析 -o 参数；空串表示 yaml。
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("未知输出格式：%q（可选 yaml|json）", s)
	}
}

// Encode 把 v 以指定格式写入 w。
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("未知输出格式：%q", format)
	}
}

//go:embed game.schema.json
var schemaJSON []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("game.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile("game.schema.json")
})

// SchemaError 表示文档不符合 JSON Schema。
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string { return "schema: " + e.Err.Error() }

func (e *SchemaError) Unwrap() error { return e.Err }

// Validate 按内嵌的 JSON Schema 校验文档；不符合时返回 *SchemaError。
func Validate(doc domain.GameDocument) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("编译 schema 失败：%w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return &SchemaError{Err: err}
	}
	return nil
}

// EncodeTOML 把文档编码为 TOML。
func EncodeTOML(doc domain.GameDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTOML 校验并原子写入 dir/name。
func WriteTOML(dir, name string, doc domain.GameDocument) error {
	if err := Validate(doc); err != nil {
		return err
	}
	b, err := EncodeTOML(doc)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(dir, name, b)
}
