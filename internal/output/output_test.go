package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/thbost/internal/domain"
)

func sampleDoc() domain.GameDocument {
	plan := domain.PagePlan{
		Game:    "东方红魔乡",
		Matched: true,
		Release: domain.Release{ID: "6", Title: map[string]string{"zh-hans": "东方红魔乡", "ja": "東方紅魔郷"}},
	}
	tracks := []domain.TrackRecord{
		{
			Title:    domain.Title{Ja: "赤より紅い夢", ZhHans: "比红色更红的梦"},
			Composer: domain.Composer{Ja: "ZUN"},
			Notes:    domain.CommonNotes{Commentary: domain.LangText{Ja: "一面のテーマです。"}},
			Context: domain.Context{
				ScenarioList: domain.LangList{ZhHans: []string{"1面道中"}},
			},
			Extra: domain.Extra{Thbwiki: domain.Thbwiki{
				Category:      domain.LangList{ZhHans: []string{"1面道中"}},
				TitleTemplate: &domain.TitleTemplate{Name: "红魔乡曲名", TrackID: 2},
			}},
		},
		{
			Title: domain.Title{Ja: "ほおずきみたいに紅い魂"},
			Notes: domain.SourceNotes{Buckets: []domain.SourceBucket{
				{Format: domain.FormatMIDI, FileList: []string{"th06_02.mid"}, Metadata: domain.LangText{ZhHans: "MIDI 版"}},
			}},
		},
	}
	return domain.NewGameDocument(plan, tracks)
}

func TestValidate_AcceptsDocument(t *testing.T) {
	if err := Validate(sampleDoc()); err != nil {
		t.Fatalf("Validate 失败：%v", err)
	}
}

func TestValidate_RejectsCommentaryWithSource(t *testing.T) {
	doc := sampleDoc()
	doc.SoundtrackList[1].Commentary = &domain.LangText{Ja: "x"}

	err := Validate(doc)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *SchemaError，实际 %T：%v", err, err)
	}
}

func TestValidate_RejectsUnknownSourceFormat(t *testing.T) {
	doc := sampleDoc()
	doc.SoundtrackList[1].Source["wav"] = domain.SourceFiles{FileList: []string{"a.wav"}}

	var se *SchemaError
	if err := Validate(doc); !errors.As(err, &se) {
		t.Fatalf("期望 *SchemaError，实际 %v", err)
	}
}

func TestEncodeTOML_RoundTrip(t *testing.T) {
	b, err := EncodeTOML(sampleDoc())
	if err != nil {
		t.Fatalf("EncodeTOML 失败：%v", err)
	}
	s := string(b)
	if !strings.Contains(s, "threlease = 'TH6'") && !strings.Contains(s, `threlease = "TH6"`) {
		t.Fatalf("缺少 threlease：\n%s", s)
	}
	if !strings.Contains(s, "[[soundtrack-list]]") {
		t.Fatalf("缺少 soundtrack-list 表数组：\n%s", s)
	}

	var got domain.GameDocument
	if err := toml.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal 失败：%v", err)
	}
	if len(got.SoundtrackList) != 2 {
		t.Fatalf("曲目数=%d", len(got.SoundtrackList))
	}
	if got.SoundtrackList[0].Commentary == nil || got.SoundtrackList[0].Source != nil {
		t.Fatalf("第一首应只有 commentary：%+v", got.SoundtrackList[0])
	}
	if got.SoundtrackList[1].Commentary != nil || got.SoundtrackList[1].Source["midi"].FileList[0] != "th06_02.mid" {
		t.Fatalf("第二首应只有 source：%+v", got.SoundtrackList[1])
	}
	if got.SoundtrackList[0].Extra.Thbwiki.TitleTemplate.TrackID != 2 {
		t.Fatalf("title-template 丢失：%+v", got.SoundtrackList[0].Extra)
	}
}

func TestWriteTOML_WritesValidatedDocument(t *testing.T) {
	dir := t.TempDir()
	if err := WriteTOML(dir, "TH6.toml", sampleDoc()); err != nil {
		t.Fatalf("WriteTOML 失败：%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "TH6.toml")); err != nil {
		t.Fatalf("文件未写入：%v", err)
	}

	bad := sampleDoc()
	bad.SoundtrackList[0].Source = map[string]domain.SourceFiles{"midi": {FileList: []string{"a.mid"}}}
	if err := WriteTOML(dir, "bad.toml", bad); err == nil {
		t.Fatalf("期望校验失败")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.toml")); !os.IsNotExist(err) {
		t.Fatalf("校验失败时不应写文件：%v", err)
	}
}

func TestEncode_Formats(t *testing.T) {
	v := map[string]any{"title": "东方&红魔乡"}

	var js bytes.Buffer
	if err := Encode(&js, FormatJSON, v); err != nil {
		t.Fatalf("json 编码失败：%v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(js.Bytes(), &back); err != nil || back["title"] != "东方&红魔乡" {
		t.Fatalf("json 输出异常：%q err=%v", js.String(), err)
	}
	if strings.Contains(js.String(), `\u0026`) {
		t.Fatalf("不应转义 HTML：%q", js.String())
	}

	var ym bytes.Buffer
	if err := Encode(&ym, FormatYAML, v); err != nil {
		t.Fatalf("yaml 编码失败：%v", err)
	}
	if strings.TrimSpace(ym.String()) != "title: 东方&红魔乡" {
		t.Fatalf("yaml 输出异常：%q", ym.String())
	}

	if err := Encode(&ym, Format("xml"), v); err == nil {
		t.Fatalf("期望未知格式报错")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatYAML, "yaml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Fatalf("期望报错")
	}
}
