package domain

// Format 是源文件格式分类（按文件名子串判定）。
type Format string

const (
	FormatFM26 Format = "fm26"
	FormatFM86 Format = "fm86"
	FormatMIDI Format = "midi"
	FormatData Format = "data"
)

// Title 是曲目标题。ja/zh-hans 来自页面或模板展开；en 只来自模板展开。
type Title struct {
	Ja     string `json:"ja,omitempty" toml:"ja,omitempty" yaml:"ja,omitempty"`
	ZhHans string `json:"zh-hans,omitempty" toml:"zh-hans,omitempty" yaml:"zh-hans,omitempty"`
	En     string `json:"en,omitempty" toml:"en,omitempty" yaml:"en,omitempty"`
}

type Composer struct {
	Ja string `json:"ja,omitempty" toml:"ja,omitempty" yaml:"ja,omitempty"`
}

// LangText 是 ja / zh-hans 双语文本；空串表示该语言缺失。
type LangText struct {
	Ja     string `json:"ja,omitempty" toml:"ja,omitempty" yaml:"ja,omitempty"`
	ZhHans string `json:"zh-hans,omitempty" toml:"zh-hans,omitempty" yaml:"zh-hans,omitempty"`
}

// LangList 是只有 zh-hans 一种语言的列表。
type LangList struct {
	ZhHans []string `json:"zh-hans" toml:"zh-hans" yaml:"zh-hans"`
}

type Context struct {
	CharacterList LangList `json:"character-list" toml:"character-list" yaml:"character-list"`
	ScenarioList  LangList `json:"scenario-list" toml:"scenario-list" yaml:"scenario-list"`
}

// TitleTemplate 记录标题模板调用的模板名与曲目序号，用于后续展开三种语言的标题。
type TitleTemplate struct {
	Name    string `json:"name" toml:"name" yaml:"name"`
	TrackID int    `json:"track-id" toml:"track-id" yaml:"track-id"`
}

// LinkedPage 是标题模板外层内链的目标页与显示文本。
type LinkedPage struct {
	Page string `json:"page" toml:"page" yaml:"page"`
	Text string `json:"text" toml:"text" yaml:"text"`
}

type Thbwiki struct {
	Category      LangList       `json:"category" toml:"category" yaml:"category"`
	TitleTemplate *TitleTemplate `json:"title-template,omitempty" toml:"title-template,omitempty" yaml:"title-template,omitempty"`
	LinkedPage    *LinkedPage    `json:"linked-page,omitempty" toml:"linked-page,omitempty" yaml:"linked-page,omitempty"`
}

type Extra struct {
	Thbwiki Thbwiki `json:"thbwiki" toml:"thbwiki" yaml:"thbwiki"`
}

// Notes 是曲目评论的两种互斥形态：CommonNotes 或 SourceNotes。
//
// 约束：一个 TrackRecord 只能持有其中一种；类型系统保证二者不会同时出现。
type Notes interface {
	notes()
}

// CommonNotes 是整首曲目共用的一份评论。
type CommonNotes struct {
	Commentary LangText
}

// SourceNotes 是按源文件格式分组的评论；Buckets 按格式首次出现顺序排列，格式不重复。
type SourceNotes struct {
	Buckets []SourceBucket
}

type SourceBucket struct {
	Format   Format
	FileList []string
	Metadata LangText
}

func (CommonNotes) notes() {}
func (SourceNotes) notes() {}

// Bucket 返回指定格式的分组（不存在则追加一个空分组）。
func (s *SourceNotes) Bucket(f Format) *SourceBucket {
	for i := range s.Buckets {
		if s.Buckets[i].Format == f {
			return &s.Buckets[i]
		}
	}
	s.Buckets = append(s.Buckets, SourceBucket{Format: f})
	return &s.Buckets[len(s.Buckets)-1]
}

// TrackRecord 是一首曲目的结构化结果。
type TrackRecord struct {
	Title    Title
	Composer Composer
	Notes    Notes
	Context  Context
	Extra    Extra
}

// SourceFiles 是 source 表中每个格式下的内容。
type SourceFiles struct {
	FileList     []string `json:"file-list" toml:"file-list" yaml:"file-list"`
	FileMetadata LangText `json:"file_metadata" toml:"file_metadata" yaml:"file_metadata"`
}

// TrackDocument 是 TrackRecord 的序列化形态：commentary 与 source 二选一出现。
type TrackDocument struct {
	Title      Title                  `json:"title" toml:"title" yaml:"title"`
	Composer   Composer               `json:"composer" toml:"composer" yaml:"composer"`
	Commentary *LangText              `json:"commentary,omitempty" toml:"commentary,omitempty" yaml:"commentary,omitempty"`
	Source     map[string]SourceFiles `json:"source,omitempty" toml:"source,omitempty" yaml:"source,omitempty"`
	Context    Context                `json:"context" toml:"context" yaml:"context"`
	Extra      Extra                  `json:"extra" toml:"extra" yaml:"extra"`
}

// Document 把 TrackRecord 转成序列化形态。Notes 为 nil 时按空的共用评论处理。
func (t TrackRecord) Document() TrackDocument {
	d := TrackDocument{
		Title:    t.Title,
		Composer: t.Composer,
		Context: Context{
			CharacterList: LangList{ZhHans: nonNil(t.Context.CharacterList.ZhHans)},
			ScenarioList:  LangList{ZhHans: nonNil(t.Context.ScenarioList.ZhHans)},
		},
		Extra: t.Extra,
	}
	d.Extra.Thbwiki.Category.ZhHans = nonNil(t.Extra.Thbwiki.Category.ZhHans)
	switch n := t.Notes.(type) {
	case SourceNotes:
		d.Source = make(map[string]SourceFiles, len(n.Buckets))
		for _, b := range n.Buckets {
			d.Source[string(b.Format)] = SourceFiles{FileList: nonNil(b.FileList), FileMetadata: b.Metadata}
		}
	case CommonNotes:
		c := n.Commentary
		d.Commentary = &c
	default:
		d.Commentary = &LangText{}
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
