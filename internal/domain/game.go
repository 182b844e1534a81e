package domain

// Release 是一条发行记录：编号（如 "6"、"12.8"）与各语言标题。
type Release struct {
	ID    string
	Title map[string]string
}

// GameDocument 是一个作品的输出文档（落盘为 TOML）。
type GameDocument struct {
	Release        string            `json:"threlease,omitempty" toml:"threlease,omitempty" yaml:"threlease,omitempty"`
	Title          map[string]string `json:"title" toml:"title" yaml:"title"`
	SoundtrackList []TrackDocument   `json:"soundtrack-list" toml:"soundtrack-list" yaml:"soundtrack-list"`
}

// NewGameDocument 组装文档：命中发行表时使用其编号与标题；否则 title.zh-hans 取作品名。
func NewGameDocument(plan PagePlan, tracks []TrackRecord) GameDocument {
	doc := GameDocument{SoundtrackList: make([]TrackDocument, 0, len(tracks))}
	if plan.Matched {
		doc.Release = "TH" + plan.Release.ID
		doc.Title = make(map[string]string, len(plan.Release.Title))
		for k, v := range plan.Release.Title {
			doc.Title[k] = v
		}
	} else {
		doc.Title = map[string]string{"zh-hans": plan.Game}
	}
	for _, t := range tracks {
		doc.SoundtrackList = append(doc.SoundtrackList, t.Document())
	}
	return doc
}
