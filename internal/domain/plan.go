package domain

// PagePlan 是对某个音乐室页面的最小执行计划（只描述输出位置与现状，不含页面内容）。
type PagePlan struct {
	Page string
	// Game 是页面标题中第一个 "/" 之前的部分。
	Game string

	// Release 为空表示发行表未命中。
	Release Release
	Matched bool

	OutputName string
	OutputPath string
	Exists     bool
}
