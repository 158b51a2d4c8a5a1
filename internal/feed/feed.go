// Package feed 提供订阅源抓取、条目归一化和相关性排序。
package feed

// Source 订阅源信息。来自配置，运行期间不可变。
type Source struct {
	Name string
	URL  string
}

// Article 一条归一化后的文章。每个周期从原始条目构建，构建后不再修改。
type Article struct {
	Source    string // 来源名称
	Title     string // 去除 HTML 后的标题
	Link      string // 原文链接
	Summary   string // 去除 HTML、合并空白后的摘要
	Identity  string // 去重标识（内容哈希）
	Important bool   // 是否命中高亮关键词
}
