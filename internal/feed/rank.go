package feed

import "sort"

// Rank 按相关性对文章排序并截断到 max 条。
// 重要文章排在前面；稳定排序保证同组内保持抓取顺序
// （源的遍历顺序在前，源内条目顺序在后）。max 是所有源合计的全局上限。
func Rank(articles []Article, max int) []Article {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Important && !articles[j].Important
	})
	if max > 0 && len(articles) > max {
		articles = articles[:max]
	}
	return articles
}
