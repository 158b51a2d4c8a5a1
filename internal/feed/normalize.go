package feed

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalizer 将原始条目转换为 Article。
type Normalizer struct {
	keywords []string // 高亮关键词，已转小写
}

// NewNormalizer 创建归一化器。
func NewNormalizer(keywords []string) *Normalizer {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Normalizer{keywords: lowered}
}

// Normalize 将一条原始条目归一化为 Article。
func (n *Normalizer) Normalize(sourceName string, item *gofeed.Item) Article {
	title := item.Title
	if title == "" {
		title = "No title"
	}
	title = stripHTML(title)

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	summary = stripHTML(summary)

	return Article{
		Source:    sourceName,
		Title:     title,
		Link:      item.Link,
		Summary:   summary,
		Identity:  Identity(item),
		Important: n.isHighlight(title) || n.isHighlight(summary),
	}
}

// isHighlight 检查文本是否命中任一高亮关键词（不区分大小写）。
func (n *Normalizer) isHighlight(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range n.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Identity 计算条目的去重标识。
// 依次取 GUID、链接、标题中第一个非空字段，对其 UTF-8 字节做 MD5。
// 同一条目每次计算结果相同，是去重的唯一依据。
func Identity(item *gofeed.Item) string {
	unique := item.GUID
	if unique == "" {
		unique = item.Link
	}
	if unique == "" {
		unique = item.Title
	}
	sum := md5.Sum([]byte(unique))
	return hex.EncodeToString(sum[:])
}

// stripHTML 剥离 HTML 标签并解码实体，然后合并连续空白。
// 用 tokenizer 而不是正则，嵌套标签和实体表都能正确处理。
func stripHTML(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}

	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}
