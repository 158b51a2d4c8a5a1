// Package notify 将文章以 embed 消息推送到 Discord Webhook。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zhanglei/newsrelay/internal/config"
	"github.com/zhanglei/newsrelay/internal/feed"
	"github.com/zhanglei/newsrelay/internal/logger"
)

const (
	deliverTimeout = 10 * time.Second

	// maxDeliverAttempts 单篇文章的最大发送尝试次数（含首次）。
	// 限流 429 会触发等待后重试，超过次数后放弃，下个周期自然重试。
	maxDeliverAttempts = 3

	maxTitleLen   = 200 // embed 标题最大字符数
	maxSummaryLen = 300 // embed 描述最大字符数

	colorImportant = 0xFF6B00 // 重要文章：橙色
	colorNormal    = 0x5865F2 // 普通文章：Discord 蓝

	defaultEmoji = "📰"

	// defaultRetryAfter 429 响应未携带 retry_after 时的等待秒数。
	defaultRetryAfter = 5.0
)

// embed Discord embed 消息体。
type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Color       int         `json:"color"`
	Footer      embedFooter `json:"footer"`
	Timestamp   string      `json:"timestamp"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// rateLimitBody 429 响应体中的限流信息。
type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// Notifier 负责向 Discord Webhook 推送文章。
type Notifier struct {
	webhookURL string
	emojiRules []config.EmojiRule
	client     *http.Client
}

// New 创建 Notifier。
func New(webhookURL string, emojiRules []config.EmojiRule) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		emojiRules: emojiRules,
		client:     &http.Client{Timeout: deliverTimeout},
	}
}

// Send 推送一篇文章。返回 nil 表示 Discord 已确认（HTTP 204）。
// 429 按响应里的 retry_after 等待后重试，最多 maxDeliverAttempts 次。
func (n *Notifier) Send(ctx context.Context, a feed.Article) error {
	body, err := json.Marshal(n.buildPayload(a))
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= maxDeliverAttempts; attempt++ {
		retryAfter, err := n.post(ctx, body)
		if err == nil {
			return nil
		}
		if retryAfter <= 0 {
			return err
		}

		// 被限流，等待后重试
		if attempt == maxDeliverAttempts {
			return fmt.Errorf("重试 %d 次后仍被限流", maxDeliverAttempts)
		}
		logger.Warnf("[notify] 被限流，%.1f 秒后重试 (第 %d/%d 次)", retryAfter, attempt, maxDeliverAttempts)
		if err := sleepCtx(ctx, time.Duration(retryAfter*float64(time.Second))); err != nil {
			return err
		}
	}
	return fmt.Errorf("重试 %d 次后仍被限流", maxDeliverAttempts)
}

// post 执行一次 Webhook 调用。
// 返回值 retryAfter > 0 表示被限流，应等待该秒数后重试。
func (n *Notifier) post(ctx context.Context, body []byte) (retryAfter float64, err error) {
	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return 0, nil
	case http.StatusTooManyRequests:
		retryAfter = defaultRetryAfter
		var rl rateLimitBody
		if data, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(data, &rl) == nil && rl.RetryAfter > 0 {
				retryAfter = rl.RetryAfter
			}
		}
		return retryAfter, fmt.Errorf("HTTP 429")
	default:
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// buildPayload 构建 embed 消息。
func (n *Notifier) buildPayload(a feed.Article) webhookPayload {
	color := colorNormal
	if a.Important {
		color = colorImportant
	}

	title := n.sourceEmoji(a.Source) + " " + truncate(a.Title, maxTitleLen, "")

	return webhookPayload{
		Embeds: []embed{{
			Title:       title,
			Description: truncate(a.Summary, maxSummaryLen, "..."),
			URL:         a.Link,
			Color:       color,
			Footer:      embedFooter{Text: "Source: " + a.Source},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// sourceEmoji 返回源名称对应的 emoji。
// 按规则声明顺序取第一条命中的（Match 为源名称子串，区分大小写）。
func (n *Notifier) sourceEmoji(source string) string {
	for _, rule := range n.emojiRules {
		if rule.Match != "" && strings.Contains(source, rule.Match) {
			return rule.Emoji
		}
	}
	return defaultEmoji
}

// truncate 截断到指定字符数（按 rune 计算），被截断时追加 suffix。
func truncate(s string, maxLen int, suffix string) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + suffix
}

// sleepCtx 可被取消的 sleep。
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
