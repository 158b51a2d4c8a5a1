// Package pipeline 编排完整的检查周期：抓取 → 去重 → 排序 → 推送 → 持久化。
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zhanglei/newsrelay/internal/config"
	"github.com/zhanglei/newsrelay/internal/feed"
	"github.com/zhanglei/newsrelay/internal/logger"
	"github.com/zhanglei/newsrelay/internal/notify"
	"github.com/zhanglei/newsrelay/internal/store"
)

// Pipeline 把各组件串成一个同步的检查周期。
type Pipeline struct {
	sources    []feed.Source
	fetcher    *feed.Fetcher
	normalizer *feed.Normalizer
	notifier   *notify.Notifier
	sent       *store.SentStore
	sm         *stateMachine

	maxArticles    int
	perSourceLimit int
	deliveryPause  time.Duration
	checkInterval  time.Duration
	once           bool
}

// New 根据配置装配流水线。状态文件损坏时返回错误，启动直接失败。
func New(cfg *config.Config, once bool) (*Pipeline, error) {
	sent, err := store.Open(cfg.StateFile)
	if err != nil {
		return nil, err
	}

	sources := make([]feed.Source, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		sources[i] = feed.Source{Name: f.Name, URL: f.URL}
	}

	return &Pipeline{
		sources:        sources,
		fetcher:        feed.NewFetcher(),
		normalizer:     feed.NewNormalizer(cfg.HighlightKeywords),
		notifier:       notify.New(cfg.WebhookURL, cfg.SourceEmojis),
		sent:           sent,
		sm:             newStateMachine(),
		maxArticles:    cfg.MaxArticles,
		perSourceLimit: cfg.PerSourceLimit,
		deliveryPause:  time.Duration(cfg.DeliveryPauseMs) * time.Millisecond,
		checkInterval:  time.Duration(cfg.CheckInterval) * time.Second,
		once:           once,
	}, nil
}

// Run 运行流水线。单次模式执行一个周期后返回；
// 循环模式每隔 checkInterval 执行一个周期，直到 ctx 被取消。
func (p *Pipeline) Run(ctx context.Context) error {
	logger.Infof("[pipeline] 监控 %d 个订阅源，已加载 %d 条历史标识", len(p.sources), p.sent.Len())

	for {
		if err := p.runCycle(ctx); err != nil {
			return err
		}

		if p.once {
			p.sm.Transition(StateTerminal)
			return nil
		}
		p.sm.Transition(StateIdle)

		logger.Infof("[pipeline] 下次检查在 %s 后", p.checkInterval)
		timer := time.NewTimer(p.checkInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// runCycle 执行一个完整周期。
// 只有推送和持久化环节的错误会中断周期；单个源的抓取失败只记日志。
func (p *Pipeline) runCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]
	logger.Infof("[pipeline] 开始检查 cycle=%s", cycleID)

	p.sm.Transition(StateFetching)
	candidates := p.collect(ctx)

	p.sm.Transition(StateRanking)
	selected := feed.Rank(candidates, p.maxArticles)
	logger.Infof("[pipeline] cycle=%s 新文章 %d 篇，本轮推送 %d 篇", cycleID, len(candidates), len(selected))

	p.sm.Transition(StateDelivering)
	delivered, err := p.deliver(ctx, selected)
	if err != nil {
		return err
	}

	p.sm.Transition(StatePersisting)
	if err := p.sent.Save(); err != nil {
		return err
	}

	logger.Infof("[pipeline] cycle=%s 完成，推送成功 %d 篇", cycleID, delivered)
	return nil
}

// collect 依次抓取所有源并归一化新条目。
// 源的遍历顺序和源内条目顺序共同决定后续排序的并列次序，
// 因此必须按配置顺序串行合并。
func (p *Pipeline) collect(ctx context.Context) []feed.Article {
	var articles []feed.Article

	for _, src := range p.sources {
		items, err := p.fetcher.Fetch(ctx, src)
		if err != nil {
			logger.Warnf("[pipeline] 抓取 %s 失败: %v", src.Name, err)
			continue
		}
		if len(items) == 0 {
			logger.Debugf("[pipeline] %s 没有条目", src.Name)
			continue
		}

		// 每个源只看最新的若干条
		if len(items) > p.perSourceLimit {
			items = items[:p.perSourceLimit]
		}

		for _, item := range items {
			if p.sent.Contains(feed.Identity(item)) {
				continue
			}
			articles = append(articles, p.normalizer.Normalize(src.Name, item))
		}
	}
	return articles
}

// deliver 逐条推送文章。推送成功才记入已推送集合；
// 失败的文章不记录，下个周期会再次进入候选。
func (p *Pipeline) deliver(ctx context.Context, articles []feed.Article) (int, error) {
	delivered := 0
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		if err := p.notifier.Send(ctx, a); err != nil {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			logger.Warnf("[pipeline] 推送 [%s] %s 失败: %v", a.Source, shorten(a.Title), err)
			continue
		}

		p.sent.Add(a.Identity)
		delivered++
		logger.Infof("[pipeline] 已推送 [%s] %s", a.Source, shorten(a.Title))

		// 成功之间留出间隔，避免触发 Webhook 限流
		if p.deliveryPause > 0 {
			timer := time.NewTimer(p.deliveryPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return delivered, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return delivered, nil
}

// shorten 截短标题用于日志输出。
func shorten(s string) string {
	runes := []rune(s)
	if len(runes) <= 40 {
		return s
	}
	return string(runes[:40]) + "..."
}
