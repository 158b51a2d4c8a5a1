package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultFetchTimeout = 10 * time.Second

// Fetcher 负责抓取并解析订阅源。
type Fetcher struct {
	parser *gofeed.Parser
	client *http.Client
}

// NewFetcher 创建订阅源抓取器。
func NewFetcher() *Fetcher {
	return &Fetcher{
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
}

// Fetch 抓取单个订阅源并返回原始条目。
// 网络或解析失败只影响该源，由调用方记录日志后继续处理其他源。
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]*gofeed.Item, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "newsrelay/1.0 RSS Reader")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	return parsed.Items, nil
}
