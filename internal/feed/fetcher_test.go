package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>AI News</title>
    <link>https://example.com</link>
    <description>A test RSS feed</description>
    <item>
      <title>Claude 模型更新</title>
      <link>https://example.com/post/1</link>
      <guid>post-1</guid>
      <description>&lt;p&gt;推理能力 &lt;b&gt;显著提升&lt;/b&gt;。&lt;/p&gt;</description>
    </item>
    <item>
      <title>行业周报</title>
      <link>https://example.com/post/2</link>
      <guid>post-2</guid>
      <description>本周行业动态汇总</description>
    </item>
  </channel>
</rss>`

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <entry>
    <title>Atom 文章</title>
    <link href="https://example.com/atom/1"/>
    <id>atom-1</id>
    <summary>Atom 格式的摘要</summary>
    <updated>2026-08-30T09:00:00+08:00</updated>
  </entry>
</feed>`

func setupTestServer(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, content)
	}))
}

func TestFetch(t *testing.T) {
	srv := setupTestServer(testRSSFeed)
	defer srv.Close()

	f := NewFetcher()
	items, err := f.Fetch(context.Background(), Source{Name: "AI News", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条，得到 %d 条", len(items))
	}
	if items[0].Title != "Claude 模型更新" {
		t.Errorf("标题不匹配: %s", items[0].Title)
	}
	if items[0].GUID != "post-1" {
		t.Errorf("GUID 不匹配: %s", items[0].GUID)
	}
}

func TestFetch_Atom(t *testing.T) {
	srv := setupTestServer(testAtomFeed)
	defer srv.Close()

	f := NewFetcher()
	items, err := f.Fetch(context.Background(), Source{Name: "Atom Blog", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch Atom 失败: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("期望 1 条，得到 %d 条", len(items))
	}
	if items[0].Title != "Atom 文章" {
		t.Errorf("标题不匹配: %s", items[0].Title)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), Source{Name: "Bad", URL: srv.URL}); err == nil {
		t.Fatal("非 200 响应应返回错误")
	}
}

func TestFetch_InvalidXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not xml at all")
	}))
	defer srv.Close()

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), Source{Name: "Bad", URL: srv.URL}); err == nil {
		t.Fatal("非法 XML 应返回错误")
	}
}

func TestFetch_UnreachableHost(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), Source{Name: "Down", URL: "http://127.0.0.1:1/feed"})
	if err == nil {
		t.Fatal("连接失败应返回错误")
	}
}

func TestFetch_UserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer srv.Close()

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), Source{Name: "UA", URL: srv.URL}); err != nil {
		t.Fatalf("Fetch 失败: %v", err)
	}
	if gotUA != "newsrelay/1.0 RSS Reader" {
		t.Errorf("User-Agent 不匹配: %q", gotUA)
	}
}
