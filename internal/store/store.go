// Package store 持久化已推送文章的去重标识。
package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// maxEntries 持久化的标识数量上限，超出部分按最早发现顺序淘汰。
const maxEntries = 2000

// SentStore 已推送文章标识的集合，带平文件持久化。
// 内部用切片维护发现顺序，淘汰时严格先进先出。
type SentStore struct {
	path string
	ids  []string
	seen map[string]struct{}
}

// Open 加载持久化文件并返回 SentStore。
// 文件不存在时返回空集合；文件内容不是合法的 JSON 数组时返回错误，
// 由调用方在启动阶段直接失败。
func Open(path string) (*SentStore, error) {
	s := &SentStore{
		path: path,
		seen: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("读取状态文件 %s 失败: %w", path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("状态文件 %s 格式错误: %w", path, err)
	}
	for _, id := range ids {
		s.add(id)
	}
	return s, nil
}

// Contains 判断标识是否已存在。
func (s *SentStore) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Add 记录一个标识。已存在则不做任何事。
func (s *SentStore) Add(id string) {
	s.add(id)
}

func (s *SentStore) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.ids = append(s.ids, id)
	s.seen[id] = struct{}{}
}

// Len 返回当前标识数量。
func (s *SentStore) Len() int {
	return len(s.ids)
}

// Save 将标识集合写回文件，最多保留最近的 maxEntries 条。
func (s *SentStore) Save() error {
	if len(s.ids) > maxEntries {
		evicted := s.ids[:len(s.ids)-maxEntries]
		for _, id := range evicted {
			delete(s.seen, id)
		}
		s.ids = append([]string(nil), s.ids[len(s.ids)-maxEntries:]...)
	}

	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("写入状态文件 %s 失败: %w", s.path, err)
	}
	return nil
}
