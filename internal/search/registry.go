package search

import (
	"fmt"
	"strings"
)

// Registry 是搜索后端的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Searcher
}

func NewRegistry(searchers ...Searcher) (Registry, error) {
	byName := make(map[string]Searcher, len(searchers))
	for _, s := range searchers {
		if s == nil {
			return Registry{}, fmt.Errorf("searcher 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(s.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("searcher.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 searcher：%q", name)
		}
		byName[name] = s
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Searcher, bool) {
	if r.byName == nil {
		return nil, false
	}
	s, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}
