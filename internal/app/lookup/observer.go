package lookup

import "time"

// Observer 把查询各阶段的耗时与统计从核心流程中解耦出来。
//
// 约束：
// - lookup 包只负责发事件，不做任何输出。
// - 实现必须并发安全：bot 模式下多个查询并行执行。
type Observer interface {
	// OnStage 在阶段结束时调用，name 取值 search/fetch/parse/image/render。
	OnStage(name string, fields map[string]any, dur time.Duration)
}

// ObserverFunc 让普通函数满足 Observer。
type ObserverFunc func(name string, fields map[string]any, dur time.Duration)

func (f ObserverFunc) OnStage(name string, fields map[string]any, dur time.Duration) {
	f(name, fields, dur)
}
