// Package scrape 把 IMDb 详情页 HTML 解析为结构化记录。
//
// 约束：
// - 解析必须是纯函数：相同输入 => 相同输出
// - 任何字段缺失都不算失败（留空，由渲染层替换占位符）；只有空输入/无法解析的文档才返回错误
// - 优先读取页面上用户可见的位置（og: meta、data-testid），JSON-LD 只用于补缺
package scrape
