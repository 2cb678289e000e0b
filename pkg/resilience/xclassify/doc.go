// Package xclassify 提供基于有序规则的错误分类能力。
//
// 分类器将任意 error 映射为 Classification（类别、严重程度、可恢复性、
// 建议动作），供重试器、熔断器和恢复管理器做决策。
//
// # 规则模型
//
// 每条规则由 (匹配谓词, 分类结果, 优先级) 组成：
//   - 匹配谓词是对小写化错误消息的纯字符串匹配（子串匹配，刻意宽松）
//   - 规则按优先级降序排列，最高优先级的命中规则胜出
//   - 同优先级规则按插入顺序稳定排序
//
// 两条独立的内置规则可能同时命中同一条消息（例如 "503 system" 与
// "resource not found"），此时仅由优先级消除歧义，因此内置规则的
// 优先级阶梯不可随意调整。
//
// # 使用方式
//
//	c := xclassify.New()
//	cls := c.Classify(err)
//	if cls.Recoverable {
//	    // 按 cls.Action 决定重试/降级/熔断
//	}
//
// 无规则命中时返回默认分类：unknown / medium / 可恢复 / retry。
package xclassify
