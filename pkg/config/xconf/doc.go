// Package xconf 提供恢复策略配置的加载与应用。
//
// 配置文件（YAML 或 JSON，按扩展名检测）描述命名恢复策略与
// 指标设置，Apply 将其注册到 xrecover.Manager 上。降级函数
// 无法从文件表达，仍通过代码注册。
//
// # 配置结构
//
//	strategies:
//	  critical:
//	    retry:
//	      strategy: exponential
//	      maxAttempts: 5
//	      baseDelay: 100ms
//	      maxDelay: 5s
//	      multiplier: 2.0
//	      jitter: true
//	      retryableCategories: [network, timeout]
//	    breaker:
//	      failureThreshold: 3
//	      recoveryTimeout: 10s
//	      monitoringWindow: 2m
//	      minimumThroughput: 5
//	    enableState: true
//	    enableMetrics: true
//	metrics:
//	  retention: 1h
//	  cleanupInterval: 1m
//
// # 热更新
//
// Watch 基于 fsnotify 监视配置文件变更，防抖后重载并回调；
// 回调内通常再次调用 Apply 完成策略热替换。
package xconf
