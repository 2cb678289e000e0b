// Package xcheckpoint 提供操作状态的检查点管理。
//
// 检查点是操作状态在某一时刻的 JSON 深拷贝快照，用于失败后回滚。
// 快照在创建时序列化，与调用方持有的原对象完全解耦：调用方随后
// 修改原对象不会影响已保存的检查点。
//
// # 容量控制
//
// Manager 维护全局检查点数量上限（默认 50），超出时按时间戳全局
// 淘汰最旧的检查点，不区分操作归属。
//
// # 使用方式
//
//	mgr := xcheckpoint.NewManager()
//	cp, err := mgr.Create("order-sync", snapshot, "before phase 2")
//	...
//	restored, err := xcheckpoint.RollbackInto[OrderState](mgr, cp.ID)
//
// Rollback 失败（检查点不存在、快照损坏）只影响本次调用，
// 不影响 Manager 中的其他检查点。
package xcheckpoint
