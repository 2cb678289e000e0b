package xcheckpoint

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderState struct {
	Phase   string   `json:"phase"`
	Items   []string `json:"items"`
	Retries int      `json:"retries"`
}

func TestManager_CreateAndRollback(t *testing.T) {
	mgr := NewManager()

	state := &orderState{Phase: "sync", Items: []string{"a", "b"}, Retries: 1}
	cp, err := mgr.Create("order-1", state, "before phase 2")
	require.NoError(t, err)

	assert.Equal(t, "order-1", cp.OperationID)
	assert.Equal(t, "before phase 2", cp.Description)
	assert.True(t, strings.HasPrefix(cp.ID, "order-1-"))

	// 深拷贝：创建后修改原对象不影响快照
	state.Phase = "mutated"
	state.Items[0] = "mutated"

	restored, err := RollbackInto[orderState](mgr, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, orderState{Phase: "sync", Items: []string{"a", "b"}, Retries: 1}, restored)
}

func TestManager_RollbackGeneric(t *testing.T) {
	mgr := NewManager()

	cp, err := mgr.Create("op", map[string]any{"count": 3}, "")
	require.NoError(t, err)

	got, err := mgr.Rollback(cp.ID)
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), m["count"])
}

func TestManager_RollbackErrors(t *testing.T) {
	mgr := NewManager()

	_, err := mgr.Rollback("missing-id")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	cp, err := mgr.Create("op", map[string]any{"nested": map[string]any{"a": 1}}, "")
	require.NoError(t, err)

	// 目标类型不匹配
	_, err = RollbackInto[int](mgr, cp.ID)
	assert.ErrorIs(t, err, ErrDeserialize)

	// 回滚失败不影响管理器中的检查点
	_, err = mgr.Rollback(cp.ID)
	assert.NoError(t, err)
}

func TestManager_CreateErrors(t *testing.T) {
	mgr := NewManager()

	_, err := mgr.Create("", "state", "")
	assert.ErrorIs(t, err, ErrEmptyOperationID)

	// channel 不可 JSON 化
	_, err = mgr.Create("op", make(chan int), "")
	assert.ErrorIs(t, err, ErrSerialize)
	assert.Equal(t, 0, mgr.Stats().Total)

	var nilMgr *Manager
	_, err = nilMgr.Create("op", "state", "")
	assert.ErrorIs(t, err, ErrNilManager)
}

func TestManager_EvictsOldestGlobally(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	mgr := NewManager(WithMaxCheckpoints(3), WithClock(clk))

	first, err := mgr.Create("op-a", 1, "")
	require.NoError(t, err)
	_, err = mgr.Create("op-b", 2, "")
	require.NoError(t, err)
	_, err = mgr.Create("op-a", 3, "")
	require.NoError(t, err)

	// 第 4 个触发淘汰：op-a 的第一个检查点全局最旧
	_, err = mgr.Create("op-c", 4, "")
	require.NoError(t, err)

	st := mgr.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.PerOperation["op-a"])
	assert.Equal(t, 1, st.PerOperation["op-b"])
	assert.Equal(t, 1, st.PerOperation["op-c"])

	_, err = mgr.Rollback(first.ID)
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestManager_CheckpointsAndLatest(t *testing.T) {
	mgr := NewManager()

	_, err := mgr.Create("op-a", 1, "first")
	require.NoError(t, err)
	_, err = mgr.Create("op-a", 2, "second")
	require.NoError(t, err)
	_, err = mgr.Create("op-b", 3, "other")
	require.NoError(t, err)

	cps := mgr.Checkpoints("op-a")
	require.Len(t, cps, 2)
	assert.Equal(t, "first", cps[0].Description)
	assert.Equal(t, "second", cps[1].Description)

	all := mgr.Checkpoints("")
	assert.Len(t, all, 3)

	latest, ok := mgr.Latest("op-a")
	require.True(t, ok)
	assert.Equal(t, "second", latest.Description)

	_, ok = mgr.Latest("missing")
	assert.False(t, ok)
}

func TestManager_Clear(t *testing.T) {
	mgr := NewManager()

	_, _ = mgr.Create("op-a", 1, "")
	_, _ = mgr.Create("op-a", 2, "")
	_, _ = mgr.Create("op-b", 3, "")

	assert.Equal(t, 2, mgr.Clear("op-a"))
	assert.Equal(t, 0, mgr.Clear("op-a"))
	assert.Equal(t, 1, mgr.Stats().Total)

	assert.Equal(t, 1, mgr.ClearAll())
	assert.Equal(t, 0, mgr.Stats().Total)
}

func TestManager_Stats(t *testing.T) {
	mgr := NewManager()

	_, err := mgr.Create("op", map[string]string{"k": "v"}, "")
	require.NoError(t, err)

	st := mgr.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Greater(t, st.StateBytes, 0)
}

func TestManager_Concurrent(t *testing.T) {
	mgr := NewManager(WithMaxCheckpoints(100))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := mgr.Create("op", j, "")
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, mgr.Stats().Total)
}
