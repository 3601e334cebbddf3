package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-pbsync/pkg/interfaces"
	"github.com/dep2p/go-pbsync/pkg/types"
)

// TestBus_ImplementsInterface 验证 Bus 实现接口
func TestBus_ImplementsInterface(t *testing.T) {
	var _ pkgif.EventBus = (*Bus)(nil)
}

// TestBus_EmitAndReceive 测试事件发射和接收
func TestBus_EmitAndReceive(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.ConnectionStateChanged))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(types.ConnectionStateChanged))
	require.NoError(t, err)
	defer em.Close()

	want := &types.ConnectionStateChanged{
		Device:   "AA:BB:CC",
		Previous: types.StateDisconnected,
		Current:  types.StateConnecting,
	}
	require.NoError(t, em.Emit(want))

	select {
	case got := <-sub.Out():
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

// TestBus_NonPointerType 测试非指针类型报错
func TestBus_NonPointerType(t *testing.T) {
	bus := NewBus()

	_, err := bus.Subscribe(types.ConnectionStateChanged{})
	assert.ErrorIs(t, err, ErrNonPointerType)

	_, err = bus.Emitter(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

// TestBus_Stateful 测试有状态发射器补发最后事件
func TestBus_Stateful(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.ConnectionStateChanged), pkgif.Stateful())
	require.NoError(t, err)
	defer em.Close()

	want := &types.ConnectionStateChanged{Device: "X", Current: types.StateConnected}
	require.NoError(t, em.Emit(want))

	// 事件发射后才订阅，仍能收到最后一次事件
	sub, err := bus.Subscribe(new(types.ConnectionStateChanged))
	require.NoError(t, err)
	defer sub.Close()

	select {
	case got := <-sub.Out():
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("stateful replay not delivered")
	}
}

// TestSubscription_CloseTwice 测试重复关闭
func TestSubscription_CloseTwice(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.ConnectionStateChanged))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}

// TestEmitter_EmitAfterClose 测试关闭后发射报错
func TestEmitter_EmitAfterClose(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.ConnectionStateChanged))
	require.NoError(t, err)
	require.NoError(t, em.Close())

	assert.Error(t, em.Emit(&types.ConnectionStateChanged{}))
}
