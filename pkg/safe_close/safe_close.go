// Package safe_close 提供优雅关闭控制原语
// 所有长生命周期组件通过 Attach 挂载，统一接收关闭信号并等待退出
package safe_close

import (
	"sync"
)

type SafeClose struct {
	closeSignal chan struct{}
	closeOnce   sync.Once

	mu  sync.Mutex
	err error

	wg sync.WaitGroup
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach mounts a component goroutine
// f must call done() when it exits, and must exit after closeSignal is closed
// Attach 挂载一个组件协程
// f 退出时必须调用 done()，并且在 closeSignal 关闭后必须退出
func (sc *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	sc.wg.Add(1)
	var doneOnce sync.Once
	done := func() {
		doneOnce.Do(sc.wg.Done)
	}
	go f(done, sc.closeSignal)
}

// SendCloseSignal closes the signal channel, the first error is kept
// SendCloseSignal 发送关闭信号，保留首个错误
func (sc *SafeClose) SendCloseSignal(err error) {
	sc.closeOnce.Do(func() {
		sc.mu.Lock()
		sc.err = err
		sc.mu.Unlock()
		close(sc.closeSignal)
	})
}

// CloseSignal returns the close signal channel
func (sc *SafeClose) CloseSignal() <-chan struct{} {
	return sc.closeSignal
}

// WaitClosed blocks until all attached goroutines have called done()
// WaitClosed 阻塞直到所有挂载的协程调用 done()
func (sc *SafeClose) WaitClosed() error {
	sc.wg.Wait()
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.err
}
