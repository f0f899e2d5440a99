// Package locker provides short-lived named locks
// Package locker 提供短期的命名锁
package locker

import (
	"context"
	"sync"
)

// Unlock releases a held lock, calling it more than once is a no-op
// Unlock 释放已持有的锁，重复调用无副作用
type Unlock func()

// Locker acquires a lock on a name until ctx is done
// Locker 在 ctx 结束前获取指定名称的锁
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex
// Local 进程内的按键互斥锁
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocal 创建进程内锁
func NewLocal() *Local {
	return &Local{entries: make(map[string]*localEntry)}
}

func (l *Local) acquire(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Local) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	e := l.acquire(key)
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

// Held returns the number of keys currently locked or waited on
// Held 返回当前被持有或等待中的键数量
func (l *Local) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
