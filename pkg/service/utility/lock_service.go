/*
 * @Description: 按键加锁，用于串行化同一草稿的读改写
 * @Author: 安知鱼
 * @Date: 2025-07-14 01:41:43
 * @LastEditTime: 2026-10-16 16:52:30
 * @LastEditors: 安知鱼
 */
package utility

import "sync"

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// KeyedLocker 为每个字符串键提供独立的互斥锁。
// 同一个键的操作串行执行，不同键互不阻塞；没有等待者的锁会被回收。
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

// NewKeyedLocker 创建一个新的 KeyedLocker 实例。
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[string]*keyedLock),
	}
}

// Lock 获取给定键的锁，已被持有时阻塞等待。
func (l *KeyedLocker) Lock(key string) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyedLock{}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
}

// Unlock 释放给定键的锁。
func (l *KeyedLocker) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
	lock.mu.Unlock()
}

// WithLock 在持有键锁期间执行 fn
func (l *KeyedLocker) WithLock(key string, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}

// size 返回当前仍在使用的锁数量
func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
