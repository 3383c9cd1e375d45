package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を注入するためのインターフェース
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem は time.Now を使うクロックを返す
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed は常に同じ時刻を返すクロックを返す（テスト用）
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Manual はテストから時刻を進められるクロック
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual は指定時刻から始まる Manual を返す
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance は時刻を d だけ進める
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set は時刻を t に設定する
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}
