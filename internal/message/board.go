// Package message keeps transient form status messages and clears them on a timer.
package message

import (
	"sync"
	"time"

	"github.com/JakeFAU/mcatedge-landing/internal/clock/system"
	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const (
	defaultSuccessClear = 8 * time.Second
	defaultLoadingClear = 10 * time.Second
)

// Clock supplies time and timers to the Board.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) system.Timer
}

// Message is the text currently shown on a target. ClearAt is zero when no clear is pending.
type Message struct {
	Text    string
	Kind    waitlist.MessageKind
	ClearAt time.Time
}

// Config controls auto-clear delays.
//   - SuccessClear: delay before a success message is cleared (default 8s).
//   - LoadingClear: delay before a loading message is cleared if still shown (default 10s).
//   - Clock: time source (defaults to the system clock).
type Config struct {
	SuccessClear time.Duration
	LoadingClear time.Duration
	Clock        Clock
}

// Board implements waitlist.MessageView over in-memory targets. It is safe for concurrent use.
type Board struct {
	mu       sync.Mutex
	messages map[string]Message
	cfg      Config
}

// NewBoard builds an empty Board.
func NewBoard(cfg Config) *Board {
	if cfg.SuccessClear <= 0 {
		cfg.SuccessClear = defaultSuccessClear
	}
	if cfg.LoadingClear <= 0 {
		cfg.LoadingClear = defaultLoadingClear
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	return &Board{
		messages: make(map[string]Message),
		cfg:      cfg,
	}
}

// Show replaces the message on target. Success messages clear after SuccessClear
// unconditionally; loading messages clear after LoadingClear only if the same loading
// text is still displayed.
func (b *Board) Show(target, text string, kind waitlist.MessageKind) {
	now := b.cfg.Clock.Now()
	msg := Message{Text: text, Kind: kind}
	switch kind {
	case waitlist.KindSuccess:
		msg.ClearAt = now.Add(b.cfg.SuccessClear)
	case waitlist.KindLoading:
		msg.ClearAt = now.Add(b.cfg.LoadingClear)
	}

	b.mu.Lock()
	b.messages[target] = msg
	b.mu.Unlock()

	switch kind {
	case waitlist.KindSuccess:
		b.cfg.Clock.AfterFunc(b.cfg.SuccessClear, func() { b.Clear(target) })
	case waitlist.KindLoading:
		b.cfg.Clock.AfterFunc(b.cfg.LoadingClear, func() { b.clearIf(target, text, kind) })
	}
}

// Get returns the message on target.
func (b *Board) Get(target string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, ok := b.messages[target]
	return msg, ok
}

// Clear removes whatever is shown on target.
func (b *Board) Clear(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.messages, target)
}

func (b *Board) clearIf(target, text string, kind waitlist.MessageKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.messages[target]; ok && cur.Text == text && cur.Kind == kind {
		delete(b.messages, target)
	}
}
