package ui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/p-n-ai/playground/internal/page"
)

type snapshotMsg struct{ snap page.Snapshot }

type announceMsg struct{ text string }

// Bridge forwards page output into a running Bubble Tea program. It
// implements page.Renderer and page.MessageAnnouncer. Output sent before
// Attach is dropped.
type Bridge struct {
	mu      sync.RWMutex
	program *tea.Program
}

// Attach connects the bridge to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	p := b.program
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (b *Bridge) Render(s page.Snapshot) {
	b.send(snapshotMsg{snap: s})
}

func (b *Bridge) Announce(text string) {
	b.send(announceMsg{text: text})
}

// Bell plays sounds as terminal bells: two for success, one for anything
// else.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *Bell) Play(sound string) {
	if b == nil || b.W == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	seq := "\a"
	if sound == page.SoundSuccess {
		seq = "\a\a"
	}
	_, _ = io.WriteString(b.W, seq)
}
