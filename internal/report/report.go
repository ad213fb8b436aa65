// Package report renders a live tree of task progress to a terminal. It
// reads task state on a fixed interval; it never mutates the tasks it
// observes.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bqport/bqport/internal/task"
)

const redrawInterval = 100 * time.Millisecond

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	spinnerFrames = spinner.Dot.Frames
)

// Entry is one named task the reporter tracks, grouped into a tree by
// splitting Name on "/".
type Entry struct {
	Name string
	Task *task.Task
}

// Reporter periodically redraws a tree of task entries to w until every
// task is done or ctx is cancelled.
type Reporter struct {
	w       io.Writer
	entries []Entry
	color   bool

	mu        sync.Mutex
	frame     int
	lastLines int
}

// New creates a Reporter over entries, writing to w. Color output follows
// termenv's environment-based profile detection; w itself is not inspected.
func New(w io.Writer, entries []Entry) *Reporter {
	color := termenv.EnvColorProfile() != termenv.Ascii
	return &Reporter{w: w, entries: entries, color: color}
}

// Run blocks, redrawing every 100ms, until every tracked task has reached a
// terminal state or ctx is cancelled. It performs one final redraw before
// returning so the last frame always reflects terminal state.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		r.redraw()
		if r.allDone() {
			return
		}
		select {
		case <-ctx.Done():
			r.redraw()
			return
		case <-ticker.C:
			r.mu.Lock()
			r.frame++
			r.mu.Unlock()
		}
	}
}

func (r *Reporter) allDone() bool {
	for _, e := range r.entries {
		if !e.Task.Done() {
			return false
		}
	}
	return true
}

func (r *Reporter) redraw() {
	r.mu.Lock()
	frame := r.frame
	lastLines := r.lastLines
	r.mu.Unlock()

	lines := r.render(frame)

	if lastLines > 0 {
		fmt.Fprintf(r.w, "\033[%dA", lastLines)
	}
	for _, l := range lines {
		fmt.Fprint(r.w, "\033[2K", l, "\n")
	}

	r.mu.Lock()
	r.lastLines = len(lines)
	r.mu.Unlock()
}

// render builds the tree's lines without writing anything, so it can be
// unit tested independent of terminal escape sequences.
func (r *Reporter) render(frame int) []string {
	type node struct {
		children map[string]*node
		entry    *Entry
		names    []string
	}
	root := &node{children: map[string]*node{}}

	for i := range r.entries {
		e := &r.entries[i]
		parts := strings.Split(e.Name, "/")
		cur := root
		for depth, part := range parts {
			next, ok := cur.children[part]
			if !ok {
				next = &node{children: map[string]*node{}}
				cur.children[part] = next
				cur.names = append(cur.names, part)
			}
			if depth == len(parts)-1 {
				next.entry = e
			}
			cur = next
		}
	}

	var lines []string
	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		names := append([]string(nil), n.names...)
		sort.Strings(names)
		for _, name := range names {
			child := n.children[name]
			indent := strings.Repeat("  ", depth)
			if child.entry != nil {
				lines = append(lines, indent+r.renderEntry(child.entry, frame, name))
				if child.entry.Task.Status() == task.StatusFailed {
					msg := child.entry.Task.Message()
					for _, l := range strings.Split(msg, "\n") {
						lines = append(lines, indent+"    "+styled(r.color, styleDim, l))
					}
				}
			} else {
				lines = append(lines, indent+name)
			}
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return lines
}

func (r *Reporter) renderEntry(e *Entry, frame int, label string) string {
	switch e.Task.Status() {
	case task.StatusPending:
		return " " + label
	case task.StatusRunning:
		glyph := spinnerFrames[frame%len(spinnerFrames)]
		return styled(r.color, styleRunning, glyph) + " " + label
	case task.StatusSuccess:
		msg := e.Task.Message()
		if msg == "" {
			return styled(r.color, styleSuccess, "✓") + " " + label
		}
		return styled(r.color, styleSuccess, "✓") + " " + label + " " + styled(r.color, styleDim, "("+msg+")")
	case task.StatusFailed:
		return styled(r.color, styleFailed, "✗") + " " + label
	default:
		return "  " + label
	}
}

func styled(color bool, style lipgloss.Style, s string) string {
	if !color {
		return s
	}
	return style.Render(s)
}
