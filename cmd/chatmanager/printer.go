package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/memohai/chatmanager/internal/delivery"
	"github.com/memohai/chatmanager/internal/richtext"
	"github.com/memohai/chatmanager/internal/snapshot"
)

type outputMode int

const (
	modePlain outputMode = iota
	modeANSI
	modeJSON
)

// printer writes rendered components and delivery events. Color is used
// only when w is a terminal.
type printer struct {
	mu   sync.Mutex
	w    io.Writer
	mode outputMode
	ansi *richtext.ANSIEncoder
	// label names the receiver of an event.
	label func(delivery.Event) string
}

func newPrinter(w io.Writer, asJSON, actions bool) *printer {
	p := &printer{w: w, mode: modePlain, label: defaultLabel}
	switch {
	case asJSON:
		p.mode = modeJSON
	case isTerminal(w):
		p.mode = modeANSI
		p.ansi = richtext.NewANSIEncoder(w)
		p.ansi.ShowActions = actions
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func defaultLabel(ev delivery.Event) string {
	return ev.Target.String()
}

func (p *printer) text(n richtext.Node) string {
	if p.mode == modeANSI {
		return p.ansi.Encode(n)
	}
	return n.PlainText()
}

// Node prints one component on its own line.
func (p *printer) Node(n richtext.Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == modeJSON {
		return json.NewEncoder(p.w).Encode(n)
	}
	_, err := fmt.Fprintln(p.w, p.text(n))
	return err
}

// Line prints a plain status line.
func (p *printer) Line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == modeJSON {
		_ = json.NewEncoder(p.w).Encode(map[string]string{"info": fmt.Sprintf(format, args...)})
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Event prints one delivery event prefixed with its receiver.
func (p *printer) Event(ev delivery.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == modeJSON {
		return json.NewEncoder(p.w).Encode(ev)
	}
	to := p.label(ev)
	var err error
	switch ev.Type {
	case delivery.EventChat:
		_, err = fmt.Fprintf(p.w, "[%s] %s\n", to, p.text(*ev.Message))
	case delivery.EventActionBar:
		_, err = fmt.Fprintf(p.w, "[%s action bar] %s\n", to, p.text(*ev.Message))
	case delivery.EventView:
		_, err = io.WriteString(p.w, describeSnapshot(to, *ev.Snapshot))
	}
	return err
}

func describeSnapshot(to string, snap snapshot.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s view] %s (%s, %d slots)\n", to, richtext.Parse(snap.Title).PlainText(), snap.Kind, snap.Size)
	for i, item := range snap.Slots {
		if item.IsEmpty() || item.Material == snapshot.Filler.Material {
			continue
		}
		fmt.Fprintf(&b, "  #%-2d %s x%d", i, item.Material, item.Amount)
		if item.Name != "" {
			fmt.Fprintf(&b, " %q", item.Name)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
