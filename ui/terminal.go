// Package ui renders timelines and recent chats on a terminal.
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"qleon/domain/chat"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var (
	sentStyle     = color.New(color.FgCyan)
	receivedStyle = color.New(color.FgGreen, color.OpBold)
	timeStyle     = color.New(color.FgGray)
)

// Terminal prints chat rows as they are inserted.
// It is meant to be wrapped in a projection.DiffSink.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Render prints every inserted row, oldest first.
func (t *Terminal) Render(_ context.Context, changes chat.Changes) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, insertion := range changes.Insertions {
		if _, err := fmt.Fprintln(t.out, FormatMessage(insertion.Message)); err != nil {
			return err
		}
	}
	return nil
}

// Printf writes a status line between chat rows.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func FormatMessage(m chat.Message) string {
	at := timeStyle.Sprint(time.UnixMilli(m.Timestamp).Format("15:04:05"))
	switch m.Direction {
	case chat.Sent:
		return fmt.Sprintf("%s %s", at, sentStyle.Sprintf("me > %s", m.Content))
	default:
		return fmt.Sprintf("%s %s", at, receivedStyle.Sprintf("%s > %s", m.Sender, m.Content))
	}
}

// RenderRecentChats prints the recent chats list as a table.
func (t *Terminal) RenderRecentChats(summaries []chat.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(t.out, "No recent chats")
		return
	}
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Contact", "Last message", "At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, s := range summaries {
		last := s.LastMessage
		if s.Direction == chat.Sent {
			last = "you: " + last
		}
		table.Append([]string{s.Contact, last, s.At.Local().Format(time.DateTime)})
	}
	table.Render()
}
