// Package display renders classification results as a bar chart.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
)

// Display is a bar chart with one bar per label
type Display interface {
	// Configure sets the chart axis. It is called once, before any Update.
	Configure(labels []string)

	// Update replaces the bars with entries
	Update(entries []interpreter.DisplayEntry)
}

// FormatPercentage formats a bar value, e.g. "55.0%"
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Bar draws p percent of width cells
func Bar(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	filled := int(p*float64(width)/100 + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat(" ", width-filled)
}

// Top returns the highest entry, or false when entries is empty
func Top(entries []interpreter.DisplayEntry) (interpreter.DisplayEntry, bool) {
	if len(entries) == 0 {
		return interpreter.DisplayEntry{}, false
	}
	top := entries[0]
	for _, e := range entries[1:] {
		if e.Percentage > top.Percentage {
			top = e
		}
	}
	return top, true
}

// Console prints the chart as text, one line per label
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	labels []string
	bars   map[int]float64
}

// NewConsole creates a console chart writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		width: 30,
		bars:  map[int]float64{},
	}
}

// Configure implements Display
func (c *Console) Configure(labels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.labels = append([]string(nil), labels...)
	c.render()
}

// Update implements Display
func (c *Console) Update(entries []interpreter.DisplayEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bars = make(map[int]float64, len(entries))
	for _, e := range entries {
		if e.Index < 0 || e.Index >= len(c.labels) {
			continue
		}
		c.bars[e.Index] = e.Percentage
	}
	c.render()
}

// Bars returns the percentage currently shown per label index
func (c *Console) Bars() map[int]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	bars := make(map[int]float64, len(c.bars))
	for k, v := range c.bars {
		bars[k] = v
	}
	return bars
}

func (c *Console) render() {
	labelWidth := 0
	for _, l := range c.labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, label := range c.labels {
		p, ok := c.bars[i]
		fmt.Fprintf(&b, "%-*s |%s|", labelWidth, label, Bar(p, c.width))
		if ok {
			fmt.Fprintf(&b, " %s", FormatPercentage(p))
		}
		b.WriteString("\n")
	}
	io.WriteString(c.out, b.String())
}
