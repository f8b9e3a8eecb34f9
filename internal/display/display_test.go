package display

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
)

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{55.0, "55.0%"},
		{99.0, "99.0%"},
		{20.01, "20.0%"},
		{100, "100.0%"},
	}

	for _, tt := range tests {
		if got := FormatPercentage(tt.p); got != tt.want {
			t.Errorf("FormatPercentage(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "          "},
		{50, "#####     "},
		{100, "##########"},
		{150, "##########"},
		{-5, "          "},
	}

	for _, tt := range tests {
		if got := Bar(tt.p, 10); got != tt.want {
			t.Errorf("Bar(%v, 10) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestTop(t *testing.T) {
	if _, ok := Top(nil); ok {
		t.Error("Top(nil) should report no entry")
	}

	top, ok := Top([]interpreter.DisplayEntry{{Index: 0, Percentage: 30}, {Index: 3, Percentage: 55}, {Index: 1, Percentage: 40}})
	if !ok || top.Index != 3 {
		t.Errorf("Top() = %+v, %v; want index 3", top, ok)
	}
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	c.Configure(interpreter.DefaultLabels())
	if !strings.Contains(out.String(), "Belly Pain") {
		t.Errorf("axis labels missing from output:\n%s", out.String())
	}

	out.Reset()
	c.Update([]interpreter.DisplayEntry{{Index: 3, Percentage: 55}})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[3], "Hungry") || !strings.HasSuffix(lines[3], "55.0%") {
		t.Errorf("Hungry line = %q", lines[3])
	}
	if strings.Contains(lines[0], "%") {
		t.Errorf("Tired line should have no value: %q", lines[0])
	}
}

func TestConsole_ReplacesBars(t *testing.T) {
	c := NewConsole(&bytes.Buffer{})
	c.Configure(interpreter.DefaultLabels())

	c.Update([]interpreter.DisplayEntry{{Index: 3, Percentage: 55}})
	c.Update([]interpreter.DisplayEntry{{Index: 1, Percentage: 99}, {Index: 9, Percentage: 50}})

	bars := c.Bars()
	if len(bars) != 1 || bars[1] != 99 {
		t.Errorf("Bars() = %v, want only index 1", bars)
	}
}

type recordingDisplay struct {
	mu          sync.Mutex
	configured  []string
	updates     [][]interpreter.DisplayEntry
	configFirst bool
}

func (r *recordingDisplay) Configure(labels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configured = labels
	r.configFirst = len(r.updates) == 0
}

func (r *recordingDisplay) Update(entries []interpreter.DisplayEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, entries)
}

func (r *recordingDisplay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func TestDispatcher_Order(t *testing.T) {
	rec := &recordingDisplay{}
	dp := NewDispatcher(rec, interpreter.DefaultLabels(), 4)

	for i := 0; i < 20; i++ {
		dp.Update([]interpreter.DisplayEntry{{Index: i % 5, Percentage: float64(i)}})
	}

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 20 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of 20 updates delivered", rec.count())
		}
		time.Sleep(time.Millisecond)
	}
	dp.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if !rec.configFirst || len(rec.configured) != 5 {
		t.Errorf("Configure not called first with labels: %v", rec.configured)
	}
	for i, u := range rec.updates {
		if u[0].Percentage != float64(i) {
			t.Fatalf("update %d out of order: %+v", i, u)
		}
	}
}

func TestDispatcher_UpdateAfterClose(t *testing.T) {
	rec := &recordingDisplay{}
	dp := NewDispatcher(rec, []string{"Tired"}, 1)
	dp.Close()
	dp.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			dp.Update([]interpreter.DisplayEntry{{Index: 0, Percentage: 50}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked after Close")
	}
}
