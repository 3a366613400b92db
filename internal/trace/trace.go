// internal/trace/trace.go

package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"preemptq/internal/sched"
)

// Console prints one line per scheduler event. Slice events are skipped for
// the brevity of output.
type Console struct {
	w   io.Writer
	now func() time.Time
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

func (c *Console) Observe(ev sched.StatusEvent) {
	if ev.Kind == sched.StatusSlice {
		return
	}

	// an auxiliary function to center the event kind in the output
	center := func(str string, width int) string {
		spaces := (width - len(str)) / 2
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
	}

	fmt.Fprintf(c.w, "%s [%s] => Work: %04d, priority=%-13s remaining=%04d\n",
		c.now().Format("Jan 02 15:04:05.000"),
		center(ev.Kind.String(), 10),
		ev.WorkID,
		ev.Priority,
		ev.Remaining,
	)
}

// CSV writes every event as a CSV record.
type CSV struct {
	file *os.File
	w    *csv.Writer
	now  func() time.Time
	err  error
}

var csvHeader = []string{"timestamp", "event", "work_id", "priority", "ran_steps", "remaining"}

// CreateCSV opens the given file path for CSV logging of events.
func CreateCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv log: %w", err)
	}
	c := NewCSV(f)
	c.file = f
	return c, c.err
}

// NewCSV writes CSV records to w, starting with the header.
func NewCSV(w io.Writer) *CSV {
	c := &CSV{w: csv.NewWriter(w), now: time.Now}
	c.write(csvHeader)
	return c
}

func (c *CSV) Observe(ev sched.StatusEvent) {
	c.write([]string{
		c.now().Format(time.RFC3339Nano),
		ev.Kind.String(),
		strconv.FormatUint(uint64(ev.WorkID), 10),
		ev.Priority.String(),
		strconv.Itoa(ev.RanSteps),
		strconv.Itoa(ev.Remaining),
	})
}

func (c *CSV) write(rec []string) {
	if c.err != nil {
		return
	}
	if err := c.w.Write(rec); err != nil {
		c.err = err
		return
	}
	c.w.Flush()
	c.err = c.w.Error()
}

// Err returns the first write error.
func (c *CSV) Err() error { return c.err }

// Close flushes and closes the underlying file, if the sink owns one.
func (c *CSV) Close() error {
	c.w.Flush()
	if c.err == nil {
		c.err = c.w.Error()
	}
	if c.file == nil {
		return c.err
	}
	if err := c.file.Close(); err != nil && c.err == nil {
		c.err = err
	}
	return c.err
}
