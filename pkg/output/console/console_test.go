package console

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ericogr/hx711-monitor/pkg/sensor"
)

func captureStdout(f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()
	f()
	_ = w.Close()
	os.Stdout = stdout
	return <-outC
}

func fourModuleBatch() sensor.Batch {
	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	weights := []float64{101, 102, 100, 103}
	b := sensor.Batch{Timestamp: ts}
	for i, w := range weights {
		b.Readings = append(b.Readings, sensor.Reading{Channel: i + 1, Weight: w, Timestamp: ts})
	}
	return b
}

func TestConsolePublish(t *testing.T) {
	c := NewConsole()
	out := captureStdout(func() { _ = c.Publish(fourModuleBatch()) })
	want := "--- 2025-09-19 14:41:54 ---\n" +
		"Module 1: 101.00 g\n" +
		"Module 2: 102.00 g\n" +
		"Module 3: 100.00 g\n" +
		"Module 4: 103.00 g\n"
	if out != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", out, want)
	}
}

func TestConsolePublishIsIdempotent(t *testing.T) {
	var first, second bytes.Buffer
	b := fourModuleBatch()
	if err := NewConsoleWriter(&first).Publish(b); err != nil {
		t.Fatal(err)
	}
	c := NewConsoleWriter(&second)
	if err := c.Publish(b); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Fatalf("outputs differ:\n%q\n%q", first.String(), second.String())
	}
	second.Reset()
	_ = c.Publish(b)
	if first.String() != second.String() {
		t.Fatalf("second publish differs:\n%q\n%q", first.String(), second.String())
	}
}

func TestConsoleRoundsToTwoDecimals(t *testing.T) {
	var buf bytes.Buffer
	b := sensor.Batch{Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Readings: []sensor.Reading{{Channel: 1, Weight: -0.004}, {Channel: 2, Weight: 12.345678}}}
	if err := NewConsoleWriter(&buf).Publish(b); err != nil {
		t.Fatal(err)
	}
	want := "--- 2025-01-02 03:04:05 ---\nModule 1: -0.00 g\nModule 2: 12.35 g\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}
