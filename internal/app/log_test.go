package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLthHandler(t *testing.T) {
	t.Parallel()

	t.Run("formats records as tab separated fields", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		h := &lthHandler{w: &buf, opID: "20240615T120000Z-Save"}

		r := slog.NewRecord(time.Date(2024, 6, 15, 12, 0, 1, 0, time.UTC), slog.LevelInfo, "version captured", 0)
		r.AddAttrs(slog.String("path", "/tmp/f.txt"), slog.Bool("saved", true))

		if err := h.Handle(context.Background(), r); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}

		got := strings.TrimSuffix(buf.String(), "\n")
		want := "2024-06-15T12:00:01Z\tINFO\t20240615T120000Z-Save\tversion captured\tpath=/tmp/f.txt\tsaved=true"
		if got != want {
			t.Errorf("got  %q\nwant %q", got, want)
		}
	})

	t.Run("with attrs prepends preset attributes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		var h slog.Handler = &lthHandler{w: &buf, opID: "op"}
		h = h.WithAttrs([]slog.Attr{slog.String("component", "watcher")})

		r := slog.NewRecord(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), slog.LevelWarn, "watch error", 0)
		r.AddAttrs(slog.String("err", "boom"))

		if err := h.Handle(context.Background(), r); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}

		line := buf.String()
		if !strings.Contains(line, "\tcomponent=watcher\terr=boom") {
			t.Errorf("preset attr not before record attrs: %q", line)
		}
		if !strings.Contains(line, "\tWARN\t") {
			t.Errorf("level missing: %q", line)
		}
	})
}
