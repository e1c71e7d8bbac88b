package sqltrace

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/annotator/dbopen"
	"github.com/hazyhaar/annotator/kit"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func lines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		if json.Unmarshal([]byte(l), &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

func TestDriver_LogsStatements(t *testing.T) {
	buf := capture(t)
	db := dbopen.OpenMemory(t, dbopen.WithDriver(DriverName),
		dbopen.WithSchema("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"))
	buf.Reset()

	ctx := kit.WithRequestID(context.Background(), "req-42")
	if _, err := db.ExecContext(ctx, "INSERT INTO kv (k, v)\n\tVALUES (?, ?)", "a", "1"); err != nil {
		t.Fatal(err)
	}
	var v string
	if err := db.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil || v != "1" {
		t.Fatalf("select = %q, %v", v, err)
	}

	recs := lines(buf)
	if len(recs) < 2 {
		t.Fatalf("got %d trace lines: %s", len(recs), buf)
	}
	ins := recs[0]
	if ins["op"] != "exec" || ins["query"] != "INSERT INTO kv (k, v) VALUES (?, ?)" || ins["request_id"] != "req-42" {
		t.Errorf("insert trace = %v", ins)
	}
	if ins["level"] != "DEBUG" {
		t.Errorf("level = %v", ins["level"])
	}
	if recs[1]["op"] != "query" {
		t.Errorf("select trace = %v", recs[1])
	}
}

func TestDriver_ErrorsAndPragmas(t *testing.T) {
	buf := capture(t)
	db := dbopen.OpenMemory(t, dbopen.WithDriver(DriverName))
	buf.Reset()

	if _, err := db.Exec("PRAGMA user_version"); err != nil {
		t.Fatal(err)
	}
	if len(lines(buf)) != 0 {
		t.Fatalf("fast pragma was logged: %s", buf)
	}

	if _, err := db.Exec("INSERT INTO missing VALUES (1)"); err == nil {
		t.Fatal("expected an error")
	}
	recs := lines(buf)
	if len(recs) == 0 {
		t.Fatal("failed statement not logged")
	}
	last := recs[len(recs)-1]
	if last["level"] != "ERROR" || last["error"] == nil {
		t.Errorf("failure trace = %v", last)
	}
}
