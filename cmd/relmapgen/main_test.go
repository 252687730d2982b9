package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lgr.SetupStdLogger(lgr.Out(io.Discard), lgr.Err(io.Discard))
	os.Exit(m.Run())
}

const userSrc = "package models\n\ntype User struct {\n\tID   int64  `db:\"id,pk,autoincrement\"`\n\tName string `db:\"name,notnull\"`\n}\n"

func makeModule(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.22\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.go"), []byte(userSrc), 0o600))
	return dir
}

func Test_run(t *testing.T) {
	dir := makeModule(t)
	opts := options{Dir: dir, TableCase: "snake", Plural: true, Output: "schema_gen.go"}
	opts.Positional.Patterns = []string{"./..."}

	require.NoError(t, run(context.Background(), opts))
	src, err := os.ReadFile(filepath.Join(dir, "schema_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), `schema.Table("users",`)
	assert.Contains(t, string(src), `.PrimaryKey().AutoIncrement(),`)

	opts.Output = "schema.txt"
	err = run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't make generator")

	opts.Output = "schema_gen.go"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.go"), []byte("package models\n\ntype User struct {\n\tC chan int `db:\"c\"`\n}\n"), 0o600))
	err = run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed")
}

func Test_runWatch(t *testing.T) {
	dir := makeModule(t)
	opts := options{Dir: dir, TableCase: "keep", Output: "relmap_schema.go", Watch: true, Debounce: 20 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, opts) }()

	out := filepath.Join(dir, "relmap_schema.go")
	require.Eventually(t, func() bool {
		_, err := os.Stat(out)
		return err == nil
	}, 30*time.Second, 50*time.Millisecond)

	withAge := strings.Replace(userSrc, "}\n", "\tAge  int\n}\n", 1)
	assert.Eventually(t, func() bool {
		// rewrite on every tick, the watcher may not be registered yet
		if err := os.WriteFile(filepath.Join(dir, "models.go"), []byte(withAge), 0o600); err != nil {
			return false
		}
		src, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(src), `field.Value("age"`)
	}, 30*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func Test_relevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: "/app/models.go", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "/app/order.go", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/app/order.go", Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: "/app/models.go", Op: fsnotify.Chmod}, false},
		{"generated", fsnotify.Event{Name: "/app/relmap_schema.go", Op: fsnotify.Write}, false},
		{"test file", fsnotify.Event{Name: "/app/models_test.go", Op: fsnotify.Write}, false},
		{"not go", fsnotify.Event{Name: "/app/README.md", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev, "relmap_schema.go"))
		})
	}
}
