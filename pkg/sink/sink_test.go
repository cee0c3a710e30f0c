package sink

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path   string
		errMsg string
	}{
		{"models/customer.go", ""},
		{"client.ts", ""},
		{"", "empty"},
		{"/abs/file.go", "absolute paths not allowed"},
		{"C:/file.go", "absolute paths not allowed"},
		{"a/../b.go", "path traversal not allowed"},
		{"../b.go", "path traversal not allowed"},
		{"./b.go", "not clean"},
		{"a//b.go", "not clean"},
		{"a/b/", "not clean"},
		{"a/..b.go", ""},
	}

	for _, test := range tests {
		err := ValidatePath(test.path)
		if test.errMsg == "" {
			if err != nil {
				t.Errorf("ValidatePath(%q) = %v, expected nil", test.path, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), test.errMsg) {
			t.Errorf("ValidatePath(%q) = %v, expected error containing %q", test.path, err, test.errMsg)
		}
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	content := []byte("package billing\n")
	if err := s.WriteFile(ctx, "customer.go", content); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	content[0] = 'X'
	if got := string(s.Get("customer.go")); got != "package billing\n" {
		t.Errorf("Get(customer.go) = %q, expected the content as written", got)
	}
	if got := s.Get("missing.go"); got != nil {
		t.Errorf("Get(missing.go) = %q, expected nil", got)
	}

	if err := s.WriteFile(ctx, "models/a.go", nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got, expected := s.Paths(), []string{"customer.go", "models/a.go"}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Paths() = %v, expected %v", got, expected)
	}

	s.Reset()
	if got := s.Paths(); len(got) != 0 {
		t.Errorf("Paths() after Reset = %v, expected none", got)
	}
}

func TestMemorySinkConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.WriteFile(ctx, filepath.ToSlash(filepath.Join("dir", string(rune('a'+i%26))+".txt")), []byte("x")); err != nil {
				t.Errorf("WriteFile: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := len(s.Paths()); got != 26 {
		t.Errorf("len(Paths()) = %d, expected 26", got)
	}
}

func TestMemorySinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemorySink().WriteFile(ctx, "a.go", nil); err == nil {
		t.Error("WriteFile with cancelled context succeeded, expected error")
	}
}

func TestFilesystemSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)

	if err := s.WriteFile(ctx, "services/customer_service.go", []byte("v1")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.WriteFile(ctx, "services/customer_service.go", []byte("v2")); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "services", "customer_service.go"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("file content = %q, expected %q", data, "v2")
	}

	entries, err := os.ReadDir(filepath.Join(root, "services"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}

	if err := s.WriteFile(ctx, "../escape.go", nil); err == nil {
		t.Error("WriteFile(../escape.go) succeeded, expected error")
	}
}

func TestFilesystemSinkNoOverwrite(t *testing.T) {
	ctx := context.Background()
	s := &FilesystemSink{Root: t.TempDir()}

	if err := s.WriteFile(ctx, "client.go", []byte("a")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	err := s.WriteFile(ctx, "client.go", []byte("b"))
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second WriteFile = %v, expected already exists error", err)
	}
}

func TestExcluding(t *testing.T) {
	ctx := context.Background()
	mem := NewMemorySink()
	s := Excluding(mem, func(path string) bool { return strings.HasPrefix(path, "docs/") })

	for _, p := range []string{"client.go", "docs/README.md"} {
		if err := s.WriteFile(ctx, p, []byte("x")); err != nil {
			t.Fatalf("WriteFile(%q): %v", p, err)
		}
	}
	if got, expected := mem.Paths(), []string{"client.go"}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Paths() = %v, expected %v", got, expected)
	}
	if Excluding(mem, nil) != OutputSink(mem) {
		t.Error("Excluding(nil) should return the sink unchanged")
	}
}
