package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/codegen"
	"pascalc/internal/driver"
	"pascalc/internal/testkit"
)

func sampleUnit(t *testing.T, dir string) string {
	t.Helper()
	b := testkit.NewProgram("Hello")
	n := b.Global("n", b.B.Integer)
	prog := b.Program(
		b.Set(n, b.Int(3)),
		testkit.While(b.Bin(ast.OpGt, b.V(n), b.Int(0)), testkit.Block(
			testkit.Writeln(testkit.Arg(b.V(n))),
			b.Set(n, b.Bin(ast.OpSub, b.V(n), b.Int(1))),
		)),
	)
	data, err := driver.MarshalUnit(driver.NewUnitFile(prog, b.Types, b.Syms))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "hello"+driver.UnitExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func listing(t *testing.T, c *bytecode.Class) string {
	t.Helper()
	var buf bytes.Buffer
	if err := bytecode.WriteListing(&buf, c); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestLoadAndLowerUnit(t *testing.T) {
	path := sampleUnit(t, t.TempDir())
	u, err := driver.LoadUnit(path)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != path || u.Program.Name != "Hello" || u.Hash.IsZero() {
		t.Fatalf("unit = %+v", u)
	}
	res, err := driver.LowerUnit(context.Background(), u, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("first lowering reported as cached")
	}
	if res.Lowered.Class.Name != "Hello" {
		t.Fatalf("class = %q", res.Lowered.Class.Name)
	}
	if _, ok := res.Lowered.Class.Method("main"); !ok {
		t.Fatal("main method missing")
	}
	if got := res.Lowered.Stats.Statements[ast.StmtWhile]; got != 1 {
		t.Fatalf("while statements = %d", got)
	}
}

func TestDecodeUnitRejects(t *testing.T) {
	if _, err := driver.DecodeUnit([]byte{0xc1}); err == nil {
		t.Error("garbage accepted")
	}
	b := testkit.NewProgram("P")
	uf := driver.NewUnitFile(b.Program(), b.Types, b.Syms)
	uf.Schema = 99
	data, err := driver.MarshalUnit(uf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := driver.DecodeUnit(data); err == nil || !strings.Contains(err.Error(), "schema 99") {
		t.Errorf("schema mismatch: %v", err)
	}
	uf = driver.NewUnitFile(nil, b.Types, b.Syms)
	data, err = driver.MarshalUnit(uf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := driver.DecodeUnit(data); err == nil || !strings.Contains(err.Error(), "missing program") {
		t.Errorf("missing program: %v", err)
	}
	if _, err := driver.LoadUnit(filepath.Join(t.TempDir(), "absent.pcu")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestDiskCacheHitOnUnchangedInput(t *testing.T) {
	dir := t.TempDir()
	path := sampleUnit(t, dir)
	disk, err := driver.NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	lower := func(opts codegen.Options) *driver.LowerResult {
		t.Helper()
		u, err := driver.LoadUnit(path)
		if err != nil {
			t.Fatal(err)
		}
		res, err := driver.LowerUnit(context.Background(), u, &driver.LowerOptions{
			Codegen: codegen.ProgramOptions{Options: opts},
			Disk:    disk,
			Memory:  driver.NewClassCache(1),
		})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	first := lower(codegen.Options{})
	second := lower(codegen.Options{})
	if first.Cached || !second.Cached {
		t.Fatalf("cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if first.Key != second.Key {
		t.Fatal("cache key changed for identical input")
	}
	if got, want := listing(t, second.Lowered.Class), listing(t, first.Lowered.Class); got != want {
		t.Fatalf("cached class differs:\n%s\nvs\n%s", got, want)
	}
	if second.Lowered.Stats != first.Lowered.Stats {
		t.Fatalf("cached stats = %+v, want %+v", second.Lowered.Stats, first.Lowered.Stats)
	}

	general := lower(codegen.Options{GeneralWhileConditions: true})
	if general.Cached || general.Key == first.Key {
		t.Fatal("option change must miss the cache")
	}
	renamed := lower(codegen.Options{Namespace: "Other"})
	if renamed.Cached || renamed.Lowered.Class.Name != "Other" {
		t.Fatalf("namespace override: cached=%v class=%q", renamed.Cached, renamed.Lowered.Class.Name)
	}

	if err := disk.DropAll(); err != nil {
		t.Fatal(err)
	}
	if again := lower(codegen.Options{}); again.Cached {
		t.Fatal("hit after DropAll")
	}
}

func TestMemoryCache(t *testing.T) {
	path := sampleUnit(t, t.TempDir())
	u, err := driver.LoadUnit(path)
	if err != nil {
		t.Fatal(err)
	}
	mem := driver.NewClassCache(4)
	opts := &driver.LowerOptions{Memory: mem}
	first, err := driver.LowerUnit(context.Background(), u, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := driver.LowerUnit(context.Background(), u, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Lowered != first.Lowered {
		t.Fatal("expected the memory cache to return the same class")
	}
	var other driver.Digest
	other[0] = 1
	if _, ok := mem.Get(path, other); ok {
		t.Fatal("expected miss on a different key")
	}
}

func TestCustomEmitterBypassesCache(t *testing.T) {
	path := sampleUnit(t, t.TempDir())
	u, err := driver.LoadUnit(path)
	if err != nil {
		t.Fatal(err)
	}
	opts := &driver.LowerOptions{
		Codegen: codegen.ProgramOptions{Options: codegen.Options{Exprs: codegen.DefaultExprs}},
		Memory:  driver.NewClassCache(1),
	}
	for range 2 {
		res, err := driver.LowerUnit(context.Background(), u, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.Cached {
			t.Fatal("custom emitter result served from cache")
		}
	}
}

func TestDigest(t *testing.T) {
	a := driver.HashBytes([]byte("program"))
	b := driver.HashBytes([]byte("program"))
	if a != b || a.IsZero() {
		t.Fatal("hash is not deterministic")
	}
	if len(a.String()) != 64 {
		t.Fatalf("hex digest %q", a.String())
	}
	if driver.HashBytes([]byte("program2")) == a {
		t.Fatal("different input, same hash")
	}
}
