package trust

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actcli/internal/project"
)

func TestStoreSetGetRevoke(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := &Store{Dir: filepath.Join(base, "trust.d")}
	root := filepath.Join(base, "proj")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(root)
	if err != nil || rec != nil {
		t.Fatalf("expected untrusted folder, got %+v err=%v", rec, err)
	}

	path, err := store.Set(root, Record{Scope: ScopePersist, Read: DefaultRead, Write: DefaultWrite, CloudShare: true})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	fp, _ := Fingerprint(root)
	if filepath.Base(path) != fp+".yaml" {
		t.Fatalf("record file %s not named by fingerprint %s", path, fp)
	}
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("record not private: %v %v", info, err)
	}

	rec, err = store.Get(root)
	if err != nil || rec == nil {
		t.Fatalf("get: %+v %v", rec, err)
	}
	if rec.Path != root || rec.Scope != ScopePersist || !rec.CloudShare {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := store.Revoke(root); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("record still present after revoke")
	}
	if err := store.Revoke(root); err != nil {
		t.Fatalf("second revoke should be a no-op: %v", err)
	}
}

func TestGetFillsMissingFields(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := &Store{Dir: base}
	path, err := store.recordPath(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("cloud_share: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rec, err := store.Get(base)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Scope != ScopePersist || strings.Join(rec.Read, ",") != "./**" || strings.Join(rec.Write, ",") != "./out/**" {
		t.Fatalf("defaults not applied: %+v", rec)
	}
}

func TestConsumeDropsOnceRecords(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := &Store{Dir: filepath.Join(base, "t")}
	if _, err := store.Set(base, Record{Scope: ScopeOnce, CloudShare: true}); err != nil {
		t.Fatal(err)
	}
	rec, _ := store.Get(base)
	if err := store.Consume(base, rec); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if rec, _ := store.Get(base); rec != nil {
		t.Fatalf("once record survived: %+v", rec)
	}

	if _, err := store.Set(base, Record{Scope: ScopePersist}); err != nil {
		t.Fatal(err)
	}
	rec, _ = store.Get(base)
	_ = store.Consume(base, rec)
	if rec, _ := store.Get(base); rec == nil {
		t.Fatalf("persist record was consumed")
	}
}

func TestPolicyAllowDenyAndChecks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := DefaultPolicy()
	read := filepath.Join(root, "data.txt")
	write := filepath.Join(root, "out", "nested", "file.md")

	if !p.CanRead(read, root) {
		t.Fatalf("expected read allowed")
	}
	if !p.CanWrite(write, root) {
		t.Fatalf("expected write under out allowed")
	}
	if p.CanWrite(filepath.Join(root, "src", "main.go"), root) {
		t.Fatalf("write outside out should be denied")
	}
	if p.CanRead(filepath.Join(filepath.Dir(root), "elsewhere"), root) {
		t.Fatalf("paths outside root must not match")
	}

	p.Deny("write", "./out/**")
	if p.CanWrite(write, root) {
		t.Fatalf("expected write denied after Deny")
	}
	if err := p.CheckWrite(write, root); err == nil {
		t.Fatalf("CheckWrite should fail")
	}

	p.AllowWrite("./out/**")
	p.AllowWrite("./out/**")
	if len(p.Write) != 1 || !p.CanWrite(write, root) {
		t.Fatalf("AllowWrite should add once: %v", p.Write)
	}
}

func TestGlobPatterns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		glob, path string
		want       bool
	}{
		{"./**", "./a/b/c.txt", true},
		{"./out/*", "./out/x/y.json", true},
		{"./*.md", "./notes.md", true},
		{"./*.md", "./notes.txt", false},
		{"./file?.txt", "./file1.txt", true},
		{"./[ab].txt", "./b.txt", true},
		{"./[!ab].txt", "./a.txt", false},
		{"./a+b", "./a+b", true},
	}
	for _, tc := range cases {
		if got := globRegexp(tc.glob).MatchString(tc.path); got != tc.want {
			t.Fatalf("glob %q on %q = %v, want %v", tc.glob, tc.path, got, tc.want)
		}
	}
}

func TestAllowRemote(t *testing.T) {
	t.Parallel()

	hybrid := project.Default()
	offline := project.Default()
	offline.Defaults.Mode = project.ModeOffline

	shared := Merge(&Record{CloudShare: true})
	private := Merge(nil)

	if !shared.AllowRemote(hybrid) {
		t.Fatalf("hybrid + cloud_share should allow remote")
	}
	if shared.AllowRemote(offline) {
		t.Fatalf("offline mode must disallow remote")
	}
	if private.AllowRemote(hybrid) {
		t.Fatalf("untrusted folder must disallow remote")
	}
}

func TestNonASCIIWriteGlob(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := Policy{Write: []string{"./café/**"}}
	if !p.CanWrite(filepath.Join(root, "café", "notes.md"), root) {
		t.Fatalf("write under café should be allowed by %q", globRegexp("./café/**"))
	}
	if p.CanWrite(filepath.Join(root, "cafe", "notes.md"), root) {
		t.Fatalf("write under cafe should not match ./café/**")
	}
	if !globRegexp("./[éè]t[ée].md").MatchString("./été.md") {
		t.Fatalf("character class with accented letters should match")
	}
}

func TestPolicyResolvesSymlinkedRoot(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "ws")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	p := DefaultPolicy()
	if !p.CanWrite(filepath.Join(link, "out", "r.md"), target) {
		t.Fatalf("path through symlink should resolve under the real root")
	}
	if !p.CanWrite(filepath.Join(target, "out", "r.md"), link) {
		t.Fatalf("real path should resolve under the symlinked root")
	}

	a, err := Fingerprint(link)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fingerprint(target)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("fingerprints differ for the same folder: %s vs %s", a, b)
	}
}
