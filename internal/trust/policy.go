package trust

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"actcli/internal/project"
)

// Policy is the effective read/write/cloud permission set for a folder.
type Policy struct {
	Read       []string
	Write      []string
	CloudShare bool
}

// DefaultPolicy applies to untrusted folders: read anywhere below the root,
// write under ./out, nothing leaves the machine.
func DefaultPolicy() Policy {
	return Policy{
		Read:  append([]string(nil), DefaultRead...),
		Write: append([]string(nil), DefaultWrite...),
	}
}

// Merge overlays the folder's trust record on the defaults.
func Merge(rec *Record) Policy {
	p := DefaultPolicy()
	if rec != nil {
		p.Read = append([]string(nil), rec.Read...)
		p.Write = append([]string(nil), rec.Write...)
		p.CloudShare = rec.CloudShare
	}
	return p
}

// AllowRemote is decided once, before adapters are assembled.
func (p Policy) AllowRemote(cfg *project.Config) bool {
	return !cfg.Offline() && p.CloudShare
}

func (p *Policy) AllowRead(glob string) {
	if !slices.Contains(p.Read, glob) {
		p.Read = append(p.Read, glob)
	}
}

func (p *Policy) AllowWrite(glob string) {
	if !slices.Contains(p.Write, glob) {
		p.Write = append(p.Write, glob)
	}
}

// Deny removes glob from the read or write list.
func (p *Policy) Deny(kind, glob string) {
	switch kind {
	case "read":
		p.Read = slices.DeleteFunc(p.Read, func(g string) bool { return g == glob })
	case "write":
		p.Write = slices.DeleteFunc(p.Write, func(g string) bool { return g == glob })
	}
}

func (p Policy) CanRead(path, root string) bool  { return matchAny(p.Read, path, root) }
func (p Policy) CanWrite(path, root string) bool { return matchAny(p.Write, path, root) }

// CheckWrite returns an error naming path when the policy forbids writing it.
func (p Policy) CheckWrite(path, root string) error {
	if p.CanWrite(path, root) {
		return nil
	}
	return fmt.Errorf("write to %s denied by trust policy (allowed: %s)", path, strings.Join(p.Write, ", "))
}

func matchAny(globs []string, path, root string) bool {
	rel, ok := relativeTo(path, root)
	if !ok {
		return false
	}
	for _, g := range globs {
		if globRegexp(g).MatchString(rel) {
			return true
		}
	}
	return false
}

// relativeTo renders path as "./a/b" relative to root. Both sides have their
// symlinks resolved first. Paths outside root never match.
func relativeTo(path, root string) (string, bool) {
	absRoot, err := resolvePath(root)
	if err != nil {
		return "", false
	}
	absPath, err := resolvePath(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return "./" + filepath.ToSlash(rel), true
}

// resolvePath makes p absolute and resolves symlinks in its longest existing
// prefix, so files that are about to be created resolve like their parent.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var missing []string
	dir := abs
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		missing = append([]string{filepath.Base(dir)}, missing...)
		dir = parent
	}
}

var (
	globMu    sync.Mutex
	globCache = map[string]*regexp.Regexp{}
)

// globRegexp compiles a shell-style pattern where "*" also crosses "/",
// so "./**" and "./out/*" both match nested files.
func globRegexp(glob string) *regexp.Regexp {
	globMu.Lock()
	defer globMu.Unlock()
	if re, ok := globCache[glob]; ok {
		return re
	}
	var sb strings.Builder
	sb.WriteString("^")
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			if j := slices.Index(runes[i+1:], ']'); j >= 0 {
				class := string(runes[i+1 : i+1+j])
				if strings.HasPrefix(class, "!") {
					class = "^" + class[1:]
				}
				sb.WriteString("[" + class + "]")
				i += j + 1
				continue
			}
			sb.WriteString(`\[`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		re = regexp.MustCompile("^" + regexp.QuoteMeta(glob) + "$")
	}
	globCache[glob] = re
	return re
}
