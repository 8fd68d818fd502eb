package contextstore

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// maxSourceBytes caps the extracted text of a single source; anything
	// beyond is cut with a visible truncation marker.
	maxSourceBytes = 200_000
	// maxBundleBytes caps the combined grounding text handed to the
	// analysis prompts.
	maxBundleBytes = 40_000

	truncationMarker = "\n[truncated]"
)

var (
	ErrUnreadable     = errors.New("context source unreadable")
	ErrUnsupported    = errors.New("context source type unsupported")
	ErrUnresolvable   = errors.New("context URL unresolvable")
	ErrAlreadyMounted = errors.New("context source already mounted")
)

var acceptedExts = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".pdf": true,
}

// Source is one mounted grounding document. Immutable once mounted.
type Source struct {
	Label     string
	Origin    string // resolved file path or URL
	Text      string
	MountedAt time.Time
	Failed    bool // extraction failed; Text holds the placeholder
}

// Store holds the session's mounted context sources. Mounting is additive
// and copy-on-extend: readers grab an immutable snapshot of the source
// slice, so an in-flight analysis tick either sees a new source whole or
// not at all.
type Store struct {
	mu      sync.Mutex
	sources atomic.Pointer[[]Source]
	ids     map[string]bool
	labels  map[string]int
}

func NewStore() *Store {
	s := &Store{
		ids:    make(map[string]bool),
		labels: make(map[string]int),
	}
	empty := []Source{}
	s.sources.Store(&empty)
	return s
}

// CanonicalID normalizes a raw path/URL so the same source mounted twice is
// detected. Returns false for blank input.
func CanonicalID(raw string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", false
	}
	if u, err := url.Parse(candidate); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return candidate, true
	}
	if strings.HasPrefix(candidate, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			candidate = filepath.Join(home, candidate[1:])
		}
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return candidate, true
	}
	return abs, true
}

// Mounted reports whether the canonical id is already in the store.
func (s *Store) Mounted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Mount resolves a raw path, directory, or http(s) URL and adds its
// extracted text to the store. Directories mount every accepted file
// beneath them. Returns the mounted sources; ErrAlreadyMounted when the
// canonical id was mounted before.
func (s *Store) Mount(raw string) ([]Source, error) {
	id, ok := CanonicalID(raw)
	if !ok {
		return nil, fmt.Errorf("%w: empty source", ErrUnreadable)
	}

	var mounted []Source
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		src, err := extractURL(id)
		if err != nil {
			return nil, err
		}
		mounted = []Source{src}
	} else {
		info, err := os.Stat(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnreadable, id)
		}
		if info.IsDir() {
			mounted, err = extractDir(id)
		} else {
			var src Source
			src, err = extractFile(id)
			mounted = []Source{src}
		}
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return nil, ErrAlreadyMounted
	}
	s.ids[id] = true

	now := time.Now()
	for i := range mounted {
		mounted[i].MountedAt = now
		mounted[i].Label = s.uniqueLabel(mounted[i].Label)
	}

	// Copy-on-extend so snapshots held by readers stay valid.
	cur := *s.sources.Load()
	next := make([]Source, 0, len(cur)+len(mounted))
	next = append(next, cur...)
	next = append(next, mounted...)
	s.sources.Store(&next)
	return mounted, nil
}

// uniqueLabel suffixes duplicate labels; caller holds s.mu.
func (s *Store) uniqueLabel(label string) string {
	n := s.labels[label]
	s.labels[label] = n + 1
	if n == 0 {
		return label
	}
	return fmt.Sprintf("%s (%d)", label, n+1)
}

// Sources returns an immutable snapshot of the mounted sources.
func (s *Store) Sources() []Source {
	return *s.sources.Load()
}

// Bundle concatenates all extracted text under per-source headers, capped
// at maxBundleBytes, together with the source labels in mount order.
func (s *Store) Bundle() (text string, labels []string) {
	sources := s.Sources()
	var b strings.Builder
	for _, src := range sources {
		labels = append(labels, src.Label)
		if src.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\n# %s\n\n%s", src.Label, src.Text)
	}
	text = strings.TrimSpace(b.String())
	if len(text) > maxBundleBytes {
		text = text[:maxBundleBytes]
	}
	return text, labels
}

func extractDir(dir string) ([]Source, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, not fatal
		}
		if !d.IsDir() && acceptedExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadable, dir)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .txt/.md/.markdown/.pdf files under %s", ErrUnsupported, dir)
	}
	sort.Strings(files)
	var out []Source
	for _, f := range files {
		src, err := extractFile(f)
		if err != nil {
			continue
		}
		out = append(out, src)
	}
	return out, nil
}

func extractFile(path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !acceptedExts[ext] {
		return Source{}, fmt.Errorf("%w: %s (use .txt/.md/.markdown/.pdf)", ErrUnsupported, ext)
	}
	label := filepath.Base(path)
	if ext == ".pdf" {
		text, failed := extractPDF(path)
		return Source{Label: label, Origin: path, Text: text, Failed: failed}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return Source{Label: label, Origin: path, Text: capText(string(data))}, nil
}

func capText(text string) string {
	if len(text) > maxSourceBytes {
		return text[:maxSourceBytes] + truncationMarker
	}
	return text
}
