package profile

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/system"
)

const fileExt = ".json"

// Profile is a stored engine configuration.
type Profile struct {
	Name    string
	Path    string
	Config  *engineconf.Document
	Summary engineconf.Summary
}

// DeleteResult reports the outcome of Delete. The registry entry is always
// gone; StorageWarning is set when the file could not be removed.
type DeleteResult struct {
	Profile        *Profile
	StorageWarning error
}

// Store manages profiles in a single directory.
type Store struct {
	dir string
	fs  system.FileSystem

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// Option configures a Store.
type Option func(*Store)

// WithFileSystem sets the file system used for profile files.
func WithFileSystem(fsys system.FileSystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// NewStore creates a store rooted at dir. The registry starts empty; call
// LoadAll to populate it.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		fs:       system.DefaultFS(),
		profiles: make(map[string]*Profile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the profiles directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file a profile with the given name is stored in.
func (s *Store) Path(name string) (string, error) {
	key := Sanitize(name)
	if key == "" {
		return "", errors.FormatError("profile name is empty after sanitizing: "+name, nil)
	}
	return s.pathFor(key)
}

func (s *Store) pathFor(key string) (string, error) {
	path, err := securejoin.SecureJoin(s.dir, key+fileExt)
	if err != nil {
		return "", errors.FormatError("invalid profile name: "+key, err)
	}
	return path, nil
}

// Add stores doc under the sanitized form of name.
func (s *Store) Add(name string, doc *engineconf.Document) (*Profile, error) {
	key := Sanitize(name)
	if key == "" {
		return nil, errors.FormatError("profile name is empty after sanitizing: "+name, nil)
	}
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	summary, err := engineconf.Summarize(doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[key]; ok {
		return nil, errors.DuplicateProfile(key)
	}
	if s.fs.Exists(path) {
		return nil, errors.DuplicateProfile(key)
	}

	var buf bytes.Buffer
	if err := engineconf.Encode(&buf, doc); err != nil {
		return nil, errors.PersistenceError("encode", err)
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return nil, errors.PersistenceError("write", err)
	}
	if err := s.fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, errors.PersistenceError("write", err)
	}

	p := &Profile{Name: key, Path: path, Config: doc, Summary: summary}
	s.profiles[key] = p
	logging.Debug("profile added", "name", key, "path", path)
	return p, nil
}

// LoadAll rescans the directory and replaces the registry with what it
// finds. Files that cannot be read or parsed are skipped with a warning.
// Calling LoadAll twice on an unchanged directory yields the same set.
func (s *Store) LoadAll() ([]*Profile, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.PersistenceError("read", err)
	}

	loaded := make(map[string]*Profile, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), fileExt)
		p, err := s.load(key)
		if err != nil {
			logging.Warn("skipping profile", "file", entry.Name(), "error", err)
			continue
		}
		loaded[key] = p
	}

	s.mu.Lock()
	s.profiles = loaded
	s.mu.Unlock()

	logging.Debug("profiles loaded", "dir", s.dir, "count", len(loaded))
	return s.List(), nil
}

func (s *Store) load(key string) (*Profile, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := engineconf.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	summary, err := engineconf.Summarize(doc)
	if err != nil {
		return nil, err
	}
	return &Profile{Name: key, Path: path, Config: doc, Summary: summary}, nil
}

// Get returns the profile registered under name. The name is matched as
// given first, then in sanitized form.
func (s *Store) Get(name string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.lookup(name); ok {
		return p, nil
	}
	return nil, errors.ProfileNotFound(name)
}

func (s *Store) lookup(name string) (*Profile, bool) {
	if p, ok := s.profiles[name]; ok {
		return p, true
	}
	p, ok := s.profiles[Sanitize(name)]
	return p, ok
}

// List returns all registered profiles sorted by name.
func (s *Store) List() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Delete unregisters a profile and removes its file. A failure to remove
// the file is reported in the result, not as an error.
func (s *Store) Delete(name string) (*DeleteResult, error) {
	s.mu.Lock()
	p, ok := s.lookup(name)
	if !ok {
		s.mu.Unlock()
		return nil, errors.ProfileNotFound(name)
	}
	delete(s.profiles, p.Name)
	s.mu.Unlock()

	result := &DeleteResult{Profile: p}
	if err := s.fs.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.StorageWarning = errors.PersistenceError("delete", err)
		logging.Warn("profile file not removed", "name", p.Name, "path", p.Path, "error", err)
	}
	logging.Debug("profile deleted", "name", p.Name)
	return result, nil
}
