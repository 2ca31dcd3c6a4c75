// Package mirror keeps a local checkout of the remote template collection
// and decides when it has to be cloned, refreshed or rebuilt.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxAge is the refresh window applied when Options.MaxAge is unset.
	DefaultMaxAge = 24 * time.Hour

	// MaxReinitAttempts bounds how often Init deletes and re-clones a corrupt
	// mirror before giving up with ErrInitFailed.
	MaxReinitAttempts = 2

	dirName     = "templates"
	appCacheDir = "ignoreit"
)

// Remote performs the git operations the mirror needs. internal/git
// implements it; tests substitute a fake.
type Remote interface {
	Clone(ctx context.Context, url, destPath, branch string) (string, error)
	Update(ctx context.Context, repoPath, branch string) (string, bool, error)
	Head(repoPath string) (string, error)
	RemoteHead(ctx context.Context, url, branch string) (string, error)
}

// Options configures a Mirror.
type Options struct {
	CacheRoot   string // empty: os.UserCacheDir()/ignoreit
	RemoteURL   string
	Branch      string
	Extension   string // template extension used by Verify; empty: .gitignore
	MaxAge      time.Duration
	CheckRemote bool
	Offline     bool

	Git    Remote
	Clock  func() time.Time
	Logger *zap.Logger
}

// Mirror is the on-disk copy of the template collection.
type Mirror struct {
	opts      Options
	cacheRoot string
	dir       string
	attempts  int
}

// Status describes the mirror for display.
type Status struct {
	Dir      string        `json:"dir"`
	Exists   bool          `json:"exists"`
	SyncedAt time.Time     `json:"synced_at,omitempty"`
	Revision string        `json:"revision,omitempty"`
	Age      time.Duration `json:"age"`
	Expired  bool          `json:"expired"`
}

// Locate returns the cache root and the mirror directory inside it. It does
// not touch the filesystem beyond resolving the platform cache directory.
func Locate(cacheRoot string) (root, dir string, err error) {
	if cacheRoot == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", "", &EnvironmentError{Err: err}
		}
		if base == "" {
			return "", "", &EnvironmentError{}
		}
		cacheRoot = filepath.Join(base, appCacheDir)
	}
	return cacheRoot, filepath.Join(cacheRoot, dirName), nil
}

// New resolves the mirror location and fills option defaults.
func New(opts Options) (*Mirror, error) {
	if opts.Git == nil {
		return nil, errors.New("mirror: no git remote configured")
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Extension == "" {
		opts.Extension = ".gitignore"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	root, dir, err := Locate(opts.CacheRoot)
	if err != nil {
		return nil, err
	}

	return &Mirror{opts: opts, cacheRoot: root, dir: dir}, nil
}

// Dir is the mirror directory, the root of the template tree.
func (m *Mirror) Dir() string {
	return m.dir
}

// CacheRoot is the directory holding the mirror.
func (m *Mirror) CacheRoot() string {
	return m.cacheRoot
}

// Exists reports whether the mirror directory is present.
func (m *Mirror) Exists() bool {
	info, err := os.Stat(m.dir)
	return err == nil && info.IsDir()
}

// Materialize clones the remote when the mirror directory is absent. The clone
// lands in a temporary sibling and is renamed into place once the marker is
// written, so the final path never holds a partial mirror.
func (m *Mirror) Materialize(ctx context.Context) error {
	if m.Exists() {
		return nil
	}

	tmp, err := m.cloneTemp(ctx)
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, m.dir); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to move mirror into place: %w", err)
	}
	return nil
}

// cloneTemp clones into a fresh hidden directory under the cache root and
// writes the marker there.
func (m *Mirror) cloneTemp(ctx context.Context) (string, error) {
	if m.opts.Offline {
		return "", &SyncError{Op: "clone", URL: m.opts.RemoteURL, Err: ErrOffline}
	}

	if err := os.MkdirAll(m.cacheRoot, 0o755); err != nil {
		return "", &EnvironmentError{Err: err}
	}

	tmp, err := os.MkdirTemp(m.cacheRoot, "."+dirName+"-*")
	if err != nil {
		return "", &EnvironmentError{Err: err}
	}

	m.opts.Logger.Debug("cloning template mirror",
		zap.String("url", m.opts.RemoteURL),
		zap.String("branch", m.opts.Branch),
		zap.String("dir", m.dir))

	rev, err := m.opts.Git.Clone(ctx, m.opts.RemoteURL, tmp, m.opts.Branch)
	if err != nil {
		os.RemoveAll(tmp)
		return "", &SyncError{Op: "clone", URL: m.opts.RemoteURL, Err: err}
	}

	if err := WriteMarker(tmp, Marker{SyncedAt: m.now().UnixMilli(), Revision: rev}); err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("failed to write sync marker: %w", err)
	}
	return tmp, nil
}

// Expired applies the time rule: the mirror is due once now - syncedAt
// reaches maxAge. A sync point in the future is treated as expired.
func Expired(syncedAt, now time.Time, maxAge time.Duration) bool {
	if syncedAt.After(now) {
		return true
	}
	return now.Sub(syncedAt) >= maxAge
}

// Expired reports whether the recorded sync point is older than MaxAge at now.
// A missing or unreadable marker counts as expired.
func (m *Mirror) Expired(now time.Time) bool {
	marker, err := ReadMarker(m.dir)
	if err != nil {
		return true
	}
	return Expired(marker.Time(), now, m.opts.MaxAge)
}

// IsStale reports whether the mirror should be refreshed. With CheckRemote
// set, a moved remote head also counts; a failed remote query returns false
// together with a *SyncError.
func (m *Mirror) IsStale(ctx context.Context) (bool, error) {
	marker, err := ReadMarker(m.dir)
	if err != nil {
		return true, nil
	}
	if Expired(marker.Time(), m.now(), m.opts.MaxAge) {
		return true, nil
	}
	if !m.opts.CheckRemote || m.opts.Offline || marker.Revision == "" {
		return false, nil
	}

	head, err := m.opts.Git.RemoteHead(ctx, m.opts.RemoteURL, m.opts.Branch)
	if err != nil {
		return false, &SyncError{Op: "ls-remote", URL: m.opts.RemoteURL, Err: err}
	}
	if head != marker.Revision {
		m.opts.Logger.Debug("remote head moved",
			zap.String("recorded", marker.Revision),
			zap.String("remote", head))
		return true, nil
	}
	return false, nil
}

// Refresh brings an existing mirror up to the remote head and records a new
// sync point. When fetching fails, or the mirror has no git metadata, a fresh
// clone replaces it; the old mirror stays in place until that clone succeeds.
func (m *Mirror) Refresh(ctx context.Context) error {
	if m.opts.Offline {
		return &SyncError{Op: "fetch", URL: m.opts.RemoteURL, Err: ErrOffline}
	}
	if !m.Exists() {
		return m.Materialize(ctx)
	}
	if !m.hasGitDir() {
		m.opts.Logger.Debug("mirror has no git metadata, re-cloning", zap.String("dir", m.dir))
		return m.replace(ctx)
	}

	rev, changed, err := m.opts.Git.Update(ctx, m.dir, m.opts.Branch)
	if err != nil {
		m.opts.Logger.Debug("fetch failed, re-cloning", zap.Error(err))
		return m.replace(ctx)
	}
	m.opts.Logger.Debug("mirror refreshed",
		zap.String("revision", rev),
		zap.Bool("changed", changed))

	if err := WriteMarker(m.dir, Marker{SyncedAt: m.now().UnixMilli(), Revision: rev}); err != nil {
		return fmt.Errorf("failed to write sync marker: %w", err)
	}
	return nil
}

// replace swaps the mirror for a fresh clone.
func (m *Mirror) replace(ctx context.Context) error {
	tmp, err := m.cloneTemp(ctx)
	if err != nil {
		return err
	}

	old := tmp + "-old"
	if err := os.Rename(m.dir, old); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to move old mirror aside: %w", err)
	}
	if err := os.Rename(tmp, m.dir); err != nil {
		os.Rename(old, m.dir)
		os.RemoveAll(tmp)
		return fmt.Errorf("failed to move mirror into place: %w", err)
	}
	os.RemoveAll(old)
	return nil
}

// Verify checks that the marker and the mirror content agree. It returns a
// *CorruptMirrorError when they do not.
func (m *Mirror) Verify() error {
	if !m.Exists() {
		return nil
	}

	_, err := ReadMarker(m.dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &CorruptMirrorError{Dir: m.dir, Reason: "sync marker missing"}
	case err != nil:
		return &CorruptMirrorError{Dir: m.dir, Reason: err.Error()}
	}

	if !m.hasGitDir() {
		return &CorruptMirrorError{Dir: m.dir, Reason: "git metadata missing"}
	}
	if !m.hasTemplate() {
		return &CorruptMirrorError{Dir: m.dir, Reason: "no " + m.opts.Extension + " files"}
	}
	return nil
}

// Init makes sure a usable mirror exists: it clones a missing mirror, rebuilds
// a corrupt one at most MaxReinitAttempts times, and refreshes a stale one.
// A corrupt mirror is swapped out only once its replacement has been cloned.
// Network failures are fatal only when there is no mirror to fall back on.
func (m *Mirror) Init(ctx context.Context) error {
	m.attempts = 0
	return m.init(ctx)
}

func (m *Mirror) init(ctx context.Context) error {
	fresh := false
	if !m.Exists() {
		if err := m.Materialize(ctx); err != nil {
			return err
		}
		fresh = true
	}

	if err := m.Verify(); err != nil {
		var corrupt *CorruptMirrorError
		if !errors.As(err, &corrupt) {
			return err
		}
		if m.attempts >= MaxReinitAttempts {
			return fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
		m.attempts++
		m.opts.Logger.Warn("template mirror is corrupt, re-initializing",
			zap.String("reason", corrupt.Reason),
			zap.Int("attempt", m.attempts))

		if err := m.replace(ctx); err != nil {
			if IsSyncError(err) && m.hasTemplate() {
				m.opts.Logger.Warn("could not re-clone corrupt mirror, using it as is", zap.Error(err))
				return nil
			}
			return err
		}
		return m.init(ctx)
	}
	if fresh {
		return nil
	}

	stale, err := m.IsStale(ctx)
	if err != nil {
		m.opts.Logger.Warn("could not check remote, using existing mirror", zap.Error(err))
		return nil
	}
	if !stale {
		return nil
	}

	if m.opts.Offline {
		m.opts.Logger.Debug("mirror is stale but offline mode is set")
		return nil
	}

	if err := m.Refresh(ctx); err != nil {
		if IsSyncError(err) && m.Exists() {
			m.opts.Logger.Warn("refresh failed, using existing mirror", zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// Purge deletes the mirror, and the cache root when nothing else is left in it.
func (m *Mirror) Purge() (bool, error) {
	existed := m.Exists()
	if err := os.RemoveAll(m.dir); err != nil {
		return existed, fmt.Errorf("failed to remove %s: %w", m.dir, err)
	}

	// Leftover clone directories from interrupted runs.
	entries, err := os.ReadDir(m.cacheRoot)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(e.Name(), "."+dirName+"-") {
				os.RemoveAll(filepath.Join(m.cacheRoot, e.Name()))
			}
		}
	}
	os.Remove(m.cacheRoot)

	return existed, nil
}

// Status reports the mirror location and its recorded sync point.
func (m *Mirror) Status() Status {
	st := Status{Dir: m.dir, Exists: m.Exists(), Expired: true}
	if !st.Exists {
		return st
	}

	marker, err := ReadMarker(m.dir)
	if err != nil {
		return st
	}

	now := m.now()
	st.SyncedAt = marker.Time()
	st.Revision = marker.Revision
	st.Age = now.Sub(st.SyncedAt)
	st.Expired = Expired(st.SyncedAt, now, m.opts.MaxAge)
	return st
}

func (m *Mirror) now() time.Time {
	return m.opts.Clock()
}

func (m *Mirror) hasGitDir() bool {
	_, err := os.Stat(filepath.Join(m.dir, ".git"))
	return err == nil
}

func (m *Mirror) hasTemplate() bool {
	found := false
	filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != m.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), strings.ToLower(m.opts.Extension)) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
