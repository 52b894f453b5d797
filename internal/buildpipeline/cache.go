package buildpipeline

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"assassyn/internal/ffigen"
	"assassyn/internal/project"
)

// Bump when the CachedBuild layout changes.
const cacheSchemaVersion uint16 = 1

// DiskCache stores compiled wrapper libraries keyed by a digest of
// their inputs. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedBuild is the cached result of one wrapper build.
type CachedBuild struct {
	Schema  uint16
	Library string
	// Artifact holds the linked shared library verbatim.
	Artifact []byte
}

// OpenDiskCache initializes the cache at the standard user location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes the cache at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "builds", hexKey+".mp")
}

// Put serializes and writes a build to the cache. The write is
// staged through a temp file and renamed into place.
func (c *DiskCache) Put(key project.Digest, build *CachedBuild) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	build.Schema = cacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := msgpack.NewEncoder(f).Encode(build); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a build from the cache. A missing entry or a schema
// mismatch reports a clean miss.
func (c *DiskCache) Get(key project.Digest, out *CachedBuild) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key)) // #nosec G304 -- cache-internal path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the whole cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// buildKey digests everything that determines a wrapper library:
// the staged hardware source, the bridge, the build descriptor, and
// the toolchain identity. Any change forces a rebuild.
func buildKey(tc *Toolchain, pkgDir string, plan *ffigen.BuildPlan) (project.Digest, error) {
	digests := []project.Digest{
		project.HashBytes([]byte(tc.VerilatorRoot)),
		project.HashBytes([]byte(tc.Verilator)),
		project.HashBytes([]byte(tc.CXX)),
	}
	for _, rel := range []string{plan.Source, plan.Bridge, ffigen.BuildPlanName} {
		d, err := project.HashFile(filepath.Join(pkgDir, rel))
		if err != nil {
			return project.Digest{}, fmt.Errorf("cache key: %w", err)
		}
		digests = append(digests, d)
	}
	return project.Combine(digests...), nil
}
