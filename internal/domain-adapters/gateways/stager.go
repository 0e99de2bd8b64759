package gateways

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

const defaultArtifactName = "artifact"

// lockWait bounds how long Prepare waits for another invocation to
// release a fixed staging path.
var lockWait = 2 * time.Second

// ErrStagingLocked indicates another invocation holds the fixed staging path
var ErrStagingLocked = errors.New("staging path is locked by another invocation")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Stager picks the staging location for an artifact. With a fixed path
// every invocation reuses the same file, serialized by a lock file next
// to it. Without one each invocation gets its own directory which is
// removed on release.
type Stager struct {
	fixedPath string
	baseDir   string
}

// NewStager creates a stager. fixedPath wins over baseDir when set; an
// empty baseDir means the OS temp directory.
func NewStager(fixedPath, baseDir string) *Stager {
	return &Stager{fixedPath: fixedPath, baseDir: baseDir}
}

// Prepare returns the path the artifact should be written to
func (s *Stager) Prepare(source entities.ArtifactSource) (string, bool, func(), error) {
	if s.fixedPath != "" {
		release, err := acquireLock(s.fixedPath + ".lock")
		if err != nil {
			return "", false, nil, err
		}
		return s.fixedPath, false, release, nil
	}

	if s.baseDir != "" {
		if err := os.MkdirAll(s.baseDir, 0o750); err != nil {
			return "", false, nil, fmt.Errorf("%w: failed to create staging directory: %w", entities.ErrIO, err)
		}
	}

	dir, err := os.MkdirTemp(s.baseDir, "fetchrun-")
	if err != nil {
		return "", false, nil, fmt.Errorf("%w: failed to create staging directory: %w", entities.ErrIO, err)
	}

	release := func() {
		_ = os.RemoveAll(dir)
	}
	return filepath.Join(dir, ArtifactName(source.URL)), true, release, nil
}

// ArtifactName derives a safe file name from the last element of a URL path
func ArtifactName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultArtifactName
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return defaultArtifactName
	}

	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return defaultArtifactName
	}
	return name
}

// acquireLock takes an advisory lock by creating lockPath with O_EXCL,
// retrying with jitter until lockWait elapses. A lock left behind by a
// process that no longer exists is removed and taken over.
func acquireLock(lockPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("%w: failed to create staging directory: %w", entities.ErrIO, err)
	}

	tryOnce := func() (bool, error) {
		var token [8]byte
		_, _ = rand.Read(token[:])
		contents := fmt.Sprintf("pid=%d ts=%s token=%s\n",
			os.Getpid(), time.Now().UTC().Format(time.RFC3339Nano), hex.EncodeToString(token[:]))

		//nolint:gosec // G304: lockPath is derived from the configured staging path
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			if os.IsExist(err) {
				return false, nil
			}
			return false, err
		}
		if _, err := f.WriteString(contents); err != nil {
			_ = f.Close()
			_ = os.Remove(lockPath)
			return false, err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(lockPath)
			return false, err
		}
		return true, nil
	}

	deadline := time.Now().Add(lockWait)
	for {
		ok, err := tryOnce()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create lock file: %w", entities.ErrIO, err)
		}
		if ok {
			return func() {
				_ = os.Remove(lockPath)
			}, nil
		}
		if removeStaleLock(lockPath) {
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrStagingLocked, lockPath)
		}
		sleep := 50 + int(time.Now().UnixNano()%100)
		time.Sleep(time.Duration(sleep) * time.Millisecond)
	}
}

// removeStaleLock deletes lockPath if the pid recorded in it belongs to a
// process that is gone. Locks without a readable pid are left alone.
func removeStaleLock(lockPath string) bool {
	//nolint:gosec // G304: lockPath is derived from the configured staging path
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return os.IsNotExist(err)
	}

	pid, ok := lockHolderPID(string(data))
	if !ok || processAlive(pid) {
		return false
	}

	err = os.Remove(lockPath)
	return err == nil || os.IsNotExist(err)
}

// lockHolderPID extracts the pid= field written by acquireLock
func lockHolderPID(contents string) (int, bool) {
	for _, field := range strings.Fields(contents) {
		value, found := strings.CutPrefix(field, "pid=")
		if !found {
			continue
		}
		pid, err := strconv.Atoi(value)
		if err != nil || pid <= 0 {
			return 0, false
		}
		return pid, true
	}
	return 0, false
}
