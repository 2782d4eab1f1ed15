package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/abstain/internal/constants"
	"github.com/julianstephens/abstain/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
	nowFunc         = time.Now
	executableName  = filepath.Base(os.Args[0])
)

// ErrLocked is returned when another live abstain process holds the lock.
var ErrLocked = errors.New("another abstain process is running")

// Lock is a PID lockfile that serializes mutating commands across processes.
type Lock struct {
	path string
	pid  int
}

// Acquire takes the lock in dir. A lockfile left by a process that is no longer
// running is reclaimed.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := filepath.Join(dir, constants.LockfileName)
	pid := getpidFunc()
	content := fmt.Sprintf("%d|%s", pid, executableName)

	for attempt := 0; attempt < 2; attempt++ {
		created, err := publish(dir, path, content)
		if err != nil {
			return nil, err
		}
		if created {
			return &Lock{path: path, pid: pid}, nil
		}

		holder, seen, err := readHolder(path)
		if err != nil {
			return nil, err
		}
		if holder < 0 {
			return nil, fmt.Errorf("%w (lockfile is being written)", ErrLocked)
		}
		if holder > 0 {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, holder)
		}
		if seen == nil {
			// Released between our create and read
			continue
		}

		logger.Warn("Removing stale lockfile", "path", path)
		if err := removeIfUnchanged(path, seen); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not acquire %s", ErrLocked, path)
}

// AcquireWait retries Acquire while the lock is held by another process, until
// ctx is done.
func AcquireWait(ctx context.Context, dir string, interval time.Duration) (*Lock, error) {
	for {
		l, err := Acquire(dir)
		if err == nil || !errors.Is(err, ErrLocked) {
			return l, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(interval):
		}
	}
}

// publish creates the lockfile with its full content in one step, so readers never
// see a partially written file. It reports false when the lockfile already exists.
func publish(dir, path, content string) (bool, error) {
	tmp, err := os.CreateTemp(dir, "."+constants.LockfileName+"-*")
	if err != nil {
		return false, fmt.Errorf("failed to create lockfile: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, werr := tmp.WriteString(content)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		return false, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
	}

	err = os.Link(tmpPath, path)
	if err == nil {
		return true, nil
	}
	if os.IsExist(err) {
		return false, nil
	}
	return createExclusive(path, content)
}

// createExclusive is the fallback for filesystems without hard links.
func createExclusive(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create lockfile: %w", err)
	}
	_, werr := f.WriteString(content)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return false, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
	}
	return true, nil
}

// readHolder returns the PID of the live process holding the lockfile along with
// the content it read. A pid of 0 with nil content means the lockfile is gone.
// An empty or malformed lockfile younger than constants.LockfileGrace is treated
// as held, since its writer may still be filling it in.
func readHolder(path string) (int, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	pid, executable, ok := parse(content)
	if !ok {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return 0, nil, nil
			}
			return 0, nil, fmt.Errorf("failed to stat lockfile: %w", err)
		}
		if nowFunc().Sub(info.ModTime()) < constants.LockfileGrace {
			return -1, content, nil
		}
		return 0, content, nil
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, content, nil
	}
	// Process names may be truncated by the OS, so compare by prefix
	if executable == "" || !strings.HasPrefix(executable, process.Executable()) {
		return 0, content, nil
	}
	return pid, content, nil
}

func parse(content []byte) (int, string, bool) {
	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return 0, "", false
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, "", false
	}
	return pid, parts[1], true
}

// removeIfUnchanged removes a stale lockfile unless another process replaced it
// after it was judged stale.
func removeIfUnchanged(path string, seen []byte) error {
	current, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	if string(current) != string(seen) {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lockfile: %w", err)
	}
	return nil
}

// Release removes the lockfile if this lock still owns it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	if !strings.HasPrefix(string(content), strconv.Itoa(l.pid)+"|") {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Path returns the lockfile location.
func (l *Lock) Path() string {
	return l.path
}
