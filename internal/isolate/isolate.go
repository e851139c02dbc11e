// Package isolate wraps the isolate(1) sandbox binary. Each box is an
// isolated cgroup-backed environment with its own writable scratch
// directory; the base filesystem and toolchains are mounted read-only.
package isolate

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Isolate allocates and erases numbered boxes. Box ids are exclusive:
// an id is never handed out twice before the previous owner erased it.
type Isolate struct {
	mutex    sync.Mutex
	idsInUse mapset.Set[int]
	maxBoxes int
}

// New returns an isolate handle that allocates ids in [0, maxBoxes).
func New(maxBoxes int) *Isolate {
	return &Isolate{
		idsInUse: mapset.NewSet[int](),
		maxBoxes: maxBoxes,
	}
}

// CheckRuntime verifies the isolate binary is present and answers.
func CheckRuntime() error {
	cmd := exec.Command("isolate", "--version")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("isolate runtime unavailable: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NewBox initializes a fresh box and returns it. The caller owns the box
// and must call Erase exactly once.
func (i *Isolate) NewBox() (*Box, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	id := -1
	for candidate := 0; candidate < i.maxBoxes; candidate++ {
		if !i.idsInUse.Contains(candidate) {
			id = candidate
			break
		}
	}
	if id == -1 {
		return nil, fmt.Errorf("all %d isolate box ids are in use", i.maxBoxes)
	}

	if err := i.cleanupBox(id); err != nil {
		return nil, fmt.Errorf("failed to clean up box %d: %w", id, err)
	}

	path, err := i.initBox(id)
	if err != nil {
		return nil, fmt.Errorf("failed to init box %d: %w", id, err)
	}

	i.idsInUse.Add(id)
	return newBox(i, id, path), nil
}

func (i *Isolate) eraseBox(id int) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	err := i.cleanupBox(id)
	i.idsInUse.Remove(id)
	return err
}

func (i *Isolate) cleanupBox(id int) error {
	cleanCmdStr := fmt.Sprintf("isolate --cg --cleanup --box-id %d", id)

	cleanCmd := exec.Command("/usr/bin/bash", "-c", cleanCmdStr)
	out, err := cleanCmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// initBox initializes a new box and returns its filesystem path.
func (i *Isolate) initBox(id int) (string, error) {
	initCmdStr := fmt.Sprintf("isolate --cg --init --box-id %d", id)

	initCmd := exec.Command("/usr/bin/bash", "-c", initCmdStr)
	out, err := initCmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}
