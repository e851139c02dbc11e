package isolate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Box is one initialized isolate box. It is owned by exactly one request
// and erased when that request finishes.
type Box struct {
	id      int
	path    string
	isolate *Isolate
}

func newBox(isolate *Isolate, id int, path string) *Box {
	return &Box{
		id:      id,
		path:    path,
		isolate: isolate,
	}
}

func (box *Box) Id() int {
	return box.id
}

func (box *Box) Path() string {
	return box.path
}

// Erase tears the box down and frees its id. Safe to call once.
func (box *Box) Erase() error {
	return box.isolate.eraseBox(box.id)
}

// AddFile writes content into the box's scratch directory.
func (box *Box) AddFile(name string, content []byte) error {
	path := filepath.Join(box.path, "box", name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s into box %d: %w", name, box.id, err)
	}
	return nil
}

// HasFile reports whether name exists in the box's scratch directory.
func (box *Box) HasFile(name string) bool {
	_, err := os.Stat(filepath.Join(box.path, "box", name))
	return err == nil
}

// Command prepares a run of command inside the box under the given
// constraints. The returned Cmd must be started by the caller.
func (box *Box) Command(command string, constraints *Constraints) (*Cmd, error) {
	if constraints == nil {
		c := DefaultConstraints()
		constraints = &c
	}

	metaFilePath, err := newMetaFilePath()
	if err != nil {
		return nil, err
	}

	args := []string{"--env=HOME=/box", "--meta=" + metaFilePath}
	args = append(args, constraints.ToArgs()...)

	cmdStr := fmt.Sprintf(
		"isolate --cg --box-id %d %s --run /usr/bin/env %s",
		box.id,
		strings.Join(args, " "),
		command,
	)

	return newCmd(cmdStr, metaFilePath), nil
}

func newMetaFilePath() (string, error) {
	file, err := os.CreateTemp("", "isolate.*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create meta file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return file.Name(), nil
}
