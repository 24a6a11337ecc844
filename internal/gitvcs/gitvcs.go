// Package gitvcs is the concrete VCS collaborator for the Staged-Diff
// Mapper (spec.md §6): it shells out to `git` plumbing commands to list
// staged files, read staged (index) content, and parse staged hunks.
//
// Grounded on the external-process-collaborator pattern (os/exec wrapping a
// CLI tool, output parsed line-by-line); no git library is pulled in since
// `git` itself is the most direct, dependency-free way to read the index —
// see DESIGN.md.
package gitvcs

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dhivijit/ripplecheck/internal/apperr"
	"github.com/dhivijit/ripplecheck/internal/vcsdiff"
)

// Collaborator implements vcsdiff.VCS against a real git working tree.
type Collaborator struct {
	ctx  context.Context
	root string
}

func New(ctx context.Context, root string) *Collaborator {
	return &Collaborator{ctx: ctx, root: root}
}

func (c *Collaborator) run(args ...string) ([]byte, error) {
	cmd := exec.CommandContext(c.ctx, "git", args...)
	cmd.Dir = c.root
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, apperr.Wrap(apperr.KindVCSUnavailable, "git "+strings.Join(args, " ")+": "+errBuf.String(), c.root, err)
	}
	return out.Bytes(), nil
}

// StagedFiles runs `git diff --cached --name-status -z` and parses the
// NUL-separated status/path(/oldPath) records.
func (c *Collaborator) StagedFiles() ([]vcsdiff.StagedFile, error) {
	out, err := c.run("diff", "--cached", "--name-status", "-z")
	if err != nil {
		return nil, err
	}
	fields := splitNUL(out)

	var files []vcsdiff.StagedFile
	for i := 0; i < len(fields); {
		statusField := fields[i]
		i++
		if statusField == "" {
			continue
		}
		status := vcsdiff.Status(statusField[:1])
		switch status {
		case vcsdiff.StatusRenamed, vcsdiff.StatusCopied:
			if i+1 >= len(fields) {
				continue
			}
			oldPath, newPath := fields[i], fields[i+1]
			i += 2
			files = append(files, vcsdiff.StagedFile{Status: status, Path: newPath, OldPath: oldPath})
		default:
			if i >= len(fields) {
				continue
			}
			path := fields[i]
			i++
			files = append(files, vcsdiff.StagedFile{Status: status, Path: path})
		}
	}
	return files, nil
}

func splitNUL(b []byte) []string {
	s := strings.TrimRight(string(b), "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}

// StagedContent returns the index (staged) blob for path via `git show
// :path`. ok is false if the file has no staged content (e.g. it was
// deleted).
func (c *Collaborator) StagedContent(path string) ([]byte, bool, error) {
	out, err := c.run("show", ":"+path)
	if err != nil {
		return nil, false, nil
	}
	return out, true, nil
}

// StagedHunks runs `git diff --cached --unified=0` and parses each hunk
// header's new-file range, excluding pure-deletion hunks (new line count
// 0) per spec.md §4.7.
func (c *Collaborator) StagedHunks() ([]vcsdiff.Hunk, error) {
	out, err := c.run("diff", "--cached", "--unified=0")
	if err != nil {
		return nil, err
	}

	var hunks []vcsdiff.Hunk
	var currentPath string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			currentPath = strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "@@ "):
			start, count, ok := parseHunkHeader(line)
			if !ok || count == 0 {
				continue
			}
			hunks = append(hunks, vcsdiff.Hunk{Path: currentPath, NewStartLine: start, NewLineCount: count})
		}
	}
	return hunks, nil
}

// parseHunkHeader extracts the new-file (+) range from a unified-diff hunk
// header of the form "@@ -a,b +c,d @@ ...". Count defaults to 1 when no
// comma-separated length is present.
func parseHunkHeader(line string) (start, count int, ok bool) {
	parts := strings.Fields(line)
	for _, p := range parts {
		if !strings.HasPrefix(p, "+") {
			continue
		}
		spec := strings.TrimPrefix(p, "+")
		nums := strings.SplitN(spec, ",", 2)
		s, err := strconv.Atoi(nums[0])
		if err != nil {
			return 0, 0, false
		}
		cnt := 1
		if len(nums) == 2 {
			cnt, err = strconv.Atoi(nums[1])
			if err != nil {
				return 0, 0, false
			}
		}
		return s, cnt, true
	}
	return 0, 0, false
}
