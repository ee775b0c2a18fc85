package cmd

import (
	"strings"

	"github.com/clintonboys/lit/internal/repo"
)

// classifiedStatus buckets repo.Status output the way lit's commands
// report it: by area (prompts/ vs code.lock/ vs lit.toml; other paths
// are not reported) and by staging+worktree state (new, modified, and,
// under prompts/ only, deleted).
type classifiedStatus struct {
	PromptsNew, PromptsModified, PromptsDeleted []string
	CodeNew, CodeModified                       []string
	ConfigModified                               []string
}

func (s *classifiedStatus) hasChanges() bool {
	return len(s.PromptsNew)+len(s.PromptsModified)+len(s.PromptsDeleted)+
		len(s.CodeNew)+len(s.CodeModified)+len(s.ConfigModified) > 0
}

func (s *classifiedStatus) totalChanges() int {
	return len(s.PromptsNew) + len(s.PromptsModified) + len(s.PromptsDeleted) +
		len(s.CodeNew) + len(s.CodeModified) + len(s.ConfigModified)
}

// classifyStatus groups raw file statuses by area and change kind. A
// path's staging state takes priority over its worktree state when
// they disagree (e.g. staged-new, then edited again in the worktree is
// still "new" from a commit's point of view).
func classifyStatus(statuses []repo.FileStatus) *classifiedStatus {
	cs := &classifiedStatus{}
	for _, fs := range statuses {
		state := fs.Staging
		if state == "" || state == "unmodified" {
			state = fs.Worktree
		}

		switch {
		case strings.HasPrefix(fs.Path, "prompts/"):
			switch state {
			case "added", "untracked":
				cs.PromptsNew = append(cs.PromptsNew, fs.Path)
			case "deleted":
				cs.PromptsDeleted = append(cs.PromptsDeleted, fs.Path)
			case "modified":
				cs.PromptsModified = append(cs.PromptsModified, fs.Path)
			}
		case strings.HasPrefix(fs.Path, "code.lock/"):
			switch state {
			case "added", "untracked":
				cs.CodeNew = append(cs.CodeNew, fs.Path)
			case "modified":
				cs.CodeModified = append(cs.CodeModified, fs.Path)
			}
		case fs.Path == "lit.toml":
			if state == "modified" {
				cs.ConfigModified = append(cs.ConfigModified, fs.Path)
			}
		}
	}
	return cs
}
