package git

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jensroland/git-autocommit/internal/patch"
	"github.com/jensroland/git-autocommit/internal/rebase"
)

// ErrNonLinear is returned when the unpushed range contains a merge commit.
var ErrNonLinear = errors.New("unpushed history contains a merge commit; only linear history can be rebased")

// HistoryStatus says whether a linear history could be read.
type HistoryStatus int

const (
	HistoryOK HistoryStatus = iota
	// HistoryEmpty means the repository has no commits.
	HistoryEmpty
	// HistoryNoUpstream means HEAD is detached or its branch has no
	// resolvable upstream.
	HistoryNoUpstream
)

func (s HistoryStatus) String() string {
	switch s {
	case HistoryOK:
		return "ok"
	case HistoryEmpty:
		return "empty repository"
	case HistoryNoUpstream:
		return "no upstream"
	default:
		return fmt.Sprintf("HistoryStatus(%d)", int(s))
	}
}

// History is the result of reading the unpushed commits.
type History struct {
	Status HistoryStatus
	// Commits is ordered oldest to newest.
	Commits []rebase.Commit
}

// Repo reads commits and index content directly from the object store.
type Repo struct {
	root string
	repo *gitlib.Repository
}

// OpenRepo opens the repository containing root.
func OpenRepo(root string) (*Repo, error) {
	repo, err := gitlib.PlainOpenWithOptions(root, &gitlib.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	return &Repo{root: root, repo: repo}, nil
}

// LinearHistory returns the commits in @{upstream}..HEAD following first
// parents from HEAD down to the merge base with the upstream.
func (r *Repo) LinearHistory() (History, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return History{Status: HistoryEmpty}, nil
		}
		return History{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return History{Status: HistoryNoUpstream}, nil
	}

	upstream, err := r.upstream(head.Name().Short())
	if err != nil {
		return History{}, err
	}
	if upstream == nil {
		return History{Status: HistoryNoUpstream}, nil
	}

	tip, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return History{}, fmt.Errorf("read HEAD commit: %w", err)
	}
	upCommit, err := r.repo.CommitObject(upstream.Hash())
	if err != nil {
		return History{}, fmt.Errorf("read upstream commit: %w", err)
	}

	stop := plumbing.ZeroHash
	bases, err := tip.MergeBase(upCommit)
	if err != nil {
		return History{}, fmt.Errorf("merge base: %w", err)
	}
	if len(bases) > 0 {
		stop = bases[0].Hash
	}

	commits, err := firstParentChain(tip, stop)
	if err != nil {
		return History{}, err
	}
	return History{Status: HistoryOK, Commits: commits}, nil
}

// firstParentChain walks from tip until stop (exclusive) or the root
// commit, returning the commits oldest first.
func firstParentChain(tip *object.Commit, stop plumbing.Hash) ([]rebase.Commit, error) {
	var commits []rebase.Commit
	c := tip
	for c != nil && c.Hash != stop {
		if c.NumParents() > 1 {
			return nil, fmt.Errorf("%w: %s", ErrNonLinear, c.Hash)
		}
		rc := rebase.Commit{SHA: c.Hash.String(), Subject: Subject(c.Message)}
		if c.NumParents() == 0 {
			commits = append(commits, rc)
			break
		}
		rc.Parent = c.ParentHashes[0].String()
		commits = append(commits, rc)

		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("read parent of %s: %w", c.Hash, err)
		}
		c = parent
	}
	slices.Reverse(commits)
	return commits, nil
}

// upstream resolves the reference a local branch tracks, or nil when it has
// none or the remote-tracking ref does not exist.
func (r *Repo) upstream(branch string) (*plumbing.Reference, error) {
	cfg, err := r.repo.Branch(branch)
	if err != nil {
		if errors.Is(err, gitlib.ErrBranchNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read branch config %s: %w", branch, err)
	}
	if cfg.Remote == "" || cfg.Merge == "" {
		return nil, nil
	}

	name := cfg.Merge
	if cfg.Remote != "." {
		name = plumbing.NewRemoteReferenceName(cfg.Remote, cfg.Merge.Short())
	}
	ref, err := r.repo.Reference(name, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve upstream %s: %w", name, err)
	}
	return ref, nil
}

// IndexedContent returns the staged content of path. A path missing from
// the index yields Content{Absent: true}.
func (r *Repo) IndexedContent(path string) (patch.Content, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return patch.Content{}, fmt.Errorf("read index: %w", err)
	}
	entry, err := idx.Entry(filepath.ToSlash(path))
	if err != nil {
		if errors.Is(err, index.ErrEntryNotFound) {
			return patch.Content{Absent: true}, nil
		}
		return patch.Content{}, fmt.Errorf("index entry %s: %w", path, err)
	}

	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return patch.Content{}, fmt.Errorf("read blob for %s: %w", path, err)
	}
	rd, err := blob.Reader()
	if err != nil {
		return patch.Content{}, err
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return patch.Content{}, fmt.Errorf("read blob for %s: %w", path, err)
	}
	return patch.SplitLines(string(data)), nil
}

// WorkingTreeContent returns the on-disk content of path. A deleted file
// yields Content{Absent: true}.
func (r *Repo) WorkingTreeContent(path string) (patch.Content, error) {
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return patch.Content{Absent: true}, nil
		}
		return patch.Content{}, err
	}
	return patch.SplitLines(string(data)), nil
}

// Subject returns the first line of a commit message.
func Subject(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return message
}
