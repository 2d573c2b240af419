package templater

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/config"
	"gopkg.in/src-d/go-git.v4/plumbing"
)

const RemoteName = "origin"

var (
	unsafeRepoChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	commitHashRegex = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
)

// SanitizeRepoURL maps a repository URL to a single path element. Runs of
// characters other than letters, digits, '_', '.' and '-' become one '_', so
// distinct URLs may collide.
func SanitizeRepoURL(url string) string {
	return unsafeRepoChars.ReplaceAllString(url, "_")
}

func (t Templater) RepoCacheDir(repoURL, ref string) string {
	return filepath.Join(t.DataDir, ReposDirectory, SanitizeRepoURL(repoURL), ref)
}

// Sync clones or updates repoURL at ref in the repository cache and replaces
// the templates root with the repository's templates directory.
func (t Templater) Sync(ctx context.Context, repoURL, ref string) (string, error) {
	dest := t.RepoCacheDir(repoURL, ref)

	syncErr := func(err error) error {
		return &SyncError{Repo: repoURL, Ref: ref, Err: err}
	}

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		t.Logger.Info().Str("repo", repoURL).Str("ref", ref).Str("dir", dest).Msg("updating repository")
		if err := t.updateRepository(ctx, dest, ref); err != nil {
			return "", syncErr(err)
		}
	} else {
		t.Logger.Info().Str("repo", repoURL).Str("ref", ref).Str("dir", dest).Msg("cloning repository")
		if err := t.cloneRepository(ctx, repoURL, ref, dest); err != nil {
			return "", syncErr(err)
		}
	}

	source := filepath.Join(dest, TemplatesDirectory)
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return "", syncErr(ErrMissingTemplatesDir)
	}

	if err := os.RemoveAll(t.TemplatesDir); err != nil {
		return "", errors.Wrapf(err, "cannot remove %s", t.TemplatesDir)
	}
	if err := copyDir(source, t.TemplatesDir); err != nil {
		return "", errors.Wrapf(err, "cannot copy templates to %s", t.TemplatesDir)
	}

	t.Logger.Info().Str("dir", t.TemplatesDir).Msg("templates replaced")

	return t.TemplatesDir, nil
}

func (t Templater) cloneRepository(ctx context.Context, repoURL, ref, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	if commitHashRegex.MatchString(ref) {
		repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: repoURL})
		if err != nil {
			return err
		}
		return t.checkout(repo, ref)
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
	}

	var err error
	for _, refName := range candidates {
		if err = os.RemoveAll(dest); err != nil {
			return err
		}

		_, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:           repoURL,
			ReferenceName: refName,
			SingleBranch:  true,
			Depth:         t.CloneDepth,
		})
		if err == nil {
			return nil
		}
		if !isReferenceNotFound(err) {
			return err
		}

		t.Logger.Debug().Str("ref", refName.String()).Msg("reference not found")
	}

	_ = os.RemoveAll(dest)

	return err
}

func (t Templater) updateRepository(ctx context.Context, dest, ref string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return err
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		RefSpecs: []config.RefSpec{
			config.RefSpec("+refs/heads/*:refs/remotes/" + RemoteName + "/*"),
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		},
		Tags: git.AllTags,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.Wrap(err, "fetch")
	}

	if err := t.checkout(repo, ref); err != nil {
		return err
	}

	head, err := repo.Head()
	if err != nil {
		return err
	}
	if !head.Name().IsBranch() {
		// tags and commits have nothing to pull
		return nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    RemoteName,
		ReferenceName: head.Name(),
		SingleBranch:  true,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.Wrap(err, "pull")
	}

	return nil
}

// checkout switches the worktree to a local branch, a remote branch, a tag or
// a commit hash, in this order.
func (t Templater) checkout(repo *git.Repository, ref string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return err
	}

	branch := plumbing.NewBranchReferenceName(ref)
	if _, err := repo.Reference(branch, true); err == nil {
		return worktree.Checkout(&git.CheckoutOptions{Branch: branch})
	}

	remote, err := repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, ref), true)
	if err == nil {
		return worktree.Checkout(&git.CheckoutOptions{Branch: branch, Hash: remote.Hash(), Create: true})
	}

	hash, err := resolveCommit(repo, ref)
	if err != nil {
		return errors.Wrapf(err, "cannot resolve %s", ref)
	}

	return worktree.Checkout(&git.CheckoutOptions{Hash: hash})
}

func resolveCommit(repo *git.Repository, ref string) (plumbing.Hash, error) {
	var hash plumbing.Hash

	if tag, err := repo.Reference(plumbing.NewTagReferenceName(ref), true); err == nil {
		hash = tag.Hash()
	} else if commitHashRegex.MatchString(ref) {
		hash = plumbing.NewHash(ref)
	} else {
		return plumbing.ZeroHash, plumbing.ErrReferenceNotFound
	}

	// annotated tags point to a tag object
	if tagObject, err := repo.TagObject(hash); err == nil {
		commit, err := tagObject.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	}

	if _, err := repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, err
	}

	return hash, nil
}

// copyDir recreates source at dest, keeping file modes and modification times.
func copyDir(source, dest string) error {
	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(dest, rel)

		if info.IsDir() {
			return os.MkdirAll(destPath, info.Mode().Perm()|0700)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, destPath)
		}

		return copyFile(path, destPath)
	})
}

// remoteRefNotFound prefixes the unexported error go-git returns when a clone
// asks for a reference the remote does not advertise.
const remoteRefNotFound = "couldn't find remote ref"

func isReferenceNotFound(err error) bool {
	return err == plumbing.ErrReferenceNotFound ||
		err.Error() == plumbing.ErrReferenceNotFound.Error() ||
		strings.HasPrefix(err.Error(), remoteRefNotFound)
}
