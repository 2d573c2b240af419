package templater

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSync                = errors.New("cannot sync templates repository")
	ErrMissingTemplatesDir = errors.New("templates directory not found in repository")
	ErrSchemaParse         = errors.New("invalid template manifest")
	ErrNotFound            = errors.New("template not found")
	ErrValidation          = errors.New("invalid variables")
	ErrRender              = errors.New("cannot render template")
)

// SyncError is returned by Sync for every git failure and for a repository
// without a templates directory.
type SyncError struct {
	Repo string
	Ref  string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("cannot prepare templates repository (%s @ %s): %s", e.Repo, e.Ref, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool { return target == ErrSync }

// RenderError carries the template file path, relative to the template root,
// which failed to render.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cannot render %s: %s", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }
