package service

import (
	"context"
	"errors"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"
)

// membership returns the role of userID in workspaceID. A missing workspace is
// NotFound, a missing membership AccessDenied.
func membership(ctx context.Context, repo domain.WorkspaceRepository, workspaceID, userID string) (domain.Role, error) {
	if _, err := repo.GetByID(ctx, workspaceID); err != nil {
		return "", workspaceError(err, workspaceID)
	}
	m, err := repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", code.ErrorAccessDenied.WithResource("workspace", workspaceID).WithDetails("not a member")
		}
		return "", apperrors.NewAppError(code.ErrorDBQuery, err)
	}
	return m.Role, nil
}

// requireWriter fails unless userID may add or change notes in workspaceID.
func requireWriter(ctx context.Context, repo domain.WorkspaceRepository, workspaceID, userID string) error {
	role, err := membership(ctx, repo, workspaceID, userID)
	if err != nil {
		return err
	}
	if !role.CanWrite() {
		return code.ErrorAccessDenied.WithResource("workspace", workspaceID).WithDetails("read only member")
	}
	return nil
}

// requireReader fails unless userID is a member of workspaceID.
func requireReader(ctx context.Context, repo domain.WorkspaceRepository, workspaceID, userID string) error {
	_, err := membership(ctx, repo, workspaceID, userID)
	return err
}
