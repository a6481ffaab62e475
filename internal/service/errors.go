package service

import (
	"errors"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"
	"github.com/thingspace/thingspace-notes/pkg/writequeue"
)

// noteError maps repository and queue errors of a note operation to codes.
func noteError(err error, noteID string) error {
	if err == nil {
		return nil
	}
	var c *code.Code
	if errors.As(err, &c) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return code.ErrorNoteNotFound.WithResource("note", noteID)
	case errors.Is(err, domain.ErrVersionConflict):
		return code.ErrorNoteConflict.WithResource("note", noteID)
	case errors.Is(err, writequeue.ErrWriteQueueFull):
		return code.ErrorTooManyRequests.WithResource("note", noteID)
	case errors.Is(err, writequeue.ErrWriteTimeout):
		// the operation never ran; retrying is safe
		return code.ErrorNoteConflict.WithResource("note", noteID).WithDetails("write timeout")
	}
	return apperrors.NewAppError(code.ErrorDBQuery, err)
}

func workspaceError(err error, workspaceID string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return code.ErrorWorkspaceNotFound.WithResource("workspace", workspaceID)
	}
	return apperrors.NewAppError(code.ErrorDBQuery, err)
}
