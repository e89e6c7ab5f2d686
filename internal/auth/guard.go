package auth

import (
	"errors"

	"feed_service/internal/models"
)

// ErrNotOwner means the caller is authenticated but is not the recorded
// creator of the resource. Distinct from ErrInvalidCredentials so the
// handlers can answer 403 rather than 401.
var ErrNotOwner = errors.New("not resource owner")

// CheckOwner enforces the ownership invariant: only a resource's recorded
// creator may mutate or delete it. Callers must invoke it after the
// existence check and before any mutation or file side effect.
func CheckOwner(identity models.Identity, creatorID string) error {
	if identity.UserID != creatorID {
		return ErrNotOwner
	}

	return nil
}
