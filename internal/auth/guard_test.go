package auth

import (
	"errors"
	"testing"

	"feed_service/internal/models"
)

func TestCheckOwner(t *testing.T) {
	owner := models.Identity{UserID: "64f0c3e1a2b3c4d5e6f70801", Email: "a@b.com"}

	if err := CheckOwner(owner, owner.UserID); err != nil {
		t.Fatalf("owner should pass the check: %v", err)
	}

	other := models.Identity{UserID: "64f0c3e1a2b3c4d5e6f70802", Email: "c@d.com"}
	if err := CheckOwner(other, owner.UserID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}
