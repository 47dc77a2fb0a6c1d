package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marketminds/engine/internal/database"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/testutil"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	ctx := context.Background()
	tdb.Cleanup(ctx)

	store := database.NewCredentialStore(tdb.DB)
	ownerID := uuid.NewString()

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	err := store.Put(ctx, &models.EmailCredentials{
		OwnerID:      ownerID,
		Provider:     "gmail",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    expires,
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, ownerID, "gmail")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for stored credentials")
	}
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
		t.Errorf("tokens = (%q, %q)", got.AccessToken, got.RefreshToken)
	}
	if !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}
}

// A token refresh often comes back without a new refresh token; the
// stored one must survive the update.
func TestCredentialStoreKeepsRefreshToken(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	ctx := context.Background()
	tdb.Cleanup(ctx)

	store := database.NewCredentialStore(tdb.DB)
	ownerID := uuid.NewString()

	err := store.Put(ctx, &models.EmailCredentials{
		OwnerID:      ownerID,
		Provider:     "gmail",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	err = store.Put(ctx, &models.EmailCredentials{
		OwnerID:     ownerID,
		Provider:    "gmail",
		AccessToken: "access-2",
	})
	if err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := store.Get(ctx, ownerID, "gmail")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "access-2" {
		t.Errorf("AccessToken = %q, want access-2", got.AccessToken)
	}
	if got.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want preserved refresh-1", got.RefreshToken)
	}
}

func TestCredentialStoreDelete(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	ctx := context.Background()
	tdb.Cleanup(ctx)

	store := database.NewCredentialStore(tdb.DB)
	ownerID := uuid.NewString()

	err := store.Put(ctx, &models.EmailCredentials{
		OwnerID:     ownerID,
		Provider:    "gmail",
		AccessToken: "access-1",
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Delete(ctx, ownerID, "gmail"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := store.Get(ctx, ownerID, "gmail")
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if got != nil {
		t.Error("Get() after delete should return nil")
	}
}
