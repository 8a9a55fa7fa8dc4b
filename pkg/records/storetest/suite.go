// Package storetest is a conformance suite for records.Store backends.
package storetest

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/pinledger/pkg/records"
)

// StoreFactory creates a fresh, empty Store for each test.
type StoreFactory func(t *testing.T) records.Store

// RunConformanceSuite runs every check against stores built by factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("Metadata", func(t *testing.T) {
		runMetadataTests(t, factory)
	})

	t.Run("Images", func(t *testing.T) {
		runImageTests(t, factory)
	})

	t.Run("Tokens", func(t *testing.T) {
		runTokenTests(t, factory)
	})
}

func runMetadataTests(t *testing.T, factory StoreFactory) {
	t.Run("EmptyList", func(t *testing.T) {
		store := factory(t)
		rows, err := store.ListMetadata(t.Context())
		if err != nil {
			t.Fatalf("ListMetadata() failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected no rows, got %d", len(rows))
		}
	})

	t.Run("CreateListDelete", func(t *testing.T) {
		store := factory(t)
		ctx := t.Context()

		ids := make([]string, 0, 3)
		for _, cid := range []string{"bafy-a", "bafy-b", "bafy-c"} {
			id, err := store.CreateMetadata(ctx, &records.MetadataRecord{
				PinataCID: cid,
				PinataURL: "https://gateway.test/ipfs/" + cid,
			})
			if err != nil {
				t.Fatalf("CreateMetadata(%s) failed: %v", cid, err)
			}
			if id == "" {
				t.Fatalf("CreateMetadata(%s) returned empty ID", cid)
			}
			ids = append(ids, id)
			// Distinct created_at keeps the store order deterministic.
			time.Sleep(2 * time.Millisecond)
		}

		rows, err := store.ListMetadata(ctx)
		if err != nil {
			t.Fatalf("ListMetadata() failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		for i, row := range rows {
			if row.ID != ids[i] {
				t.Errorf("row %d: expected ID %s, got %s", i, ids[i], row.ID)
			}
			if row.CreatedAt.IsZero() {
				t.Errorf("row %d: created_at not set", i)
			}
		}

		if err := store.DeleteMetadata(ctx, ids[1]); err != nil {
			t.Fatalf("DeleteMetadata() failed: %v", err)
		}

		rows, err = store.ListMetadata(ctx)
		if err != nil {
			t.Fatalf("ListMetadata() failed: %v", err)
		}
		if len(rows) != 2 || rows[0].PinataCID != "bafy-a" || rows[1].PinataCID != "bafy-c" {
			t.Errorf("unexpected rows after delete: %+v", rows)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		store := factory(t)
		err := store.DeleteMetadata(t.Context(), "00000000-0000-0000-0000-000000000000")
		if !errors.Is(err, records.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}
	})

	t.Run("LookupByImageAndURL", func(t *testing.T) {
		store := factory(t)
		ctx := t.Context()

		imageID, err := store.CreateImage(ctx, &records.Image{FileName: "cat.png", ImagePath: "uploads/cat.png"})
		if err != nil {
			t.Fatalf("CreateImage() failed: %v", err)
		}

		m := &records.MetadataRecord{ImageID: imageID, PinataCID: "bafy-cat", PinataURL: "https://gateway.test/ipfs/bafy-cat"}
		id, err := store.CreateMetadata(ctx, m)
		if err != nil {
			t.Fatalf("CreateMetadata() failed: %v", err)
		}

		got, err := store.GetMetadataByImageID(ctx, imageID)
		if err != nil {
			t.Fatalf("GetMetadataByImageID() failed: %v", err)
		}
		if got.ID != id || got.PinataCID != "bafy-cat" {
			t.Errorf("unexpected metadata: %+v", got)
		}

		gotID, err := store.GetMetadataIDByURL(ctx, m.PinataURL)
		if err != nil {
			t.Fatalf("GetMetadataIDByURL() failed: %v", err)
		}
		if gotID != id {
			t.Errorf("expected %s, got %s", id, gotID)
		}

		if _, err := store.GetMetadataIDByURL(ctx, "https://gateway.test/ipfs/nope"); !errors.Is(err, records.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}
		if _, err := store.GetMetadataByImageID(ctx, "missing"); !errors.Is(err, records.ErrMetadataNotFound) {
			t.Errorf("expected ErrMetadataNotFound, got %v", err)
		}
	})
}

func runImageTests(t *testing.T, factory StoreFactory) {
	t.Run("CreateAndLookup", func(t *testing.T) {
		store := factory(t)
		ctx := t.Context()

		id, err := store.CreateImage(ctx, &records.Image{
			FileName:    "dog.png",
			ImagePath:   "uploads/dog.png",
			Description: "a dog",
		})
		if err != nil {
			t.Fatalf("CreateImage() failed: %v", err)
		}

		gotID, err := store.GetImageIDByPath(ctx, "uploads/dog.png")
		if err != nil {
			t.Fatalf("GetImageIDByPath() failed: %v", err)
		}
		if gotID != id {
			t.Errorf("expected %s, got %s", id, gotID)
		}

		img, err := store.GetImageByFileName(ctx, "dog.png")
		if err != nil {
			t.Fatalf("GetImageByFileName() failed: %v", err)
		}
		if img.Description != "a dog" {
			t.Errorf("unexpected image: %+v", img)
		}

		if _, err := store.GetImageIDByPath(ctx, "uploads/none.png"); !errors.Is(err, records.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound, got %v", err)
		}
	})

	t.Run("DuplicatePath", func(t *testing.T) {
		store := factory(t)
		ctx := t.Context()

		if _, err := store.CreateImage(ctx, &records.Image{FileName: "a.png", ImagePath: "uploads/a.png"}); err != nil {
			t.Fatalf("CreateImage() failed: %v", err)
		}
		_, err := store.CreateImage(ctx, &records.Image{FileName: "a.png", ImagePath: "uploads/a.png"})
		if !errors.Is(err, records.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})
}

func runTokenTests(t *testing.T, factory StoreFactory) {
	t.Run("CreateAndLookup", func(t *testing.T) {
		store := factory(t)
		ctx := t.Context()

		metaID, err := store.CreateMetadata(ctx, &records.MetadataRecord{PinataCID: "bafy-t", PinataURL: "https://gateway.test/ipfs/bafy-t"})
		if err != nil {
			t.Fatalf("CreateMetadata() failed: %v", err)
		}

		minted := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		tok := &records.Token{
			MetadataID:      metaID,
			TokenID:         "42",
			TokenURI:        "https://gateway.test/ipfs/bafy-t",
			TxHash:          "0xabc",
			ContractAddress: "0xcontract",
			Chain:           "sepolia",
			MinterAddress:   "0xminter",
			MintedAt:        minted,
		}
		id, err := store.CreateToken(ctx, tok)
		if err != nil {
			t.Fatalf("CreateToken() failed: %v", err)
		}

		got, err := store.GetTokenByTxHash(ctx, "0xabc")
		if err != nil {
			t.Fatalf("GetTokenByTxHash() failed: %v", err)
		}
		if got.ID != id || got.TokenID != "42" || got.MetadataID != metaID {
			t.Errorf("unexpected token: %+v", got)
		}
		if !got.MintedAt.Equal(minted) {
			t.Errorf("expected minted_at %v, got %v", minted, got.MintedAt)
		}

		list, err := store.ListTokensByMetadataID(ctx, metaID)
		if err != nil {
			t.Fatalf("ListTokensByMetadataID() failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 token, got %d", len(list))
		}

		if _, err := store.GetTokenByTxHash(ctx, "0xnone"); !errors.Is(err, records.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
		if _, err := store.CreateToken(ctx, &records.Token{MetadataID: metaID, TxHash: "0xabc"}); !errors.Is(err, records.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate for repeated tx hash, got %v", err)
		}
	})
}
