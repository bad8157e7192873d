package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/rentright-app/reference-service/internal/errs"
)

func TestLandlords_Add_Validation(t *testing.T) {
	t.Parallel()
	repo := newFakeLandlords()
	s := NewLandlordService(repo)
	ctx := context.Background()
	tenantID := uuid.Must(uuid.NewV4())

	cases := []struct {
		email, afm, name, address string
	}{
		{"bad", "123456789", "Nikos", "Athens 1"},
		{"l@example.com", "12345", "Nikos", "Athens 1"},
		{"l@example.com", "12345678a", "Nikos", "Athens 1"},
		{"l@example.com", "123456789", "", "Athens 1"},
		{"l@example.com", "123456789", "Nikos", ""},
	}
	for _, c := range cases {
		if _, err := s.Add(ctx, tenantID, c.email, c.afm, c.name, c.address); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("want ErrValidation for %+v, got %v", c, err)
		}
	}

	pl, err := s.Add(ctx, tenantID, "L@Example.COM", " 123456789 ", "Nikos", "Athens 1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if pl.Email != "l@example.com" || pl.AFM != "123456789" {
		t.Fatalf("inputs not normalized: %+v", pl)
	}
}

func TestLandlords_DeleteOwnership(t *testing.T) {
	t.Parallel()
	repo := newFakeLandlords()
	s := NewLandlordService(repo)
	ctx := context.Background()
	tenantID := uuid.Must(uuid.NewV4())

	pl, err := s.Add(ctx, tenantID, "l@example.com", "123456789", "Nikos", "Athens 1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Delete(ctx, uuid.Must(uuid.NewV4()), pl.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign delete must report not found, got %v", err)
	}
	if err := s.Delete(ctx, tenantID, pl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := s.List(ctx, tenantID)
	if len(list) != 0 {
		t.Fatalf("entry not deleted: %+v", list)
	}
}
