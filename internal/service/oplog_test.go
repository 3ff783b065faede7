package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"heating_bridge/internal/models"
)

type captureEventRepo struct {
	fakeEventRepo
	gotFrom time.Time
	gotTo   time.Time
	gotType string
}

func (c *captureEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.OperationEvent, error) {
	c.gotFrom, c.gotTo, c.gotType = from, to, typ
	return nil, nil
}

func TestOperationLogList_NormalizesFilter(t *testing.T) {
	repo := &captureEventRepo{}
	s := NewOperationLogService(repo)

	loc := time.FixedZone("CET", 3600)
	from := time.Date(2026, 1, 10, 10, 0, 0, 0, loc)
	to := time.Date(2026, 1, 11, 10, 0, 0, 0, loc)

	if _, err := s.List(context.Background(), LogFilter{From: from, To: to, Type: " converged "}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.gotFrom.Location() != time.UTC || repo.gotTo.Location() != time.UTC {
		t.Errorf("filter times not normalized to UTC")
	}
	if !repo.gotFrom.Equal(from) {
		t.Errorf("from changed in value: %v vs %v", repo.gotFrom, from)
	}
	if repo.gotType != "CONVERGED" {
		t.Errorf("type = %q, want CONVERGED", repo.gotType)
	}
}

func TestOperationLogList_RejectsInvertedRange(t *testing.T) {
	s := NewOperationLogService(&captureEventRepo{})
	f := LogFilter{
		From: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.List(context.Background(), f); !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestOperationLogList_ZeroBoundsPassThrough(t *testing.T) {
	repo := &captureEventRepo{}
	s := NewOperationLogService(repo)
	if _, err := s.List(context.Background(), LogFilter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !repo.gotFrom.IsZero() || !repo.gotTo.IsZero() || repo.gotType != "" {
		t.Errorf("zero filter mutated: from=%v to=%v type=%q", repo.gotFrom, repo.gotTo, repo.gotType)
	}
}
