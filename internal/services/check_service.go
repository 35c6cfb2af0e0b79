// Package services – CheckService
//
// This file implements the CheckService, which records bag verifications: it
// stamps the control window from the category frequency, classifies the bag
// (an expired contained item forces purple over every date rule), appends the
// annotated history entry, and invalidates the bootstrap snapshot.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/status"
)

// CheckInput carries one verification submission.
type CheckInput struct {
	// Bag is the bag name being verified.
	Bag string `json:"bag"`
	// Answers holds the raw form answers; stored opaquely in history.
	Answers json.RawMessage `json:"answers"`
	// NextItemName / NextItemExpiry describe the soonest-expiring item found
	// during the check. Expiry is an ISO date (2006-01-02); blank or
	// malformed means no item constraint.
	NextItemName   string `json:"nextItemName"`
	NextItemExpiry string `json:"nextItemExpiry"`
	// Verifier is the person performing the check.
	Verifier string `json:"verifier"`
	// Elapsed is the optional verification duration shown in history.
	Elapsed string `json:"elapsed"`
}

// CheckResult reports the recomputed bag after a verification.
type CheckResult struct {
	Bag         *domain.Bag `json:"bag"`
	Status      string      `json:"status"`
	NextControl time.Time   `json:"nextControl"`
}

// CheckService records verifications.
type CheckService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cache is invalidated after every successful save.
	Cache Invalidator
	// Now allows tests to pin the clock; defaults to time.Now.
	Now func() time.Time
}

func (s *CheckService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Save records one verification. The bag's control window restarts at now
// plus the category frequency (30 days when the category has no config row).
// Status is green unless the reported item expiry is already past, which
// forces purple and flags the history entry.
func (s *CheckService) Save(ctx context.Context, in CheckInput) (*CheckResult, error) {
	name := strings.TrimSpace(in.Bag)
	if name == "" {
		return nil, ErrEmptyName
	}

	bag, err := repo.GetBag(ctx, s.DB, name)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrBagNotFound
		}
		return nil, err
	}

	freq := status.DefaultFrequencyDays
	if cat, err := repo.GetCategory(ctx, s.DB, bag.Category); err == nil && cat.FrequencyDays > 0 {
		freq = cat.FrequencyDays
	} else if err != nil && !repo.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	next := status.NextControl(now, freq)
	itemExpiry := status.ParseDate(in.NextItemExpiry)

	st := domain.StatusGreen
	itemAlert := ""
	if itemExpiry != nil && itemExpiry.Before(now) {
		st = domain.StatusPurple
		itemAlert = "OBJET PÉRIMÉ : " + in.NextItemName
	}

	bag.LastControl = &now
	bag.NextControl = &next
	bag.Status = st
	bag.LastVerifier = in.Verifier
	bag.NextItemName = in.NextItemName
	bag.NextItemExpiry = itemExpiry
	if err := repo.SaveBag(ctx, s.DB, bag); err != nil {
		return nil, err
	}

	details := string(in.Answers)
	if details == "" {
		details = "{}"
	}
	if itemAlert != "" {
		details += " || " + itemAlert
	}
	if in.Elapsed != "" {
		details += fmt.Sprintf(" [⏱️ %s]", in.Elapsed)
	}
	if _, err := repo.AppendHistory(ctx, s.DB, bag.Name, in.Verifier, details, now); err != nil {
		return nil, err
	}

	if err := s.Cache.Invalidate(ctx); err != nil {
		return nil, err
	}
	return &CheckResult{Bag: bag, Status: st, NextControl: next}, nil
}
