// Package services – AlertService
//
// This file implements the AlertService, which runs the daily alert sweep:
// red and purple bags mail their red recipient, orange bags their orange
// recipient. Bodies substitute {nom}, {categorie}, {date} and {echeance};
// subjects only {nom}. Out-of-service bags and bags without a recipient are
// skipped, and one failed delivery never stops the sweep.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/mailer"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/status"
	"github.com/tmercier/go-bagcheck-backend/internal/sysutil"
)

// SweepResult summarizes one alert sweep run.
type SweepResult struct {
	Examined int `json:"examined"`
	Sent     int `json:"sent"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// AlertService implements the alert sweep.
type AlertService struct {
	// DB is the GORM handle used for reads.
	DB *gorm.DB
	// Sender delivers the alert mail.
	Sender mailer.Sender
}

// Sweep walks the inventory and mails one alert per bag that needs one.
func (s *AlertService) Sweep(ctx context.Context) (*SweepResult, error) {
	bags, err := repo.ListBags(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	conf := domain.DefaultMailTemplates()
	var stored domain.MailTemplates
	if err := repo.GetProperty(ctx, s.DB, repo.PropMailTemplates, &stored); err == nil {
		conf = withDefaults(stored)
	} else if !repo.IsNotFound(err) {
		return nil, err
	}

	res := &SweepResult{}
	for _, b := range bags {
		res.Examined++
		if b.State == domain.StateOutOfService {
			res.Skipped++
			continue
		}

		var recipient, subject, body string
		switch b.Status {
		case domain.StatusRed, domain.StatusPurple:
			recipient, subject, body = b.MailRed, conf.RedSubject, conf.RedBody
		case domain.StatusOrange:
			recipient, subject, body = b.MailOrange, conf.OrangeSubject, conf.OrangeBody
		default:
			res.Skipped++
			continue
		}
		if recipient == "" {
			res.Skipped++
			continue
		}

		body = substitute(body, b)
		subject = strings.ReplaceAll(subject, "{nom}", b.Name)

		if err := s.Sender.Send(ctx, recipient, subject, body); err != nil {
			log.Error().Err(err).Str("bag", b.Name).Str("to", recipient).Msg("alert mail failed")
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res, nil
}

// withDefaults fills blank template fields with the built-in wording.
func withDefaults(t domain.MailTemplates) domain.MailTemplates {
	def := domain.DefaultMailTemplates()
	t.OrangeSubject = sysutil.FirstNonEmpty(t.OrangeSubject, def.OrangeSubject)
	t.OrangeBody = sysutil.FirstNonEmpty(t.OrangeBody, def.OrangeBody)
	t.RedSubject = sysutil.FirstNonEmpty(t.RedSubject, def.RedSubject)
	t.RedBody = sysutil.FirstNonEmpty(t.RedBody, def.RedBody)
	return t
}

func substitute(body string, b domain.Bag) string {
	r := strings.NewReplacer(
		"{nom}", b.Name,
		"{categorie}", b.Category,
		"{date}", status.FormatDate(b.LastControl),
		"{echeance}", status.FormatDate(b.NextControl),
	)
	return r.Replace(body)
}
