package subscription

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"github.com/mailkeeper/mailkeeper/internal/models"
	"gorm.io/gorm"
)

// Stats are the aggregate subscriber counts. Total counts live rows only, so
// unsubscribed addresses do not inflate it.
type Stats struct {
	Confirmed    int64 `json:"confirmed"`
	Unconfirmed  int64 `json:"unconfirmed"`
	Unsubscribed int64 `json:"unsubscribed"`
	Total        int64 `json:"total"`
}

// Stats returns the aggregate counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	db := s.db.WithContext(ctx).Model(&models.SubscriberModel{})

	if err := db.Session(&gorm.Session{}).Where("confirmed = ? AND active = ?", true, true).Count(&out.Confirmed).Error; err != nil {
		return nil, technical("stats", "", err)
	}
	if err := db.Session(&gorm.Session{}).Where("confirmed = ? AND active = ?", false, true).Count(&out.Unconfirmed).Error; err != nil {
		return nil, technical("stats", "", err)
	}
	if err := db.Session(&gorm.Session{}).Where("active = ?", false).Count(&out.Unsubscribed).Error; err != nil {
		return nil, technical("stats", "", err)
	}
	out.Total = out.Confirmed + out.Unconfirmed
	return &out, nil
}

// List returns every subscriber with extra fields, newest first.
func (s *Service) List(ctx context.Context) ([]models.SubscriberModel, error) {
	var subs []models.SubscriberModel
	err := s.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, technical("list", "", err)
	}
	return subs, nil
}

// WriteCSV streams the full subscriber dump: fixed columns, one column per
// configured extra field, and an unsubscribe link for rows that can use one.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	subs, err := s.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := []string{"email", "subscribed_at", "confirmed", "confirmed_at", "active", "unsubscribed_at"}
	for _, def := range s.cfg.Fields {
		header = append(header, def.Label)
	}
	header = append(header, "unsubscribe_link")
	if err := cw.Write(header); err != nil {
		return technical("export", "", err)
	}

	for i := range subs {
		sub := &subs[i]
		row := []string{
			sub.Email,
			formatTime(&sub.SubscribedAt),
			yesNo(sub.Confirmed),
			formatTime(sub.ConfirmedAt),
			yesNo(sub.Active),
			formatTime(sub.UnsubscribedAt),
		}

		values := make(map[string]string, len(sub.Fields))
		for _, f := range sub.Fields {
			values[f.Name] = f.Value
		}
		for _, def := range s.cfg.Fields {
			row = append(row, values[def.Name])
		}

		link := ""
		if sub.Confirmed && sub.Active {
			if u, err := s.actionURL("unsubscribe", sub.Email, sub.ConfirmKey); err == nil {
				link = u
			}
		}
		row = append(row, link)

		if err := cw.Write(row); err != nil {
			return technical("export", sub.Email, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return technical("export", "", err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
