package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/mailkeeper/mailkeeper/internal/models"
	pkgmail "github.com/mailkeeper/mailkeeper/internal/pkg/mail"
	"github.com/mailkeeper/mailkeeper/internal/pkg/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outcome distinguishes a first confirmation email from a replacement one.
type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeResent Outcome = "resent"
)

// Mailer is the slice of the mail sender the subscription service needs.
type Mailer interface {
	SendConfirmation(to, subject string, data pkgmail.ConfirmationData) error
	SendConfirmedNotice(to, subject string, data pkgmail.ConfirmedData) error
	SendUnsubscribedNotice(to, subject string, data pkgmail.UnsubscribedData) error
	SendOperatorNotify(to, subject string, data pkgmail.OperatorNotifyData) error
}

// Service owns the subscriber state machine. Every state change and the email
// announcing it commit or fail together: the subscriber email runs inside the
// same database transaction as the write, so a delivery failure rolls the
// mutation back and the caller sees a TechnicalError. Operator notifications
// run after commit and never affect the outcome.
type Service struct {
	db     *gorm.DB
	mailer Mailer
	cfg    *config.AppConfig
	log    *zap.Logger
}

func NewService(db *gorm.DB, mailer Mailer, cfg *config.AppConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, mailer: mailer, cfg: cfg, log: log}
}

// Subscribe registers email and sends the double opt-in confirmation.
// An active confirmed subscriber is rejected; a pending or unsubscribed row is
// replaced wholesale, with a fresh confirm key and fresh extra fields.
func (s *Service) Subscribe(ctx context.Context, email string, fields map[string]interface{}) (Outcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", reject(ReasonMissingEmail)
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", technical("subscribe", email, err)
	}

	if existing != nil && existing.Confirmed && existing.Active {
		return "", reject(ReasonAlreadySubscribed)
	}

	outcome := OutcomeSent
	if existing != nil && existing.Active && !existing.Confirmed {
		outcome = OutcomeResent
	}

	key, err := token.New()
	if err != nil {
		return "", technical("subscribe", email, err)
	}

	sub := models.SubscriberModel{
		Email:        email,
		ConfirmKey:   key,
		SubscribedAt: time.Now(),
		Active:       true,
		Fields:       s.normalizeFields(fields),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing != nil {
			if err := deleteSubscriber(tx, existing.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		confirmURL, err := s.actionURL("confirm", email, key)
		if err != nil {
			return err
		}
		return s.mailer.SendConfirmation(email, s.cfg.Mail.Subjects.Confirmation, pkgmail.ConfirmationData{
			SiteName:   s.cfg.Site.Name,
			ConfirmURL: confirmURL,
		})
	})
	if err != nil {
		return "", technical("subscribe", email, err)
	}

	if s.cfg.Notify.OnUnconfirmed {
		s.notifyOperator("New subscription request", &sub)
	}

	return outcome, nil
}

// Confirm flips a pending subscription to confirmed. Both arguments must be
// present and match the stored row exactly; confirming twice is a rejection.
func (s *Service) Confirm(ctx context.Context, email, key string) error {
	email = strings.TrimSpace(email)
	key = strings.TrimSpace(key)
	if email == "" || key == "" {
		return reject(ReasonCannotConfirm)
	}

	sub, err := s.findByEmail(ctx, email)
	if err != nil {
		return technical("confirm", email, err)
	}
	if sub == nil || sub.ConfirmKey != key || sub.Confirmed {
		return reject(ReasonCannotConfirm)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SubscriberModel{}).
			Where("id = ?", sub.ID).
			Updates(map[string]interface{}{"confirmed": true, "confirmed_at": now}).Error; err != nil {
			return err
		}
		unsubURL, err := s.actionURL("unsubscribe", email, key)
		if err != nil {
			return err
		}
		return s.mailer.SendConfirmedNotice(email, s.cfg.Mail.Subjects.Confirmed, pkgmail.ConfirmedData{
			SiteName:       s.cfg.Site.Name,
			UnsubscribeURL: unsubURL,
		})
	})
	if err != nil {
		return technical("confirm", email, err)
	}

	sub.Confirmed = true
	sub.ConfirmedAt = &now
	s.notifyOperator("Subscription confirmed", sub)

	return nil
}

// Unsubscribe deactivates a confirmed subscription. Only a confirmed, active
// row with a matching key can be unsubscribed.
func (s *Service) Unsubscribe(ctx context.Context, email, key string) error {
	email = strings.TrimSpace(email)
	key = strings.TrimSpace(key)
	if email == "" || key == "" {
		return reject(ReasonCannotUnsubscribe)
	}

	sub, err := s.findByEmail(ctx, email)
	if err != nil {
		return technical("unsubscribe", email, err)
	}
	if sub == nil || sub.ConfirmKey != key || !sub.Confirmed || !sub.Active {
		return reject(ReasonCannotUnsubscribe)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SubscriberModel{}).
			Where("id = ?", sub.ID).
			Updates(map[string]interface{}{"active": false, "unsubscribed_at": now}).Error; err != nil {
			return err
		}
		return s.mailer.SendUnsubscribedNotice(email, s.cfg.Mail.Subjects.Unsubscribed, pkgmail.UnsubscribedData{
			SiteName: s.cfg.Site.Name,
		})
	})
	if err != nil {
		return technical("unsubscribe", email, err)
	}

	if s.cfg.Notify.OnUnsubscribed {
		sub.Active = false
		sub.UnsubscribedAt = &now
		s.notifyOperator("Subscription cancelled", sub)
	}

	return nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.SubscriberModel, error) {
	var sub models.SubscriberModel
	err := s.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("email = ?", email).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// deleteSubscriber removes a row and its fields. The field delete is explicit
// because not every dialect honors the FK cascade.
func deleteSubscriber(tx *gorm.DB, id string) error {
	if err := tx.Where("subscriber_id = ?", id).Delete(&models.SubscriberFieldModel{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.SubscriberModel{}).Error
}

// normalizeFields filters the submitted values down to the configured field
// definitions, in definition order. Checkbox values collapse to yes/no.
func (s *Service) normalizeFields(input map[string]interface{}) []models.SubscriberFieldModel {
	if len(s.cfg.Fields) == 0 || len(input) == 0 {
		return nil
	}
	out := make([]models.SubscriberFieldModel, 0, len(s.cfg.Fields))
	for _, def := range s.cfg.Fields {
		raw, ok := input[def.Name]
		if !ok {
			continue
		}
		out = append(out, models.SubscriberFieldModel{
			Name:  def.Name,
			Value: normalizeFieldValue(def, raw),
		})
	}
	return out
}

func normalizeFieldValue(def config.FieldDef, raw interface{}) string {
	if def.Type == config.FieldTypeCheckbox {
		if isTruthy(raw) {
			return "yes"
		}
		return "no"
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

func isTruthy(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "on", "yes", "true":
			return true
		}
		return false
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// actionURL builds the public confirm/unsubscribe link for a subscriber.
func (s *Service) actionURL(action, email, key string) (string, error) {
	base := strings.TrimSpace(s.cfg.Site.BaseURL)
	if base == "" {
		return "", fmt.Errorf("site base_url is not configured")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid site base_url %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v2/subscribe/" + action
	q := u.Query()
	q.Set("key", key)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// notifyOperator mails the admin about a committed subscriber event.
// Best-effort: failures are logged, never surfaced.
func (s *Service) notifyOperator(headline string, sub *models.SubscriberModel) {
	to := strings.TrimSpace(s.cfg.Notify.To)
	if to == "" {
		return
	}

	rows := make([]pkgmail.FieldRow, 0, len(sub.Fields))
	for _, f := range sub.Fields {
		label := f.Name
		if def, ok := s.cfg.FieldByName(f.Name); ok {
			label = def.Label
		}
		rows = append(rows, pkgmail.FieldRow{Label: label, Value: f.Value})
	}

	subject := fmt.Sprintf("%s: %s", headline, sub.Email)
	err := s.mailer.SendOperatorNotify(to, subject, pkgmail.OperatorNotifyData{
		SiteName: s.cfg.Site.Name,
		Headline: headline,
		Email:    sub.Email,
		Fields:   rows,
	})
	if err != nil {
		s.log.Warn("operator notification failed",
			zap.String("event", headline),
			zap.String("email", sub.Email),
			zap.Error(err),
		)
	}
}
