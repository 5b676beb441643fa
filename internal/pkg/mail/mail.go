package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	appcfg "github.com/mailkeeper/mailkeeper/internal/config"
)

// Config holds mail provider settings.
type Config struct {
	Enable          bool
	Host            string
	Port            int
	User            string
	Pass            string
	From            string
	ReplyTo         string
	UseResend       bool
	ResendKey       string
	SiteName        string
	PrependSitename bool
}

// BuildConfig maps the application mail options onto a sender Config.
func BuildConfig(cfg *appcfg.AppConfig) Config {
	if cfg == nil {
		return Config{}
	}
	mc := Config{
		Enable:          cfg.Mail.Enable,
		Host:            cfg.Mail.SMTP.Host,
		Port:            cfg.Mail.SMTP.Port,
		User:            cfg.Mail.SMTP.User,
		Pass:            cfg.Mail.SMTP.Pass,
		From:            cfg.Mail.From,
		ReplyTo:         cfg.Mail.ReplyTo,
		SiteName:        cfg.Site.Name,
		PrependSitename: cfg.Mail.PrependSitename,
	}
	if cfg.Mail.Resend.APIKey != "" {
		mc.UseResend = true
		mc.ResendKey = cfg.Mail.Resend.APIKey
	}
	return mc
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails via SMTP or Resend.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Subject applies the optional "[SiteName]" prefix to a base subject line.
func (s *Sender) Subject(base string) string {
	if s.cfg.PrependSitename && strings.TrimSpace(s.cfg.SiteName) != "" {
		return fmt.Sprintf("[%s] %s", s.cfg.SiteName, base)
	}
	return base
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.UseResend && s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

func (s *Sender) sendSMTP(msg Message) error {
	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", s.cfg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, host)
	return smtp.SendMail(addr, auth, from, msg.To, body.Bytes())
}

func (s *Sender) sendResend(msg Message) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}
