package mail

import (
	"bytes"
	"html/template"
	"time"
)

const confirmationTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Confirm your subscription</h2>
  <p>Thanks for subscribing to {{.SiteName}}! Please click the button below to confirm your email address:</p>
  <p style="margin-top:24px">
    <a href="{{.ConfirmURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Confirm subscription</a>
  </p>
  <p style="color:#999;font-size:12px">If you did not request this, you can safely ignore this email.</p>
  <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
  <p style="font-size:10px;line-height:24px;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.<br />&copy;{{year}} {{.SiteName}}</p>
</div>
</body>
</html>`

const confirmedTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Subscription confirmed</h2>
  <p>Your subscription to {{.SiteName}} is now active. Welcome aboard!</p>
  <p style="color:#999;font-size:12px;margin-top:24px">Changed your mind? You can <a href="{{.UnsubscribeURL}}" style="color:#4f46e5">unsubscribe</a> at any time.</p>
  <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
  <p style="font-size:10px;line-height:24px;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.<br />&copy;{{year}} {{.SiteName}}</p>
</div>
</body>
</html>`

const unsubscribedTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">You have been unsubscribed</h2>
  <p>Your email address has been removed from the {{.SiteName}} subscriber list. We are sorry to see you go.</p>
  <p style="color:#999;font-size:12px;margin-top:24px">If this was a mistake, you can subscribe again on our website.</p>
  <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
  <p style="font-size:10px;line-height:24px;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.<br />&copy;{{year}} {{.SiteName}}</p>
</div>
</body>
</html>`

const operatorNotifyTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">{{.Headline}}</h2>
  <table style="border-collapse:collapse;width:100%;font-size:14px">
    <tr><td style="padding:6px 12px;color:#666;border-bottom:1px solid #eee">Email</td><td style="padding:6px 12px;border-bottom:1px solid #eee">{{.Email}}</td></tr>
    {{range .Fields}}<tr><td style="padding:6px 12px;color:#666;border-bottom:1px solid #eee">{{.Label}}</td><td style="padding:6px 12px;border-bottom:1px solid #eee">{{.Value}}</td></tr>
    {{end}}
  </table>
  <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
  <p style="font-size:10px;line-height:24px;text-align:center;color:rgb(156,163,175)">Sent by {{.SiteName}} &middot; {{year}}</p>
</div>
</body>
</html>`

// ConfirmationData is the data for the double opt-in request email.
type ConfirmationData struct {
	SiteName   string
	ConfirmURL string
}

// ConfirmedData is the data for the welcome email sent after confirmation.
type ConfirmedData struct {
	SiteName       string
	UnsubscribeURL string
}

// UnsubscribedData is the data for the goodbye email.
type UnsubscribedData struct {
	SiteName string
}

// FieldRow is one label/value pair shown in the operator notification.
type FieldRow struct {
	Label string
	Value string
}

// OperatorNotifyData is the data for the admin notification email.
type OperatorNotifyData struct {
	SiteName string
	Headline string
	Email    string
	Fields   []FieldRow
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendConfirmation mails the double opt-in request with the confirm link.
func (s *Sender) SendConfirmation(to, subject string, data ConfirmationData) error {
	html, err := renderTemplate(confirmationTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: s.Subject(subject),
		HTML:    html,
	})
}

// SendConfirmedNotice mails the welcome notice, including the unsubscribe link.
func (s *Sender) SendConfirmedNotice(to, subject string, data ConfirmedData) error {
	html, err := renderTemplate(confirmedTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: s.Subject(subject),
		HTML:    html,
	})
}

// SendUnsubscribedNotice mails the goodbye notice.
func (s *Sender) SendUnsubscribedNotice(to, subject string, data UnsubscribedData) error {
	html, err := renderTemplate(unsubscribedTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: s.Subject(subject),
		HTML:    html,
	})
}

// SendOperatorNotify mails the admin a summary of a subscriber event.
func (s *Sender) SendOperatorNotify(to, subject string, data OperatorNotifyData) error {
	html, err := renderTemplate(operatorNotifyTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: s.Subject(subject),
		HTML:    html,
	})
}
