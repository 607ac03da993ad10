package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

const placeholder = "-"

// LeadSummary is the lead as shown to the site owner.
type LeadSummary struct {
	Name      string
	Email     string
	Phone     string
	City      string
	Service   string
	Message   string
	Page      string
	UTMSource string
	Session   string
	IP        string
	UserAgent string
}

// withPlaceholders fills every empty field with "-".
func (l LeadSummary) withPlaceholders() LeadSummary {
	fields := []*string{&l.Name, &l.Email, &l.Phone, &l.City, &l.Service, &l.Message,
		&l.Page, &l.UTMSource, &l.Session, &l.IP, &l.UserAgent}
	for _, f := range fields {
		if *f == "" {
			*f = placeholder
		}
	}
	return l
}

// AutoReply is the data for the customer confirmation email.
type AutoReply struct {
	Name     string
	SiteName string
	Phone    string
}

type autoReplyEmailData struct {
	Title string
	AutoReply
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderTextTemplate(name string, data any) (string, error) {
	tmpl, err := texttemplate.ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse text template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute text template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderAdminLead renders the plain-text owner notification.
func RenderAdminLead(lead LeadSummary) (string, error) {
	return renderTextTemplate("lead_admin.txt", lead.withPlaceholders())
}

// RenderAutoReply renders the HTML customer confirmation.
func RenderAutoReply(data AutoReply) (string, error) {
	if data.Name == "" {
		data.Name = "there"
	}
	return renderEmailTemplate("lead_autoreply.html", autoReplyEmailData{
		Title:     fmt.Sprintf(subjectAutoReplyFmt, data.SiteName),
		AutoReply: data,
	})
}

// AdminLeadSubject builds the owner notification subject line.
func AdminLeadSubject(service, name string) string {
	if service == "" {
		service = "General"
	}
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf(subjectAdminLeadFmt, service, name)
}

// AutoReplySubject builds the customer confirmation subject line.
func AutoReplySubject(siteName string) string {
	return fmt.Sprintf(subjectAutoReplyFmt, siteName)
}
