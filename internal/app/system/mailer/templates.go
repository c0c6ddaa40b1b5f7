// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Links builds frontend URLs placed in emails.
type Links struct {
	FrontendURL string
}

func (l Links) company(name, tail string) string {
	return strings.TrimRight(l.FrontendURL, "/") + "/company/" + url.PathEscape(name) + "/" + tail
}

// Register is the student-facing registration page for a company.
func (l Links) Register(company string) string { return l.company(company, "register") }

// Experience is the page where a placed student shares their interview.
func (l Links) Experience(company string) string { return l.company(company, "interview-experience") }

// Drive is the drive page for a company.
func (l Links) Drive(company string) string {
	return strings.TrimRight(l.FrontendURL, "/") + "/drive/" + url.PathEscape(company)
}

// RegistrationOpenData fills the "registration opened" email.
type RegistrationOpenData struct {
	Company   string
	Batch     int
	DriveDate string
	Link      string
}

// BuildRegistrationOpenEmail announces a new registration window.
func BuildRegistrationOpenEmail(d RegistrationOpenData) Email {
	return Email{
		Subject: fmt.Sprintf("New placement registration: %s", d.Company),
		TextBody: fmt.Sprintf("Hello,\n\nRegistration has opened for %s (Batch %d).\nDrive date: %s\n\nRegister: %s\n",
			d.Company, d.Batch, d.DriveDate, d.Link),
		HTMLBody: render(registrationOpenTmpl, d),
	}
}

// RegistrationChangedData fills update and cancellation notices.
type RegistrationChangedData struct {
	Company   string
	DriveDate string
	Link      string
	Cancelled bool
}

// BuildRegistrationChangedEmail tells applicants a registration was edited
// or withdrawn by staff.
func BuildRegistrationChangedEmail(d RegistrationChangedData) Email {
	subject := fmt.Sprintf("Update: %s registration changed", d.Company)
	text := fmt.Sprintf("The %s registration was updated. Drive date: %s\nDetails: %s\n", d.Company, d.DriveDate, d.Link)
	if d.Cancelled {
		subject = fmt.Sprintf("Cancelled: %s registration", d.Company)
		text = fmt.Sprintf("The %s registration has been cancelled.\n", d.Company)
	}
	return Email{Subject: subject, TextBody: text, HTMLBody: render(registrationChangedTmpl, d)}
}

// DriveReminderData fills the day-before reminder.
type DriveReminderData struct {
	Company   string
	DriveDate string
	Link      string
}

// BuildDriveReminderEmail reminds applicants of tomorrow's drive.
func BuildDriveReminderEmail(d DriveReminderData) Email {
	return Email{
		Subject:  fmt.Sprintf("Reminder: %s drive tomorrow", d.Company),
		TextBody: fmt.Sprintf("Reminder: the %s drive is scheduled for tomorrow (%s).\nDetails: %s\n", d.Company, d.DriveDate, d.Link),
		HTMLBody: render(reminderTmpl, d),
	}
}

// AnnouncementData fills a drive announcement broadcast. HTML must already
// be sanitized.
type AnnouncementData struct {
	Company string
	Text    string
	HTML    template.HTML
	Link    string
}

// BuildAnnouncementEmail relays a staff announcement to applicants.
func BuildAnnouncementEmail(d AnnouncementData) Email {
	return Email{
		Subject:  fmt.Sprintf("%s drive: new announcement", d.Company),
		TextBody: d.Text + "\n\n" + d.Link + "\n",
		HTMLBody: render(announcementTmpl, d),
	}
}

// PlacedData fills the congratulations email.
type PlacedData struct {
	Name    string
	Company string
	Link    string
}

// BuildPlacedEmail congratulates a student on placement and asks for an
// interview experience.
func BuildPlacedEmail(d PlacedData) Email {
	return Email{
		Subject: fmt.Sprintf("Congratulations! Placement at %s", d.Company),
		TextBody: fmt.Sprintf("Congratulations on being placed at %s!\n\nPlease share your interview experience: %s\n",
			d.Company, d.Link),
		HTMLBody: render(placedTmpl, d),
	}
}

// ExperienceDecisionData fills the moderation outcome email.
type ExperienceDecisionData struct {
	Name     string
	Company  string
	Title    string
	Approved bool
}

// BuildExperienceDecisionEmail tells a student whether their interview
// experience was published.
func BuildExperienceDecisionEmail(d ExperienceDecisionData) Email {
	verdict := "rejected"
	if d.Approved {
		verdict = "approved"
	}
	return Email{
		Subject:  fmt.Sprintf("Your %s interview experience was %s", d.Company, verdict),
		TextBody: fmt.Sprintf("Your interview experience %q for %s was %s.\n", d.Title, d.Company, verdict),
		HTMLBody: render(experienceDecisionTmpl, d),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return ""
	}
	return buf.String()
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr><td align="center" style="padding: 32px 16px;">
      <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
        <tr><td style="padding: 24px 28px; border-bottom: 1px solid #e5e7eb;">
          <h1 style="margin: 0; font-size: 20px; color: #4f46e5;">PlaceMate</h1>
        </td></tr>
        <tr><td style="padding: 28px; font-size: 15px; color: #374151; line-height: 1.5;">{{template "content" .}}</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>{{end}}`

func page(name, content string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(layout)).Parse(`{{define "content"}}` + content + `{{end}}`))
}

var (
	registrationOpenTmpl = page("registration-open", `
<p>Hello,</p>
<p>Registration has opened for <b>{{.Company}}</b> (Batch {{.Batch}}).</p>
<p>Drive date: {{.DriveDate}}</p>
<p><a href="{{.Link}}">Register now</a></p>`)

	registrationChangedTmpl = page("registration-changed", `
{{if .Cancelled}}<p>The <b>{{.Company}}</b> registration has been cancelled.</p>
{{else}}<p>The <b>{{.Company}}</b> registration was updated.</p>
<p>Drive date: {{.DriveDate}}</p>
<p><a href="{{.Link}}">View details</a></p>{{end}}`)

	reminderTmpl = page("drive-reminder", `
<p>Reminder: the drive for <b>{{.Company}}</b> is scheduled for tomorrow ({{.DriveDate}}).</p>
<p><a href="{{.Link}}">See details</a></p>`)

	announcementTmpl = page("announcement", `
<p>New announcement for the <b>{{.Company}}</b> drive:</p>
<div style="background-color: #f9fafb; border-radius: 6px; padding: 16px;">{{.HTML}}</div>
<p><a href="{{.Link}}">Open the drive</a></p>`)

	placedTmpl = page("placed", `
<p>Congratulations{{if .Name}} {{.Name}}{{end}} on being placed at <b>{{.Company}}</b>!</p>
<p>Please submit your interview experience: <a href="{{.Link}}">Share experience</a></p>`)

	experienceDecisionTmpl = page("experience-decision", `
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>Your interview experience <b>{{.Title}}</b> for {{.Company}} was
{{if .Approved}}approved and is now visible to other students.{{else}}not approved by the placement team.{{end}}</p>`)
)
