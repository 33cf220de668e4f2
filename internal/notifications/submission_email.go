package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"portfolio-backend/internal/submissions"
)

const submissionNotificationTemplate = `<!DOCTYPE html>
<html>
<body>
  {{if eq .Type "booking"}}
  <h3>New call booking</h3>
  <p><strong>Date:</strong> {{.Date}} at {{.Time}}</p>
  <p><strong>Plan:</strong> {{.Plan}}</p>
  {{if .Company}}<p><strong>Company:</strong> {{.Company}}</p>{{end}}
  {{if .Notes}}<p><strong>Notes:</strong><br/>{{.Notes}}</p>{{end}}
  {{else}}
  <h3>New message</h3>
  <p><strong>Subject:</strong> {{.Subject}}</p>
  {{if .Plan}}<p><strong>Plan:</strong> {{.Plan}}</p>{{end}}
  <p>{{.Body}}</p>
  {{end}}
  <p><strong>From:</strong> {{.FullName}} &lt;{{.Email}}&gt;</p>
  <p><strong>ID:</strong> {{.ID}}</p>
  <p><strong>Received:</strong> {{.Timestamp.Format "2006-01-02 15:04 MST"}}</p>
</body>
</html>`

var submissionNotificationTmpl = template.Must(template.New("submission_notification").Parse(submissionNotificationTemplate))

func buildSubmissionNotificationHTML(s submissions.Submission) (string, error) {
	var buf bytes.Buffer
	if err := submissionNotificationTmpl.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func submissionSubject(s submissions.Submission) string {
	if s.Type == submissions.TypeBooking {
		return fmt.Sprintf("New booking: %s on %s at %s", s.FullName, s.Date, s.Time)
	}
	return fmt.Sprintf("New message from %s: %s", s.FullName, s.Subject)
}
