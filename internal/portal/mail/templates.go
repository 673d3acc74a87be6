package mail

import (
	"bytes"
	"html/template"
	"time"
)

const (
	invitationSubject  = "Invitation to join the Research Portal"
	credentialsSubject = "Your Research Portal account"
)

var invitationTmpl = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Research Portal Invitation</h1>
<p>You have been invited to join our research portal as a contributor.</p>
<p>Please click the link below to complete your profile:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>This link expires on {{.Expires}}.</p>
</body>
</html>
`))

var credentialsTmpl = template.Must(template.New("credentials").Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Welcome{{if .Name}}, {{.Name}}{{end}}</h1>
<p>An administrator has created a researcher account for you on the research portal.</p>
<p>Email: <strong>{{.Email}}</strong><br>
Temporary password: <strong>{{.Password}}</strong></p>
<p>Sign in at <a href="{{.URL}}">{{.URL}}</a> and change your password.</p>
</body>
</html>
`))

type invitationData struct {
	URL     string
	Expires string
}

type credentialsData struct {
	Name     string
	Email    string
	Password string
	URL      string
}

func newInvitationData(frontendURL, token string, expiresAt time.Time) invitationData {
	return invitationData{
		URL:     InvitationURL(frontendURL, token),
		Expires: expiresAt.UTC().Format("2 January 2006 15:04 MST"),
	}
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
