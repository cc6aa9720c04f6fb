package dispatch

import (
	"fmt"
	"html/template"
	"strings"

	"reliefwatch/internal/domain"
)

var alertTemplate = template.Must(template.New("alert").Parse(`<html>
<body>
<h2>{{.Crisis.Title}}</h2>
<p><strong>Severity:</strong> {{.Crisis.Severity}} | <strong>Type:</strong> {{.Crisis.Type}}{{if .Place}} | <strong>Location:</strong> {{.Place}}{{end}}</p>
{{if .Crisis.Description}}<p>{{.Crisis.Description}}</p>{{end}}
<p>Detected at {{.Crisis.DetectedAt.Format "2006-01-02 15:04 UTC"}}.</p>
<hr>
<p style="font-size:12px;color:#888">You receive immediate alerts for matching crises.
<a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</body>
</html>`))

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
<h2>{{.Heading}}</h2>
<p>{{len .Crises}} crisis situation(s) matched your subscription.</p>
{{range .Crises}}<div style="margin-bottom:16px">
<h3>{{.Title}}</h3>
<p><strong>{{.Severity}}</strong> {{.Type}}{{if .Location}} — {{.Location}}{{end}}</p>
{{if .Description}}<p>{{.Description}}</p>{{end}}
</div>
{{end}}<hr>
<p style="font-size:12px;color:#888"><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</body>
</html>`))

func renderAlert(sub *domain.AlertSubscription, crisis *domain.Crisis) (subject, body string, err error) {
	subject = fmt.Sprintf("[%s] %s alert: %s", crisis.Severity, crisisTypeLabel(crisis.Type), crisis.Title)

	var b strings.Builder
	err = alertTemplate.Execute(&b, struct {
		Crisis         *domain.Crisis
		Place          string
		UnsubscribeURL string
	}{
		Crisis:         crisis,
		Place:          crisisPlace(crisis),
		UnsubscribeURL: unsubscribeURL(sub),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render alert: %w", err)
	}
	return subject, b.String(), nil
}

func renderDigest(sub *domain.AlertSubscription, crises []*domain.Crisis, cadence domain.Cadence) (subject, body string, err error) {
	heading := "Daily crisis digest"
	if cadence == domain.CadenceWeekly {
		heading = "Weekly crisis digest"
	}
	subject = fmt.Sprintf("%s: %d situation(s)", heading, len(crises))

	var b strings.Builder
	err = digestTemplate.Execute(&b, struct {
		Heading        string
		Crises         []*domain.Crisis
		UnsubscribeURL string
	}{
		Heading:        heading,
		Crises:         crises,
		UnsubscribeURL: unsubscribeURL(sub),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render digest: %w", err)
	}
	return subject, b.String(), nil
}

func crisisPlace(c *domain.Crisis) string {
	for _, s := range []string{c.Location, c.Region, c.Country} {
		if s != "" {
			return s
		}
	}
	return ""
}

func crisisTypeLabel(t domain.CrisisType) string {
	label := strings.ReplaceAll(string(t), "_", " ")
	return strings.ToLower(label)
}

func unsubscribeURL(sub *domain.AlertSubscription) string {
	return "/v1/subscriptions/unsubscribe/" + sub.UnsubscribeToken
}
