package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// Candidate-facing email bodies are written in French, the working language
// of the recruiting tenants.

var consentEmailTmpl = template.Must(template.New("consent").Parse(`
<h2>Invitation à un entretien téléphonique IA</h2>
<p>Bonjour {{.CandidateName}},</p>
<p>{{.TenantName}} souhaite vous proposer un entretien téléphonique assisté par IA
pour le poste de <strong>{{.PositionTitle}}</strong>.</p>
<p>L'entretien dure environ 5 minutes. Un assistant IA vous posera quelques questions
sur votre parcours et vos compétences. L'appel sera enregistré pour analyse.</p>
<p>Pour accepter et planifier votre entretien, cliquez sur le lien ci-dessous :</p>
<p><a href="{{.ConsentURL}}" style="background:#2563eb;color:white;padding:12px 24px;
text-decoration:none;border-radius:6px;">Accepter et planifier</a></p>
<p>Vous pouvez refuser à tout moment. Vos données sont traitées conformément
à la loi 09-08 relative à la protection des données personnelles.</p>
<p>Cordialement,<br>{{.TenantName}}</p>
`))

var reportReadyEmailTmpl = template.Must(template.New("report_ready").Parse(`
<h2>Rapport d'entretien disponible</h2>
<p>Le rapport d'évaluation de <strong>{{.CandidateName}}</strong> pour le poste
de <strong>{{.PositionTitle}}</strong> est prêt.</p>
<p>Connectez-vous à votre espace recruteur pour le consulter.</p>
`))

// ConsentEmailInput carries the fields of the consent invitation email.
type ConsentEmailInput struct {
	CandidateName string
	TenantName    string
	PositionTitle string
	ConsentURL    string
}

// BuildConsentEmail renders the interview invitation sent to a candidate
// along with their consent link.
func BuildConsentEmail(in ConsentEmailInput) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := consentEmailTmpl.Execute(&buf, in); err != nil {
		return "", "", fmt.Errorf("rendering consent email: %w", err)
	}
	subject = fmt.Sprintf("Entretien téléphonique IA - %s - %s", in.PositionTitle, in.TenantName)
	return subject, buf.String(), nil
}

// ReportReadyEmailInput carries the fields of the recruiter notification
// email.
type ReportReadyEmailInput struct {
	CandidateName string
	PositionTitle string
}

// BuildReportReadyEmail renders the email telling recruiters a candidate's
// evaluation report is available.
func BuildReportReadyEmail(in ReportReadyEmailInput) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := reportReadyEmailTmpl.Execute(&buf, in); err != nil {
		return "", "", fmt.Errorf("rendering report ready email: %w", err)
	}
	subject = fmt.Sprintf("Rapport d'entretien prêt - %s", in.CandidateName)
	return subject, buf.String(), nil
}
