// Package notify sends transactional email to candidates and recruiters.
package notify

import "context"

// EmailSender delivers a single HTML email.
type EmailSender interface {
	// Send delivers the email. A sender that is not configured (no API
	// key) logs and reports success, so pipelines run unchanged in
	// development environments.
	Send(ctx context.Context, to, subject, htmlBody string) error
}
