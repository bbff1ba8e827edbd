package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer/templates"
)

// ErrBadJob marks a job no redelivery can fix.
var ErrBadJob = errors.New("bad email job")

type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Deliver decodes, renders and sends one job. Decode and render failures wrap ErrBadJob; send failures
// are returned as they are.
func Deliver(ctx context.Context, sender Sender, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
	}
	if subject == "" {
		return fmt.Errorf("%w: missing subject", ErrBadJob)
	}
	return sender.Send(ctx, job.To, subject, text, html)
}

// Retryable reports whether a Deliver error may succeed on redelivery.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrBadJob)
}
