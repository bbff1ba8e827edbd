package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer"
	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer/templates"
)

// UserLookup loads a user from the write side.
type UserLookup interface {
	GetByID(ctx context.Context, id string, includeDeleted bool) (*entity.User, error)
}

// JobPublisher enqueues email jobs.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Notifier turns account lifecycle events into queued email jobs. It is an in-process event handler;
// the email worker renders and sends.
type Notifier struct {
	Users UserLookup
	Jobs  JobPublisher
	Brand templates.Brand
}

func NewNotifier(users UserLookup, jobs JobPublisher, brand templates.Brand) *Notifier {
	return &Notifier{Users: users, Jobs: jobs, Brand: brand}
}

var notifyTemplates = map[event.Type]string{
	event.UserCreated:         templates.Welcome,
	event.UserPasswordChanged: templates.PasswordChanged,
	event.UserDeleted:         templates.AccountDeleted,
}

// Types lists the event types the notifier reacts to.
func (n *Notifier) Types() []event.Type {
	return []event.Type{event.UserCreated, event.UserPasswordChanged, event.UserDeleted}
}

func (n *Notifier) Name() string { return "email-notifier" }

func (n *Notifier) Handle(ctx context.Context, evt event.Event) error {
	tpl, ok := notifyTemplates[evt.EventType()]
	if !ok {
		return nil
	}
	u, err := n.Users.GetByID(ctx, evt.AggregateID(), true)
	if err != nil {
		return err
	}
	return n.Jobs.PublishJSON(ctx, Job(n.Brand, tpl, u, evt.OccurredAt()))
}

// Job builds the email job for one user and template.
func Job(brand templates.Brand, tpl string, u *entity.User, at time.Time) mailer.EmailJob {
	data := templates.NewEmailData(brand, tpl, u.Name().String(), u.Email().String(), templates.WithTime(at))
	return mailer.EmailJob{
		To:       u.Email().String(),
		Template: tpl,
		Data:     templates.ToMap(data),
	}
}
