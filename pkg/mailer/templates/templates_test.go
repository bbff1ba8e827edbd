package templates_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/pkg/mailer/templates"
)

func TestRender_AllTemplates(t *testing.T) {
	brand := templates.Brand{AppName: "Users", CompanyName: "Acme", SupportURL: "https://acme.test/help"}
	at := time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

	for _, name := range []string{templates.Welcome, templates.PasswordChanged, templates.AccountDeleted} {
		t.Run(name, func(t *testing.T) {
			data := templates.ToMap(templates.NewEmailData(brand, name, "Ada Lovelace", "a@example.com", templates.WithTime(at)))
			subject, text, html, err := templates.Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, subject, "Users")
			assert.Contains(t, text, "a@example.com")
			assert.Contains(t, text, "15 June 2024, 09:30")
			assert.Contains(t, html, "Ada Lovelace")
		})
	}
}

func TestRender_DefaultsAndEscaping(t *testing.T) {
	data := templates.ToMap(templates.NewEmailData(templates.Brand{}, templates.Welcome, "<b>x</b>", "a@example.com"))
	subject, _, html, err := templates.Render(templates.Welcome, data)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to our service", subject)
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := templates.Render("nope", nil)
	assert.Error(t, err)
}
