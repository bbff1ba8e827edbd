package templates

import (
	"strings"
	"time"
)

// Brand carries the sender identity shown in every email.
type Brand struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	SupportURL     string
}

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

// NewEmailData fills the common fields from brand, then applies opts.
func NewEmailData(brand Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:  strings.TrimSpace(name),
		Email: email,
		Type:  typ,

		AppName:        brand.AppName,
		CompanyName:    brand.CompanyName,
		CompanyAddress: brand.CompanyAddress,
		SupportURL:     brand.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
