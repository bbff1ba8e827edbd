package specification

import "errors"

// Builder assembles specifications fluently and folds them with AND. Construction errors are collected
// and reported together by Build.
type Builder struct {
	specs []Spec
	errs  []error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) add(s Spec, err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.specs = append(b.specs, s)
	return b
}

func (b *Builder) ActiveOnly() *Builder      { return b.add(Active(), nil) }
func (b *Builder) Adults() *Builder          { return b.add(Adult(), nil) }
func (b *Builder) CompleteProfile() *Builder { return b.add(CompleteProfile(), nil) }

func (b *Builder) AgeBetween(min, max int) *Builder {
	return b.add(AgeRange(min, max))
}

func (b *Builder) WithEmail(email string) *Builder {
	return b.add(EmailEquals(email))
}

func (b *Builder) WithPhone(phone string) *Builder {
	return b.add(PhoneEquals(phone))
}

func (b *Builder) Search(term string) *Builder {
	return b.add(Search(term))
}

func (b *Builder) Near(lat, lon, radiusKm float64) *Builder {
	return b.add(GeoRadius(lat, lon, radiusKm))
}

// Where adds an already built spec.
func (b *Builder) Where(s Spec) *Builder {
	return b.add(s, nil)
}

// Build returns the AND of every added spec, or True when none was added.
func (b *Builder) Build() (Spec, error) {
	if len(b.errs) > 0 {
		return Spec{}, errors.Join(b.errs...)
	}
	return And(b.specs...), nil
}
