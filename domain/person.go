package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxPersonNameLength = 200
	AdultAge            = 18
)

// Person owns transactions. Its transactions are queried by foreign key, not held here.
type Person struct {
	id        string
	name      string
	age       int
	createdAt time.Time
}

// NewPerson validates and builds a person with a fresh identifier.
func NewPerson(name string, age int) (*Person, error) {
	name, err := validatePersonName(name)
	if err != nil {
		return nil, err
	}
	if age < 0 {
		return nil, NewInvalidArgument("age", "must not be negative")
	}
	return &Person{
		id:        uuid.NewString(),
		name:      name,
		age:       age,
		createdAt: time.Now().UTC(),
	}, nil
}

// RestorePerson rebuilds a persisted person without validation.
func RestorePerson(id, name string, age int, createdAt time.Time) *Person {
	return &Person{id: id, name: name, age: age, createdAt: createdAt}
}

func (p *Person) ID() string           { return p.id }
func (p *Person) Name() string         { return p.name }
func (p *Person) Age() int             { return p.age }
func (p *Person) CreatedAt() time.Time { return p.createdAt }

// IsMinor reports whether the person is below AdultAge.
func (p *Person) IsMinor() bool {
	return p.age < AdultAge
}

// Update replaces every mutable field.
func (p *Person) Update(name string, age int) error {
	name, err := validatePersonName(name)
	if err != nil {
		return err
	}
	if age < 0 {
		return NewInvalidArgument("age", "must not be negative")
	}
	p.name = name
	p.age = age
	return nil
}

// Patch overwrites name when supplied. Age is applied only when supplied and
// strictly positive, so a patch carrying age 0 leaves the stored age as is.
func (p *Person) Patch(name *string, age *int) error {
	if name != nil {
		validated, err := validatePersonName(*name)
		if err != nil {
			return err
		}
		p.name = validated
	}
	if age != nil && *age > 0 {
		p.age = *age
	}
	return nil
}

func validatePersonName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewInvalidArgument("person name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxPersonNameLength {
		return "", NewInvalidArgument("person name", "must be at most 200 characters")
	}
	return name, nil
}
