package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/smart715/jobsify/pkg/text"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

// Form converts between records and the text drafts the edit form works on.
type Form[R any] interface {
	// Fields lists the inputs in display order.
	Fields() []Field
	Defaults() map[string]string
	Prefill(r R) map[string]string
	// Validate returns a message per invalid field, nil when the draft is
	// valid.
	Validate(draft map[string]string) map[string]string
	Payload(draft map[string]string) (R, error)
}

type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
)

const dateLayout = "2006-01-02"

type Field struct {
	Name  string
	Label string
	Kind  Kind
	// Rules are validator tags, e.g. "required,email".
	Rules   string
	Default string
}

func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// RecordForm is the Form of a v1.Record described by its fields.
type RecordForm struct {
	fields   []Field
	validate *validator.Validate
}

var _ Form[v1.Record] = (*RecordForm)(nil)

var ErrUnknownKind = errors.New("unknown field kind")

func NewRecordForm(fields ...Field) (*RecordForm, error) {
	fields = append([]Field(nil), fields...)
	for i, f := range fields {
		switch f.Kind {
		case "":
			fields[i].Kind = KindString
		case KindString, KindNumber, KindBool, KindDate:
		default:
			return nil, errors.Wrapf(ErrUnknownKind, "field %s: %q", f.Name, f.Kind)
		}
	}
	return &RecordForm{fields: fields, validate: validator.New()}, nil
}

func (f *RecordForm) Fields() []Field {
	out := make([]Field, len(f.fields))
	copy(out, f.fields)
	return out
}

func (f *RecordForm) Defaults() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fd := range f.fields {
		out[fd.Name] = fd.Default
	}
	return out
}

func (f *RecordForm) Prefill(r v1.Record) map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fd := range f.fields {
		v := r.Get(fd.Name)
		if fd.Kind == KindDate {
			if t, ok := text.ParseTime(v); ok {
				out[fd.Name] = t.Format(dateLayout)
				continue
			}
		}
		out[fd.Name] = text.String(v)
	}
	return out
}

func (f *RecordForm) Validate(draft map[string]string) map[string]string {
	var errs map[string]string
	for _, fd := range f.fields {
		if msg := f.check(fd, strings.TrimSpace(draft[fd.Name])); msg != "" {
			if errs == nil {
				errs = map[string]string{}
			}
			errs[fd.Name] = msg
		}
	}
	return errs
}

func (f *RecordForm) check(fd Field, raw string) string {
	if raw == "" {
		if hasRule(fd.Rules, "required") {
			return fmt.Sprintf("%s is required", fd.DisplayLabel())
		}
		return ""
	}

	var value any = raw
	switch fd.Kind {
	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Sprintf("%s must be a number", fd.DisplayLabel())
		}
		value = n
	case KindBool:
		if _, ok := parseBool(raw); !ok {
			return fmt.Sprintf("%s must be yes or no", fd.DisplayLabel())
		}
		return ""
	case KindDate:
		if _, ok := text.ParseTime(raw); !ok {
			return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", fd.DisplayLabel())
		}
	}
	if err := f.validate.Var(value, fd.Rules); err != nil {
		return message(fd, err)
	}
	return ""
}

func message(fd Field, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", fd.DisplayLabel())
	}
	v := verrs[0]
	switch v.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fd.DisplayLabel())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fd.DisplayLabel())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", fd.DisplayLabel())
	case "min", "gte":
		if fd.Kind == KindString {
			return fmt.Sprintf("%s must be at least %s characters", fd.DisplayLabel(), v.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fd.DisplayLabel(), v.Param())
	case "max", "lte":
		if fd.Kind == KindString {
			return fmt.Sprintf("%s must be at most %s characters", fd.DisplayLabel(), v.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fd.DisplayLabel(), v.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fd.DisplayLabel(), v.Param())
	}
	return fmt.Sprintf("%s is invalid", fd.DisplayLabel())
}

// Payload builds the request body. Empty non-text fields are sent as null.
func (f *RecordForm) Payload(draft map[string]string) (v1.Record, error) {
	out := make(v1.Record, len(f.fields))
	for _, fd := range f.fields {
		raw := strings.TrimSpace(draft[fd.Name])
		if raw == "" && fd.Kind != KindString {
			out[fd.Name] = nil
			continue
		}
		switch fd.Kind {
		case KindNumber:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return nil, errors.Wrapf(err, "field %s", fd.Name)
			}
			out[fd.Name] = json.Number(raw)
		case KindBool:
			b, ok := parseBool(raw)
			if !ok {
				return nil, errors.Errorf("field %s: %q is not a bool", fd.Name, raw)
			}
			out[fd.Name] = b
		case KindDate:
			t, ok := text.ParseTime(raw)
			if !ok {
				return nil, errors.Errorf("field %s: %q is not a date", fd.Name, raw)
			}
			out[fd.Name] = t.Format(dateLayout)
		default:
			out[fd.Name] = draft[fd.Name]
		}
	}
	return out, nil
}

func hasRule(rules, tag string) bool {
	for _, r := range strings.Split(rules, ",") {
		if strings.TrimSpace(r) == tag {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "y", "yes", "on":
		return true, true
	case "n", "no", "off":
		return false, true
	}
	b, err := strconv.ParseBool(s)
	return b, err == nil
}
