package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	playground "github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DateLayout is the calendar-date layout accepted for date fields besides RFC 3339.
const DateLayout = "2006-01-02"

// DefaultRegion is used for phone numbers written without a country code.
const DefaultRegion = "KE"

// FieldErrors maps a field's JSON name to a human-readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}

// Merge copies other into fe, keeping the first message per field.
func (fe FieldErrors) Merge(other FieldErrors) FieldErrors {
	if len(other) == 0 {
		return fe
	}
	if fe == nil {
		fe = make(FieldErrors, len(other))
	}
	for k, v := range other {
		if _, exists := fe[k]; !exists {
			fe[k] = v
		}
	}
	return fe
}

// Validator provides validation functionality
type Validator interface {
	// Struct validates obj's `validate` tags. The result is empty when obj is valid.
	Struct(obj interface{}) FieldErrors
	// Field validates a single value against rules, keying failures by field.
	Field(field string, value interface{}, rules string) FieldErrors
}

// Option configures a Validator
type Option func(*validator)

// WithPhysicians sets the names accepted by the `physician` rule.
func WithPhysicians(names []string) Option {
	return func(v *validator) {
		v.physicians = make(map[string]struct{}, len(names))
		for _, n := range names {
			v.physicians[n] = struct{}{}
		}
	}
}

// WithDefaultRegion sets the region used to parse phone numbers without a
// leading country code.
func WithDefaultRegion(region string) Option {
	return func(v *validator) {
		v.region = region
	}
}

// WithClock overrides the clock used by the `pastdate` rule.
func WithClock(now func() time.Time) Option {
	return func(v *validator) {
		v.now = now
	}
}

type validator struct {
	engine     *playground.Validate
	physicians map[string]struct{}
	region     string
	now        func() time.Time
}

func New(opts ...Option) Validator {
	v := &validator{
		engine: playground.New(playground.WithRequiredStructEnabled()),
		region: DefaultRegion,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v.engine, "phone", v.isPhone, false)
	mustRegister(v.engine, "pastdate", v.isPastDate, false)
	mustRegister(v.engine, "consent", isConsent, true)
	mustRegister(v.engine, "physician", v.isPhysician, false)

	return v
}

func mustRegister(engine *playground.Validate, tag string, fn func(playground.FieldLevel) bool, whenNil bool) {
	if err := engine.RegisterValidation(tag, fn, whenNil); err != nil {
		panic(err)
	}
}

func (v *validator) Struct(obj interface{}) FieldErrors {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}

	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		// InvalidValidationError: obj was not a struct
		panic(err)
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := out[field]; !exists {
			out[field] = message(field, fe.Tag(), fe.Param())
		}
	}
	return out
}

func (v *validator) Field(field string, value interface{}, rules string) FieldErrors {
	err := v.engine.Var(value, rules)
	if err == nil {
		return nil
	}

	verrs, ok := err.(playground.ValidationErrors)
	if !ok || len(verrs) == 0 {
		panic(err)
	}
	return FieldErrors{field: message(field, verrs[0].Tag(), verrs[0].Param())}
}

func (v *validator) isPhone(fl playground.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, ok = NormalizePhone(raw, v.region)
	return ok
}

func (v *validator) isPastDate(fl playground.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	t, ok := ParseDate(raw)
	if !ok {
		return false
	}
	return !t.After(v.now())
}

func (v *validator) isPhysician(fl playground.FieldLevel) bool {
	name, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	// No directory configured: any non-empty name passes.
	if v.physicians == nil {
		return name != ""
	}
	_, known := v.physicians[name]
	return known
}

func isConsent(fl playground.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return false
		}
		field = field.Elem()
	}
	return field.Kind() == reflect.Bool && field.Bool()
}

// NormalizePhone parses raw and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func message(field, tag, param string) string {
	label := Humanize(field)
	switch tag {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		if strings.HasSuffix(field, "Document") {
			return fmt.Sprintf("Only %s %s may be uploaded", param, strings.ToLower(label))
		}
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "email":
		return "Invalid email address"
	case "phone":
		return "Invalid phone number"
	case "pastdate":
		return fmt.Sprintf("%s must be a valid date that is not in the future", label)
	case "datetime":
		return fmt.Sprintf("%s must be a valid date and time", label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(param, " ", ", "))
	case "consent":
		subject := strings.ToLower(strings.TrimSuffix(label, " consent"))
		return fmt.Sprintf("You must consent to %s in order to proceed", subject)
	case "physician":
		return "Select a physician from the list"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// Humanize turns a camelCase field name into a sentence-case label:
// "emergencyContactNumber" becomes "Emergency contact number".
func Humanize(field string) string {
	if field == "" {
		return field
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
