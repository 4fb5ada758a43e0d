// Package validator wraps go-playground/validator with json field names and
// readable failure messages.
package validator

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages completes "<field> ..." for the common tags.
var Messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"max":      "is too long",
	"gte":      "is too small",
	"oneof":    "is not an allowed value",
	"datetime": "must be a date formatted YYYY-MM-DD",
}

// Validator checks structs against their tags.
type Validator struct {
	v        *validator.Validate
	messages map[string]string
}

// New builds a validator reading tagName (gin uses "binding") with the
// extra tag functions installed. messages extend or override Messages.
func New(tagName string, funcs map[string]validator.Func, messages map[string]string) (*Validator, error) {
	v := validator.New()
	v.SetTagName(tagName)
	if err := Configure(v, funcs); err != nil {
		return nil, err
	}
	return &Validator{v: v, messages: merge(messages)}, nil
}

// Configure installs funcs and json field naming on an existing engine.
func Configure(v *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	v.RegisterTagNameFunc(JSONName)
	return nil
}

// Struct validates obj and returns a single error listing every failing
// field.
func (v *Validator) Struct(obj interface{}) error {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}
	if msg, ok := Describe(err, v.messages); ok {
		return &Error{Message: msg, Err: err}
	}
	return err
}

// Error is a failed validation.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// JSONName names a field by its json tag, falling back to the Go name.
func JSONName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Describe renders validation errors as "field message; field message".
// It reports false when err holds no validation errors.
func Describe(err error, messages map[string]string) (string, bool) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return "", false
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := messages[e.Tag()]
		if msg == "" {
			msg = Messages[e.Tag()]
		}
		if msg == "" {
			msg = "failed on " + e.Tag()
		}
		msgs = append(msgs, e.Field()+" "+msg)
	}
	return strings.Join(msgs, "; "), true
}

func merge(extra map[string]string) map[string]string {
	out := make(map[string]string, len(Messages)+len(extra))
	for k, v := range Messages {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
