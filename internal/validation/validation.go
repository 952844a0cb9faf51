// Package validation decodes request payloads against closed schemas.
//
// A schema is a struct of pointer fields with `json` and `validate` tags.
// Decoding rejects fields the schema does not declare, reports type
// mismatches per field and then runs the declared rules. Errors are keyed
// by JSON field name.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/taskflow/taskflow/internal/model"
)

// SchemaField is the key used for errors that concern the whole payload.
const SchemaField = "_schema"

// Messages reported for rule violations.
const (
	MsgRequired     = "Missing data for required field."
	MsgNull         = "Field may not be null."
	MsgUnknownField = "Unknown field."
	MsgInvalidInput = "Invalid input type."
	MsgEmail        = "Not a valid email address."
	MsgDate         = "Not a valid date."
	MsgInvalid      = "Invalid value."
)

// Error maps field names to the violations found on them.
type Error struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no violations were recorded.
func (e *Error) Empty() bool {
	return len(e.Fields) == 0
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldError is a shortcut for a single-field Error.
func NewFieldError(field, msg string) *Error {
	e := &Error{}
	e.Add(field, msg)
	return e
}

// Validator decodes and validates schema structs.
type Validator struct {
	validate *validator.Validate
	fields   sync.Map // reflect.Type -> *schemaInfo
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("length", validateLength)
	_ = v.RegisterValidation("enum", validateEnum)

	return &Validator{validate: v}
}

// Decode populates dst, a pointer to a schema struct, from body.
// In partial mode only the supplied fields are validated, so absent
// required fields are not reported. The returned set lists the JSON
// names that were present with a non-null value.
func (v *Validator) Decode(body []byte, dst any, partial bool) (map[string]bool, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("validation: dst must be a pointer to struct, got %T", dst)
	}
	info := v.schema(rv.Elem().Type())

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, NewFieldError(SchemaField, MsgInvalidInput)
	}

	verr := &Error{}
	present := make(map[string]bool, len(raw))
	structFields := make([]string, 0, len(raw))

	for name, value := range raw {
		f, ok := info.byJSON[name]
		if !ok {
			verr.Add(name, MsgUnknownField)
			continue
		}

		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			if f.required {
				verr.Add(name, MsgNull)
			}
			continue
		}

		target := rv.Elem().FieldByIndex(f.index)
		if err := json.Unmarshal(value, target.Addr().Interface()); err != nil {
			verr.Add(name, typeMessage(target.Type()))
			continue
		}
		present[name] = true
		structFields = append(structFields, f.goName)
	}

	var err error
	if partial {
		if len(structFields) > 0 {
			err = v.validate.StructPartial(dst, structFields...)
		}
	} else {
		err = v.validate.Struct(dst)
	}
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validation: %w", err)
		}
		for _, fe := range fieldErrs {
			name := fe.Field()
			// Type errors already explain the field.
			if _, done := verr.Fields[name]; done {
				continue
			}
			verr.Add(name, message(fe))
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return present, nil
}

// Var validates a single value against tag, reporting under field.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}
	verr := &Error{}
	for _, fe := range fieldErrs {
		verr.Add(field, message(fe))
	}
	return verr
}

type schemaField struct {
	goName   string
	index    []int
	required bool
}

type schemaInfo struct {
	byJSON map[string]schemaField
}

func (v *Validator) schema(t reflect.Type) *schemaInfo {
	if cached, ok := v.fields.Load(t); ok {
		return cached.(*schemaInfo)
	}

	info := &schemaInfo{byJSON: make(map[string]schemaField)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		info.byJSON[name] = schemaField{
			goName:   sf.Name,
			index:    sf.Index,
			required: hasRule(sf.Tag.Get("validate"), "required"),
		}
	}

	v.fields.Store(t, info)
	return info
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func hasRule(tag, rule string) bool {
	for _, part := range strings.Split(tag, ",") {
		if part == rule {
			return true
		}
	}
	return false
}

// validateLength implements `length=min-max` on strings, counted in runes.
func validateLength(fl validator.FieldLevel) bool {
	lo, hi, ok := lengthBounds(fl.Param())
	if !ok || fl.Field().Kind() != reflect.String {
		return false
	}
	n := utf8.RuneCountInString(fl.Field().String())
	return n >= lo && n <= hi
}

func lengthBounds(param string) (int, int, bool) {
	loStr, hiStr, ok := strings.Cut(param, "-")
	if !ok {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(loStr)
	hi, err2 := strconv.Atoi(hiStr)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// validateEnum accepts any value whose type reports it as a member.
func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(model.Enum)
	return ok && e.IsValid()
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	numeric := isNumeric(fe.Kind())

	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "length":
		lo, hi, _ := lengthBounds(param)
		return fmt.Sprintf("Length must be between %d and %d.", lo, hi)
	case "min", "gte":
		if numeric {
			return fmt.Sprintf("Must be greater than or equal to %s.", numericParam(fe, param))
		}
		return fmt.Sprintf("Shorter than minimum length %s.", param)
	case "max", "lte":
		if numeric {
			return fmt.Sprintf("Must be less than or equal to %s.", numericParam(fe, param))
		}
		return fmt.Sprintf("Longer than maximum length %s.", param)
	case "enum":
		if e, ok := fe.Value().(model.Enum); ok {
			return "Must be one of: " + strings.Join(e.Options(), ", ") + "."
		}
		return MsgInvalid
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ") + "."
	case "email":
		return MsgEmail
	default:
		return MsgInvalid
	}
}

// numericParam renders a bound in the unit the client sent.
func numericParam(fe validator.FieldError, param string) string {
	if _, ok := fe.Value().(model.Money); ok {
		if n, err := strconv.ParseInt(param, 10, 64); err == nil {
			return model.Money(n).String()
		}
	}
	return param
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var (
	dateType  = reflect.TypeOf(model.Date{})
	moneyType = reflect.TypeOf(model.Money(0))
)

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == dateType:
		return MsgDate
	case t == moneyType:
		return "Not a valid number."
	}
	switch t.Kind() {
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Not a valid boolean."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Not a valid integer."
	case reflect.Float32, reflect.Float64:
		return "Not a valid number."
	}
	return MsgInvalidInput
}
