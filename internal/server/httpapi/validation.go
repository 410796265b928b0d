package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/meanstack/internal/common"
	"github.com/dmitrijs2005/meanstack/internal/server/config"
	"github.com/dmitrijs2005/meanstack/internal/server/i18n"
	"github.com/dmitrijs2005/meanstack/internal/server/models"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var errMalformedJSON = common.Unprocessable(common.CodeMissingParams, "Malformed JSON input")

// Validator checks request bodies and renders failures as client facing
// errors in the caller's language.
type Validator struct {
	v        *validator.Validate
	messages *i18n.Catalog
	owasp    config.Owasp
}

func NewValidator(owasp config.Owasp, messages *i18n.Catalog) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val := &Validator{v: v, messages: messages, owasp: owasp}

	_ = v.RegisterValidation("password", val.strongPassword)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return (len(s) == 10 || len(s) == 11) && isDigits(s)
	})
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsDigit)
	})
	_ = v.RegisterValidation("document", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) == 11 && isDigits(s)
	})
	_ = v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
		return models.IsValidState(strings.ToUpper(fl.Field().String()))
	})

	return val
}

func (val *Validator) strongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	n := len([]rune(s))
	if val.owasp.MaxLength > 0 && n > val.owasp.MaxLength {
		return false
	}
	if val.owasp.AllowPassphrases && val.owasp.MinPhraseLength > 0 && n >= val.owasp.MinPhraseLength {
		return true
	}
	return n >= val.owasp.MinLength
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks s and returns nil or a 422 *common.AppError. When several
// rules fail, undesired fields win over missing ones, which win over format
// problems.
func (val *Validator) Validate(lang string, s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var undesired, required []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "isdefault":
			undesired = append(undesired, fe.Field())
		case "required":
			required = append(required, val.messages.T(lang, fe.Field()))
		}
	}

	if len(undesired) > 0 {
		return common.Unprocessable(common.CodeUndesiredFields,
			val.joinFields(lang, undesired)+" "+val.messages.T(lang, "UNDESIRED_FIELDS"))
	}
	if len(required) > 0 {
		key := "REQUIRED_FIELD_one"
		if len(required) > 1 {
			key = "REQUIRED_FIELD_other"
		}
		return common.Unprocessable(common.CodeMissingParams,
			val.joinFields(lang, required)+" "+val.messages.T(lang, key))
	}

	return val.formatError(lang, verrs[0])
}

func (val *Validator) formatError(lang string, fe validator.FieldError) *common.AppError {
	label := val.messages.T(lang, fe.Field())
	value, _ := fe.Value().(string)

	switch fe.Tag() {
	case "email":
		return common.Unprocessable(common.CodeInvalidEmail, val.messages.T(lang, "INVALID_FORMAT_EMAIL"))
	case "password", "min", "max":
		if fe.Field() == "password" || strings.HasSuffix(fe.Field(), "Password") {
			msg := strings.ReplaceAll(val.messages.T(lang, "WEAK_PASSWORD"), "{min}", strconv.Itoa(val.owasp.MinLength))
			return common.Unprocessable(common.CodeWeakPassword, msg)
		}
	case "phone":
		return common.Unprocessable(common.CodeInvalidPhone, val.messages.T(lang, "INVALID_FORMAT_PHONE"))
	case "person_name":
		return common.Unprocessable(common.CodeInvalidName, strings.ReplaceAll(val.messages.T(lang, "INVALID_NAME"), "{field}", label))
	case "document":
		return common.Unprocessable(common.CodeMissingParams, val.messages.T(lang, "INVALID_DOCUMENT"))
	case "uf":
		return common.Unprocessable(common.CodeMissingParams, strings.ReplaceAll(val.messages.T(lang, "INVALID_STATE"), "{value}", value))
	}

	return common.Unprocessable(common.CodeMissingParams, strings.ReplaceAll(val.messages.T(lang, "INVALID_FIELD"), "{field}", label))
}

// joinFields renders "a", "a and b" or "a, b and c".
func (val *Validator) joinFields(lang string, fields []string) string {
	if len(fields) == 1 {
		return fields[0]
	}
	last := len(fields) - 1
	return strings.Join(fields[:last], ", ") + " " + val.messages.T(lang, "pluralFieldsRequired") + " " + fields[last]
}

// decodeJSON reads the body into dst. An empty body leaves dst untouched so
// the required rules report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errMalformedJSON
	}
	return nil
}

// bind decodes and validates a request body.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return h.validator.Validate(h.lang(r), dst)
}

func (h *Handler) lang(r *http.Request) string {
	return h.messages.Match(r.Header.Get("Accept-Language"))
}
