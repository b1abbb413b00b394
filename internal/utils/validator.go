package utils

import (
    "errors"
    "net/mail"
    "reflect"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface and registers the portal's custom tags:
//   isemail – parseable RFC 5322 address
//   isdate  – YYYY-MM-DD
//   istime  – HH:MM or HH:MM:SS
//   otp     – exactly six ASCII digits
type RequestValidator struct {
    Validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := &RequestValidator{Validator: validator.New()}
    v.register()
    return v
}

func (v *RequestValidator) register() {
    v.Validator.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    _ = v.Validator.RegisterValidation("isemail", isEmail)
    _ = v.Validator.RegisterValidation("isdate", isDate)
    _ = v.Validator.RegisterValidation("istime", isTime)
    _ = v.Validator.RegisterValidation("otp", isOTP)
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
    return v.Validator.Struct(i)
}

func isEmail(fl validator.FieldLevel) bool {
    email := strings.TrimSpace(fl.Field().String())
    addr, err := mail.ParseAddress(email)
    return err == nil && addr.Address == email
}

func isDate(fl validator.FieldLevel) bool {
    _, err := time.Parse("2006-01-02", fl.Field().String())
    return err == nil
}

func isTime(fl validator.FieldLevel) bool {
    _, ok := NormalizeTime(fl.Field().String())
    return ok
}

func isOTP(fl validator.FieldLevel) bool {
    s := fl.Field().String()
    if len(s) != 6 {
        return false
    }
    for i := 0; i < len(s); i++ {
        if s[i] < '0' || s[i] > '9' {
            return false
        }
    }
    return true
}

// NormalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM.
func NormalizeTime(s string) (string, bool) {
    s = strings.TrimSpace(s)
    for _, layout := range []string{"15:04", "15:04:05"} {
        if t, err := time.Parse(layout, s); err == nil {
            return t.Format("15:04"), true
        }
    }
    return "", false
}

// FieldErrors flattens validator errors into field -> failing tag.
func FieldErrors(err error) map[string]string {
    out := map[string]string{}
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) {
        for _, fe := range verrs {
            out[fe.Field()] = fe.Tag()
        }
    }
    return out
}
