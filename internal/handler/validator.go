package handler

import (
    "fmt"
    "strings"

    "github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i interface{}) error {
    return v.v.Struct(i)
}

// validationMessage turns the first field error into a readable sentence.
func validationMessage(err error) string {
    verrs, ok := err.(validator.ValidationErrors)
    if !ok || len(verrs) == 0 {
        return "Invalid request"
    }
    fe := verrs[0]
    field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
    switch fe.Tag() {
    case "required":
        return fmt.Sprintf("%s is required", field)
    case "email":
        return fmt.Sprintf("%s must be a valid email address", field)
    case "min":
        return fmt.Sprintf("%s must be at least %s", field, fe.Param())
    case "max":
        return fmt.Sprintf("%s must be at most %s", field, fe.Param())
    case "url":
        return fmt.Sprintf("%s must be a valid URL", field)
    case "eqfield":
        return fmt.Sprintf("%s must match %s", field, fe.Param())
    }
    return fmt.Sprintf("%s is invalid", field)
}
