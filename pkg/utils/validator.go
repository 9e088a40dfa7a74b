package utils

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Custom validations
	v.RegisterValidation("document_type", validateDocumentType)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// Desteklenen doküman türlerini kontrol et
func validateDocumentType(fl validator.FieldLevel) bool {
	docType := fl.Field().String()
	supportedTypes := map[string]bool{
		"rent_roll":           true,
		"offering_memo":       true,
		"lease_agreement":     true,
		"comparable_sales":    true,
		"financial_statement": true,
	}
	return supportedTypes[docType]
}
