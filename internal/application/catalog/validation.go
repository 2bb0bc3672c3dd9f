package catalog

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
)

// Validator valida borradores de ítem y los convierte en campos de entidad.
type Validator struct {
	v *validator.Validate
}

// NewValidator construye el validador (validator/v10 con nombres de campo JSON).
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Fields normaliza y valida el borrador. No modifica in.
// Devuelve *domain.ValidationError con todos los campos rechazados.
func (val *Validator) Fields(in dto.ItemDraft) (entity.ItemFields, error) {
	d := normalize(in)

	var fieldErrs []domain.FieldError
	if err := val.v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return entity.ItemFields{}, domain.NewValidationError("draft", err.Error())
		}
		for _, fe := range verrs {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: fe.Field(), Reason: reason(fe)})
		}
	}
	if d.Amount.IsNegative() {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "amount", Reason: "debe ser mayor o igual a 0"})
	}
	if len(fieldErrs) > 0 {
		return entity.ItemFields{}, &domain.ValidationError{Fields: fieldErrs}
	}

	requested, err := time.ParseInLocation(entity.RequestedDateLayout, d.RequestedDate, time.UTC)
	if err != nil {
		return entity.ItemFields{}, domain.NewValidationError("requested_date", "formato AAAA-MM-DD")
	}
	return entity.ItemFields{
		Text:          d.Text,
		College:       entity.College(d.College),
		Quantity:      d.Quantity,
		Amount:        d.Amount,
		RequestedDate: requested,
		Supplier:      d.Supplier,
		ItemType:      entity.ItemType(d.ItemType),
		Image:         d.Image,
	}, nil
}

// normalize recorta espacios y aplica NFC a los textos libres; imagen vacía equivale a sin imagen.
func normalize(in dto.ItemDraft) dto.ItemDraft {
	out := in
	out.Text = norm.NFC.String(strings.TrimSpace(in.Text))
	out.Supplier = norm.NFC.String(strings.TrimSpace(in.Supplier))
	out.College = strings.TrimSpace(in.College)
	out.ItemType = strings.TrimSpace(in.ItemType)
	out.RequestedDate = strings.TrimSpace(in.RequestedDate)
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img == "" {
			out.Image = nil
		} else {
			out.Image = &img
		}
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "max":
		return "máximo " + fe.Param() + " caracteres"
	case "datetime":
		return "formato AAAA-MM-DD"
	case "url":
		return "debe ser una URL"
	default:
		return "inválido (" + fe.Tag() + ")"
	}
}
