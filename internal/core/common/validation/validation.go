package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/tdy-voucher/internal"
	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
)

type ValidatorFunc func(interface{}) *errors.ValidationError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	ItemIndex  *int
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields    []*FieldValidator
	itemIndex *int
	extra     []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

// ForItem tags every field added afterwards with the submitted item position.
func (v *ValidationBuilder) ForItem(index int) *ValidationBuilder {
	i := index
	v.itemIndex = &i
	return v
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		ItemIndex:  v.itemIndex,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

// Fail records a failure that does not belong to a single typed field check.
func (v *ValidationBuilder) Fail(field, message string, code errors.ErrorCode) {
	v.extra = append(v.extra, errors.ValidationError{
		Field:     field,
		Message:   message,
		Code:      string(code),
		ItemIndex: v.itemIndex,
	})
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.ValidationError {
	return &errors.ValidationError{
		Field:     fv.FieldName,
		Message:   message,
		Code:      string(code),
		ItemIndex: fv.ItemIndex,
	}
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case calendar.Date:
			if v.IsZero() {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeInvalidDate)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NonNegative() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(int64); ok && v < 0 {
			return fv.fail(fmt.Sprintf("%s must not be negative", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinInt(min int64, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		var n int64
		switch v := value.(type) {
		case int64:
			n = v
		case int:
			n = int64(v)
		default:
			return nil
		}
		if n < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d", fv.FieldName, min), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxInt(max int64, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(int64); ok && v > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d", fv.FieldName, max), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) PositiveDecimal() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(decimal.Decimal); ok && !v.IsPositive() {
			return fv.fail(fmt.Sprintf("%s must be greater than zero", fv.FieldName), errors.ErrCodeInvalidMetadata)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxDecimal(max decimal.Decimal, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(decimal.Decimal); ok && v.GreaterThan(max) {
			return fv.fail(fmt.Sprintf("%s must not exceed %s", fv.FieldName, max), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(string); ok && len(v) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) ValidDate() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(calendar.Date); ok && !v.IsZero() && !v.Valid() {
			return fv.fail(fmt.Sprintf("%s is not a valid calendar date", fv.FieldName), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NotBefore(other calendar.Date, otherName string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(calendar.Date); ok && !v.IsZero() && v.Before(other) {
			return fv.fail(fmt.Sprintf("%s must not be before %s", fv.FieldName, otherName), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) WithinRange(from, to calendar.Date) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if v, ok := value.(calendar.Date); ok && !v.IsZero() && !v.Within(from, to) {
			message := fmt.Sprintf("%s %s is outside the trip (%s to %s)", fv.FieldName, v, from, to)
			return fv.fail(message, errors.ErrCodeItemOutOfRange)
		}
		return nil
	})
	return fv
}

// Custom fails the field with code whenever check returns a non-empty message.
func (fv *FieldValidator) Custom(code errors.ErrorCode, check func(value interface{}) string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if message := check(value); message != "" {
			return fv.fail(message, code)
		}
		return nil
	})
	return fv
}

// Errors runs every registered check and returns the failures in registration order.
func (v *ValidationBuilder) Errors() []errors.ValidationError {
	var validationErrors []errors.ValidationError
	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				validationErrors = append(validationErrors, *err)
			}
		}
	}
	return append(validationErrors, v.extra...)
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	if validationErrors := v.Errors(); len(validationErrors) > 0 {
		return errors.NewInvalidInputError(validationErrors)
	}
	return nil
}
