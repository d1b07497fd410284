package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps form field names to user-facing Arabic labels
var FieldLabels = map[string]string{
	"name":        "الاسم",
	"description": "وصف المشروع",
	"phone":       "رقم الجوال",
	"email":       "البريد الإلكتروني",
}

// FieldMessages holds the inline error shown under each form field
var FieldMessages = map[string]string{
	"name":        "يرجى إدخال اسم صحيح (3 أحرف على الأقل)",
	"description": "يرجى كتابة وصف للمشروع (10 أحرف على الأقل)",
	"phone":       "يرجى إدخال رقم جوال سعودي صحيح يبدأ بـ 05 ويتكون من 10 أرقام",
	"email":       "يرجى إدخال بريد إلكتروني صحيح",
}

// FailedFields returns the json names of the fields that failed validation
func FailedFields(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
	}
	return fields
}

// MessagesFor returns the inline messages for the given field names
func MessagesFor(fields []string) map[string]string {
	messages := make(map[string]string, len(fields))
	for _, f := range fields {
		if msg, ok := FieldMessages[f]; ok {
			messages[f] = msg
			continue
		}
		messages[f] = fmt.Sprintf("%s: قيمة غير صالحة", getFieldLabel(f))
	}
	return messages
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
