package validation_test

import (
	"errors"
	"testing"

	"nmo-web-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDigits(t *testing.T) {
	t.Run("Arabic-Indic digits become ASCII", func(t *testing.T) {
		assert.Equal(t, "0551234567", validation.NormalizeDigits("٠٥٥١٢٣٤٥٦٧"))
	})

	t.Run("Eastern Arabic-Indic digits become ASCII", func(t *testing.T) {
		assert.Equal(t, "0551234567", validation.NormalizeDigits("۰۵۵۱۲۳۴۵۶۷"))
	})

	t.Run("Mixed input keeps other runes", func(t *testing.T) {
		assert.Equal(t, "05-51 abc", validation.NormalizeDigits("٠5-٥1 abc"))
	})
}

func TestTrimInputAndLength(t *testing.T) {
	assert.Equal(t, "abc", validation.TrimInput(" \t\uFEFFabc\u00a0\n"))
	assert.Equal(t, "abc", validation.TrimInput("\u2028\u3000abc\u2029"))
	// NEL is not trimmed by the browser either
	assert.Equal(t, "\u0085ab\u0085", validation.TrimInput(" \u0085ab\u0085 "))
	assert.Equal(t, 4, validation.Length(validation.TrimInput("\u0085ab\u0085")))
	assert.Equal(t, 3, validation.Length("أحم"))
	// Emoji outside the BMP count as two code units
	assert.Equal(t, 4, validation.Length("😀😀"))
}

func TestProjectRequestValidation(t *testing.T) {
	v := validation.New()

	valid := validation.ProjectRequest{
		Name:        "Ahmed Ali",
		Description: "Need a landing page for my startup",
		Phone:       "0551234567",
		Email:       "a@b.com",
	}

	t.Run("Valid request passes", func(t *testing.T) {
		require.NoError(t, v.Struct(valid))
	})

	t.Run("Each failing field is reported", func(t *testing.T) {
		err := v.Struct(validation.ProjectRequest{
			Name:        " ab ",
			Description: "too short",
			Phone:       "0651234567",
			Email:       "a@b",
		})
		require.Error(t, err)
		assert.ElementsMatch(t, []string{"name", "description", "phone", "email"}, validation.FailedFields(err))
	})

	t.Run("Name and description are counted after trimming", func(t *testing.T) {
		req := valid
		req.Name = "   abc   "
		req.Description = "  0123456789  "
		assert.NoError(t, v.Struct(req))
	})

	t.Run("Phone requires exactly 05 plus 8 digits", func(t *testing.T) {
		for _, phone := range []string{"055123456", "05512345678", "+966551234567", "0551 234567", "٠٥٥١٢٣٤٥٦٧"} {
			req := valid
			req.Phone = phone
			err := v.Struct(req)
			assert.Error(t, err, phone)
			assert.Equal(t, []string{"phone"}, validation.FailedFields(err), phone)
		}
	})

	t.Run("Email pattern", func(t *testing.T) {
		cases := map[string]bool{
			"a@b.com":          true,
			"  a@b.com  ":      true,
			"name@sub.site.sa": true,
			"a@b":              false,
			"a b@c.com":        false,
			"a@@b.com":         false,
			"@b.com":           false,
			"a@b.":             false,
			"a@b\u00a0.com":    false,
		}
		for email, ok := range cases {
			req := valid
			req.Email = email
			err := v.Struct(req)
			if ok {
				assert.NoError(t, err, email)
			} else {
				assert.Error(t, err, email)
			}
		}
	})
}

func TestMessagesFor(t *testing.T) {
	v := validation.New()
	err := v.Struct(validation.ProjectRequest{Name: "x", Description: "long enough text", Phone: "0551234567", Email: "a@b.com"})
	require.Error(t, err)

	fields := validation.FailedFields(err)
	assert.Equal(t, []string{"name"}, fields)
	messages := validation.MessagesFor(fields)
	assert.Len(t, messages, 1)
	assert.Equal(t, validation.FieldMessages["name"], messages["name"])
	assert.Nil(t, validation.FailedFields(errors.New("not a validation error")))

	assert.Equal(t, validation.FieldMessages["email"], validation.MessagesFor([]string{"email"})["email"])
	assert.Contains(t, validation.MessagesFor([]string{"other"})["other"], "other")
}
