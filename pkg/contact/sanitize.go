package contact

import (
	"strings"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/validation"
)

// Form is the contact form as it arrives at the HTTP edge.
type Form struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required.",
		"max":      "Name must be under 200 characters.",
	},
	"email": {
		"required": "Email is required.",
		"email":    "Please provide a valid email address.",
	},
	"message": {
		"required": "Message is required.",
		"max":      "Message must be under 5 000 characters.",
	},
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// Escape replaces the characters that are significant in HTML with
// entities.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Sanitize trims and validates f, then returns the form as it is stored:
// email lower-cased, every field HTML-escaped. A failure is a validation
// error whose details list every offending field.
func Sanitize(v *validation.Validator, f Form) (Form, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)

	if err := v.Struct(f); err != nil {
		fields := validation.Fields(err)
		if fields == nil {
			return Form{}, err
		}
		for i, fe := range fields {
			if msg, ok := fieldMessages[fe.Field][fe.Tag]; ok {
				fields[i].Msg = msg
			}
		}
		return Form{}, apperr.ValidationWithDetails(fields[0].Msg, fields)
	}

	return Form{
		Name:    Escape(f.Name),
		Email:   Escape(strings.ToLower(f.Email)),
		Message: Escape(f.Message),
	}, nil
}
