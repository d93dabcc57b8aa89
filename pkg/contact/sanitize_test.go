package contact

import (
	"strings"
	"testing"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hi", "Hi"},
		{`<script>alert("x")</script>`, "&lt;script&gt;alert(&quot;x&quot;)&lt;&#x2F;script&gt;"},
		{"Tom & Jerry's", "Tom &amp; Jerry&#x27;s"},
		{"a\\b`c", "a&#x5C;b&#96;c"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestSanitizeTrimsNormalizesAndEscapes(t *testing.T) {
	got, err := Sanitize(validation.New(), Form{
		Name:    "  Ann <b>  ",
		Email:   " Ann@Example.COM ",
		Message: " I'd like a signed copy. ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann &lt;b&gt;", got.Name)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "I&#x27;d like a signed copy.", got.Message)
}

func TestSanitizeRejects(t *testing.T) {
	v := validation.New()
	tests := []struct {
		name  string
		form  Form
		field string
		msg   string
	}{
		{"blank name", Form{Name: "   ", Email: "a@b.co", Message: "Hi"}, "name", "Name is required."},
		{"bad email", Form{Name: "Ann", Email: "not-an-email", Message: "Hi"}, "email", "Please provide a valid email address."},
		{"long name", Form{Name: strings.Repeat("n", 201), Email: "a@b.co", Message: "Hi"}, "name", "Name must be under 200 characters."},
		{"long message", Form{Name: "Ann", Email: "a@b.co", Message: strings.Repeat("m", 5001)}, "message", "Message must be under 5 000 characters."},
		{"empty message", Form{Name: "Ann", Email: "a@b.co"}, "message", "Message is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(v, tt.form)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)

			fields := validation.Fields(err)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
			assert.Equal(t, tt.msg, fields[0].Msg)
		})
	}
}

func TestSanitizeReportsEveryField(t *testing.T) {
	_, err := Sanitize(validation.New(), Form{})
	fields := validation.Fields(err)
	require.Len(t, fields, 3)
	assert.Equal(t, "Name is required.", err.Error())
}

func TestSanitizeLengthCountsCharacters(t *testing.T) {
	_, err := Sanitize(validation.New(), Form{
		Name:    strings.Repeat("é", 200),
		Email:   "a@b.co",
		Message: "Hi",
	})
	assert.NoError(t, err)
}
