package whitelist

import (
	"fmt"
	"strings"
)

const defaultFieldMaxLen = 500

// FormField is one typed slot of the one-shot application form.
type FormField struct {
	Key    string
	Label  string
	MaxLen int
}

// FormSchema is the ordered field list for the form entry path, derived from
// the questionnaire. Submissions are validated here, at the boundary, before
// their values enter an answer map.
type FormSchema struct {
	fields []FormField
}

func NewFormSchema(questions []Question) *FormSchema {
	fields := make([]FormField, 0, len(questions))
	for _, q := range questions {
		fields = append(fields, FormField{
			Key:    q.Key,
			Label:  q.Prompt,
			MaxLen: defaultFieldMaxLen,
		})
	}

	return &FormSchema{fields: fields}
}

func (f *FormSchema) Fields() []FormField {
	return f.fields
}

// Template renders the fill-in skeleton the applicant copies and completes,
// one "key:" line per field.
func (f *FormSchema) Template() string {
	var b strings.Builder
	for _, field := range f.fields {
		b.WriteString(field.Key)
		b.WriteString(":\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// Parse extracts field values from a filled template. A line starting with a
// known "key:" opens that field; following lines without a key prefix extend
// the current field's value.
func (f *FormSchema) Parse(text string) map[string]string {
	values := make(map[string]string)

	current := ""
	for _, line := range strings.Split(text, "\n") {
		key, rest, found := f.matchField(line)
		if found {
			current = key
			values[current] = strings.TrimSpace(rest)
			continue
		}

		if current == "" {
			continue
		}

		if values[current] == "" {
			values[current] = strings.TrimSpace(line)
		} else {
			values[current] += "\n" + strings.TrimSpace(line)
		}
	}

	return values
}

// Validate checks a parsed value set against the schema: every field must be
// present, non-blank and within its length limit.
func (f *FormSchema) Validate(values map[string]string) error {
	for _, field := range f.fields {
		value, ok := values[field.Key]
		if !ok || strings.TrimSpace(value) == "" {
			return &FormError{Field: field.Key, Reason: "resposta obrigatória"}
		}

		if len(value) > field.MaxLen {
			return &FormError{Field: field.Key, Reason: fmt.Sprintf("resposta acima de %d caracteres", field.MaxLen)}
		}
	}

	return nil
}

func (f *FormSchema) matchField(line string) (key string, rest string, found bool) {
	trimmed := strings.TrimSpace(line)
	for _, field := range f.fields {
		if len(trimmed) < len(field.Key)+1 {
			continue
		}

		if strings.EqualFold(trimmed[:len(field.Key)], field.Key) && trimmed[len(field.Key)] == ':' {
			return field.Key, trimmed[len(field.Key)+1:], true
		}
	}

	return "", "", false
}
