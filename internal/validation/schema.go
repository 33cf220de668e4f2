package validation

import (
	"reflect"
	"strconv"
	"strings"

	"portfolio-backend/internal/schedule"
)

// FieldRule is the client-facing description of one validated field. It is
// derived from the same struct tags the server validates with.
type FieldRule struct {
	Field     string   `json:"field"`
	Required  bool     `json:"required"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Format    string   `json:"format,omitempty"`
	NotPast   bool     `json:"notPast,omitempty"`
	OneOf     []string `json:"oneOf,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// Describe lists the rules of every field of s that carries a validate tag.
func Describe(s interface{}) []FieldRule {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	rules := make([]FieldRule, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = f.Name
		}
		rules = append(rules, parseRule(name, tag))
	}
	return rules
}

func parseRule(field, tag string) FieldRule {
	rule := FieldRule{Field: field}
	for _, part := range strings.Split(tag, ",") {
		key, param, _ := strings.Cut(part, "=")
		switch key {
		case "required":
			rule.Required = true
		case "min":
			rule.MinLength, _ = strconv.Atoi(param)
		case "max":
			rule.MaxLength, _ = strconv.Atoi(param)
		case "email", "date", "clock":
			rule.Format = key
		case "slot":
			rule.Format = "slot"
			rule.Options = schedule.Slots()
		case "notpast":
			rule.NotPast = true
		case "oneof":
			rule.OneOf = strings.Fields(param)
		}
	}
	return rule
}
