package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/koe-app/koe/internal/models"
)

type ProjectCreateInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	Slug       string `json:"slug" validate:"omitempty,slug"`
	BrandColor string `json:"brand_color" validate:"brandcolor"`
}

// ProjectCreate validates a new project. A missing brand color defaults to
// models.DefaultBrandColor; a missing slug is left empty for the caller to
// derive.
func ProjectCreate(raw []byte) (ProjectCreateInput, error) {
	var in ProjectCreateInput
	if err := decode(raw, &in); err != nil {
		return ProjectCreateInput{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.BrandColor = strings.TrimSpace(in.BrandColor)
	if in.BrandColor == "" {
		in.BrandColor = models.DefaultBrandColor
	}

	errs := &Errors{}
	errs.collect("", validate.Struct(in))
	if err := errs.Err(); err != nil {
		return ProjectCreateInput{}, err
	}
	return in, nil
}

type FormFieldInput struct {
	Key      string `json:"key" validate:"required,max=40"`
	Label    string `json:"label" validate:"required,max=100"`
	Required bool   `json:"required"`
}

type FormConfigInput struct {
	Fields          []FormFieldInput `json:"fields" validate:"max=20,dive"`
	ThankYouMessage string           `json:"thank_you_message" validate:"max=500"`
}

func (f FormConfigInput) toModel() models.FormConfig {
	out := models.FormConfig{
		Fields:          make([]models.FormField, 0, len(f.Fields)),
		ThankYouMessage: f.ThankYouMessage,
	}
	for _, field := range f.Fields {
		out.Fields = append(out.Fields, models.FormField{
			Key:      field.Key,
			Label:    field.Label,
			Required: field.Required,
		})
	}
	return out
}

// ProjectUpdateInput carries only the fields present in the request.
type ProjectUpdateInput struct {
	Name       *string
	Slug       *string
	BrandColor *string
	LogoURL    *string
	FormConfig *models.FormConfig
}

// ProjectUpdate validates a partial project update. A body without any
// known field fails with ErrEmptyUpdate.
func ProjectUpdate(raw []byte) (ProjectUpdateInput, error) {
	var in struct {
		Name       *string          `json:"name"`
		Slug       *string          `json:"slug"`
		BrandColor *string          `json:"brand_color"`
		LogoURL    *string          `json:"logo_url"`
		FormConfig *FormConfigInput `json:"form_config"`
	}
	if err := decode(raw, &in); err != nil {
		return ProjectUpdateInput{}, err
	}
	if in.Name == nil && in.Slug == nil && in.BrandColor == nil && in.LogoURL == nil && in.FormConfig == nil {
		return ProjectUpdateInput{}, ErrEmptyUpdate
	}

	trimPtr(in.Name)
	trimPtr(in.Slug)
	trimPtr(in.BrandColor)
	trimPtr(in.LogoURL)

	errs := &Errors{}
	if in.Name != nil {
		errs.check("name", *in.Name, "required,max=100")
	}
	if in.Slug != nil {
		errs.check("slug", *in.Slug, "slug")
	}
	if in.BrandColor != nil {
		errs.check("brand_color", *in.BrandColor, "brandcolor")
	}
	if in.LogoURL != nil {
		errs.check("logo_url", *in.LogoURL, "omitempty,http_url,max=500")
	}

	out := ProjectUpdateInput{
		Name:       in.Name,
		Slug:       in.Slug,
		BrandColor: in.BrandColor,
		LogoURL:    in.LogoURL,
	}
	if in.FormConfig != nil {
		fc := in.FormConfig
		fc.ThankYouMessage = strings.TrimSpace(fc.ThankYouMessage)
		for i := range fc.Fields {
			fc.Fields[i].Key = strings.TrimSpace(fc.Fields[i].Key)
			fc.Fields[i].Label = strings.TrimSpace(fc.Fields[i].Label)
		}
		errs.collect("form_config.", validate.Struct(fc))

		seen := make(map[string]bool, len(fc.Fields))
		for i, field := range fc.Fields {
			if field.Key == "" {
				continue
			}
			if seen[field.Key] {
				errs.Add(fmt.Sprintf("form_config.fields[%d].key", i), "must be unique")
			}
			seen[field.Key] = true
		}
		model := fc.toModel()
		out.FormConfig = &model
	}

	if err := errs.Err(); err != nil {
		return ProjectUpdateInput{}, err
	}
	return out, nil
}

// SlugFromName derives a slug candidate from a project name. The result
// always satisfies SlugPattern.
func SlugFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	for len(slug) < 3 {
		slug += "0"
	}
	return slug
}
