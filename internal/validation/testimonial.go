package validation

import (
	"strings"

	"github.com/koe-app/koe/internal/models"
)

type SubmissionInput struct {
	AuthorName    string
	AuthorEmail   string
	AuthorTitle   string
	AuthorCompany string
	Content       string
	Rating        int
}

// TestimonialSubmission validates a public submission against the
// project's form. Name and content are always required; other fields are
// required when the form marks them so.
func TestimonialSubmission(raw []byte, form models.FormConfig) (SubmissionInput, error) {
	var in struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Title   *string `json:"title"`
		Company *string `json:"company"`
		Content *string `json:"content"`
		Rating  *int    `json:"rating"`
	}
	if err := decode(raw, &in); err != nil {
		return SubmissionInput{}, err
	}

	required := func(key string) bool {
		if key == "name" || key == "content" {
			return true
		}
		f, ok := form.Field(key)
		return ok && f.Required
	}
	value := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(*p)
	}
	tag := func(key, rules string) string {
		if required(key) {
			return "required," + rules
		}
		return "omitempty," + rules
	}

	out := SubmissionInput{
		AuthorName:    value(in.Name),
		AuthorEmail:   value(in.Email),
		AuthorTitle:   value(in.Title),
		AuthorCompany: value(in.Company),
		Content:       value(in.Content),
	}

	errs := &Errors{}
	errs.check("name", out.AuthorName, tag("name", "max=100"))
	errs.check("email", out.AuthorEmail, tag("email", "email,max=255"))
	errs.check("title", out.AuthorTitle, tag("title", "max=100"))
	errs.check("company", out.AuthorCompany, tag("company", "max=100"))
	errs.check("content", out.Content, tag("content", "max=5000"))

	switch {
	case in.Rating != nil:
		errs.check("rating", *in.Rating, "min=1,max=5")
		out.Rating = *in.Rating
	case required("rating"):
		errs.Add("rating", "is required")
	}

	if err := errs.Err(); err != nil {
		return SubmissionInput{}, err
	}
	return out, nil
}

// TestimonialStatus validates a moderation decision.
func TestimonialStatus(raw []byte) (models.TestimonialStatus, error) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decode(raw, &in); err != nil {
		return "", err
	}
	in.Status = strings.TrimSpace(in.Status)

	errs := &Errors{}
	errs.check("status", in.Status, "required,oneof=pending approved rejected")
	if err := errs.Err(); err != nil {
		return "", err
	}
	return models.TestimonialStatus(in.Status), nil
}
