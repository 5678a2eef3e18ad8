package validation

import "strings"

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactMessage validates a public contact form submission.
func ContactMessage(raw []byte) (ContactInput, error) {
	var in ContactInput
	if err := decode(raw, &in); err != nil {
		return ContactInput{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)

	errs := &Errors{}
	errs.collect("", validate.Struct(in))
	if err := errs.Err(); err != nil {
		return ContactInput{}, err
	}
	return in, nil
}
