package validation

import "strings"

type CredentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Credentials validates a login or, when register is set, a sign-up body.
// Emails are lowercased; passwords are taken verbatim.
func Credentials(raw []byte, register bool) (CredentialsInput, error) {
	var in CredentialsInput
	if err := decode(raw, &in); err != nil {
		return CredentialsInput{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	errs := &Errors{}
	errs.check("email", in.Email, "required,email,max=255")
	if register {
		errs.check("password", in.Password, "required,min=8,max=72")
		errs.check("name", in.Name, "omitempty,max=100")
	} else {
		errs.check("password", in.Password, "required")
	}

	if err := errs.Err(); err != nil {
		return CredentialsInput{}, err
	}
	return in, nil
}

// PasswordResetRequest returns the normalized email of a reset request.
func PasswordResetRequest(raw []byte) (string, error) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(raw, &in); err != nil {
		return "", err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	errs := &Errors{}
	errs.check("email", email, "required,email,max=255")
	if err := errs.Err(); err != nil {
		return "", err
	}
	return email, nil
}

// NewPassword validates the password of a reset or change request.
func NewPassword(raw []byte) (string, error) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decode(raw, &in); err != nil {
		return "", err
	}

	errs := &Errors{}
	errs.check("password", in.Password, "required,min=8,max=72")
	if err := errs.Err(); err != nil {
		return "", err
	}
	return in.Password, nil
}
