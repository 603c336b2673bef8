package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func Test_validatePassword(t *testing.T) {
	validate := newValidator(t)

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "a1!", wantTag: pwdLenTag},
		{name: "too long", pwd: "abcdefgh123456!!", wantTag: pwdLenTag},
		{name: "whitespace", pwd: "abc 123!x", wantTag: pwdNoSpaceTag},
		{name: "no letter", pwd: "12345678!", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "abcdefgh!", wantTag: pwdComplexityTag},
		{name: "no special", pwd: "abcdefgh1", wantTag: pwdComplexityTag},
		{name: "similar to email", pwd: "awe@test.cd1", wantTag: pwdAttrSimTag},
		{name: "ok min bound", pwd: "abcde1!x"},
		{name: "ok max bound", pwd: "abcdefgh12345!!"},
		{name: "ok", pwd: "g00d&pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(ResetUserPassword{
				Email:           "awe@test.cd",
				Code:            "123456",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			})
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() error = %v, want nil", err)
				}
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			var found bool
			for _, vErr := range vErrs {
				if vErr.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("Struct() errors = %v, want tag %q", vErrs, tt.wantTag)
			}
		})
	}
}

func Test_allRolesValidation(t *testing.T) {
	validate := newValidator(t)

	nu := NewUser{
		ID:              "201912345",
		Name:            "Awe Test",
		Email:           "awe@test.cd",
		Password:        "g00d&pwd",
		PasswordConfirm: "g00d&pwd",
		Roles:           []string{"principal:"},
	}
	err := validate.Struct(nu)
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("Struct() error = %v, want ValidationErrors", err)
	}
	if vErrs[0].Tag() != allRolesTag {
		t.Errorf("Struct() tag = %q, want %q", vErrs[0].Tag(), allRolesTag)
	}

	nu.Roles = []string{RoleStudent, RoleTeacher}
	if err := validate.Struct(nu); err != nil {
		t.Errorf("Struct() error = %v, want nil", err)
	}
}
