package validator

import (
	"testing"
)

type sampleInput struct {
	Email       string `validate:"required,email"`
	Phone       string `validate:"required,msisdn"`
	NewPassword string `validate:"required,password"`
}

func TestV10ValidatorValidate(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("constructing validator: %v", err)
	}

	cases := []struct {
		name    string
		input   sampleInput
		wantErr bool
		field   string
	}{
		{
			name:  "valid input",
			input: sampleInput{Email: "a@b.com", Phone: "61234578", NewPassword: "Secret123!"},
		},
		{
			name:    "bad email",
			input:   sampleInput{Email: "not-an-email", Phone: "61234578", NewPassword: "Secret123!"},
			wantErr: true,
			field:   "email",
		},
		{
			name:    "phone too short",
			input:   sampleInput{Email: "a@b.com", Phone: "612345", NewPassword: "Secret123!"},
			wantErr: true,
			field:   "phone",
		},
		{
			name:    "phone wrong leading digit",
			input:   sampleInput{Email: "a@b.com", Phone: "51234578", NewPassword: "Secret123!"},
			wantErr: true,
			field:   "phone",
		},
		{
			name:    "password too short",
			input:   sampleInput{Email: "a@b.com", Phone: "71234578", NewPassword: "short"},
			wantErr: true,
			field:   "new_password",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			err := v.Validate(tc.input)

			// Assert
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected validation error")
			}

			var fieldErrs V10ValidationError
			if !asValidationError(err, &fieldErrs) {
				t.Fatalf("error is not a V10ValidationError: %v", err)
			}
			if _, ok := fieldErrs[tc.field]; !ok {
				t.Fatalf("expected error for field %q, got %v", tc.field, fieldErrs)
			}
		})
	}
}

func asValidationError(err error, target *V10ValidationError) bool {
	ve, ok := err.(V10ValidationError)
	if !ok {
		return false
	}

	*target = ve

	return true
}
