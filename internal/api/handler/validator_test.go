package handler

import (
	"strings"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"required uses json name", &loginRequest{Password: "x"}, "email is required"},
		{"email format", &loginRequest{Email: "nope", Password: "x"}, "email must be a valid email"},
		{"notblank", &resendCodeRequest{ChallengeID: "   "}, "challenge_id cannot be blank"},
		{"len", &verifyCodeRequest{ChallengeID: "ch", Code: "123"}, "code must be exactly 6 characters"},
		{"numeric", &verifyCodeRequest{ChallengeID: "ch", Code: "12345a"}, "code must contain digits only"},
		{"required_if", &forgotPasswordRequest{Method: "phone"}, "phone is required"},
		{"oneof", &forgotPasswordRequest{Method: "fax"}, "method must be one of: email phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&verifyCodeRequest{ChallengeID: "ch-1", Code: "123456"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Validate(&forgotPasswordRequest{Method: "email", Email: "a@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
