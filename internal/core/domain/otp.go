package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// OTPState is a step of the password-recovery flow.
type OTPState string

const (
	OTPStateForm      OTPState = "form"
	OTPStateCodeSent  OTPState = "code_sent"
	OTPStateVerifying OTPState = "verifying"
	OTPStateVerified  OTPState = "verified"
)

const (
	// OTPCodeLength is the number of digits in a recovery code.
	OTPCodeLength = 6
	// OTPResendCooldown is the wait, in seconds, before a code can be resent.
	OTPResendCooldown = 60
)

// otpTransitions lists the allowed moves of the recovery flow. Every state
// may return to the form.
var otpTransitions = map[OTPState][]OTPState{
	OTPStateForm:      {OTPStateCodeSent},
	OTPStateCodeSent:  {OTPStateCodeSent, OTPStateVerifying, OTPStateForm},
	OTPStateVerifying: {OTPStateVerified, OTPStateCodeSent, OTPStateForm},
	OTPStateVerified:  {OTPStateForm},
}

var (
	ErrInvalidRecoveryMethod = errors.New("recovery method must be email or phone")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrInvalidPhone          = errors.New("phone must be 8 to 15 digits")
	ErrInvalidOTPState       = errors.New("invalid recovery flow transition")
	ErrInvalidOTPCode        = errors.New("invalid verification code")
	ErrCooldownActive        = errors.New("please wait before requesting a new code")
	ErrChallengeNotFound     = errors.New("verification not found or expired")
	ErrTooManyAttempts       = errors.New("too many verification attempts")
	ErrResetTokenInvalid     = errors.New("reset token is invalid or already used")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
)

// CooldownError reports how long until a new code may be requested.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string { return ErrCooldownActive.Error() }

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// CanTransitionTo reports whether the flow may move from s to next.
func (s OTPState) CanTransitionTo(next OTPState) bool {
	for _, allowed := range otpTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RecoveryMethod is how the user receives the code.
type RecoveryMethod string

const (
	RecoveryEmail RecoveryMethod = "email"
	RecoveryPhone RecoveryMethod = "phone"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{8,15}$`)
)

// RecoveryContact is what the user typed on the recovery form.
type RecoveryContact struct {
	Method      RecoveryMethod `json:"method"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	CountryCode string         `json:"country_code,omitempty"`
}

// Validate checks the field that belongs to the selected method.
func (c RecoveryContact) Validate() error {
	switch c.Method {
	case RecoveryEmail:
		if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
			return ErrInvalidEmail
		}
	case RecoveryPhone:
		if !phonePattern.MatchString(strings.TrimSpace(c.Phone)) {
			return ErrInvalidPhone
		}
	default:
		return ErrInvalidRecoveryMethod
	}
	return nil
}

// Target is the normalised delivery address.
func (c RecoveryContact) Target() string {
	if c.Method == RecoveryPhone {
		return strings.TrimSpace(c.CountryCode) + strings.TrimSpace(c.Phone)
	}
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// OTPChallenge is the recovery flow as seen by the user. It holds no timers;
// the owner ticks the cooldown and decides when to verify.
type OTPChallenge struct {
	State          OTPState
	Contact        RecoveryContact
	Code           string
	Verified       bool
	Error          bool
	ResendCooldown int
}

// NewOTPChallenge starts on the recovery form.
func NewOTPChallenge() *OTPChallenge {
	return &OTPChallenge{State: OTPStateForm}
}

func (c *OTPChallenge) moveTo(next OTPState) error {
	if !c.State.CanTransitionTo(next) {
		return ErrInvalidOTPState
	}
	c.State = next
	return nil
}

// Submit records a validated contact and waits for the code.
func (c *OTPChallenge) Submit(contact RecoveryContact) error {
	if err := contact.Validate(); err != nil {
		return err
	}
	if err := c.moveTo(OTPStateCodeSent); err != nil {
		return err
	}
	c.Contact = contact
	c.Code = ""
	c.Error = false
	c.Verified = false
	c.ResendCooldown = OTPResendCooldown
	return nil
}

// Input replaces the typed code. Non-digits are dropped and the code is cut
// to OTPCodeLength. Any keystroke clears the error flag. It reports whether
// the code is complete.
func (c *OTPChallenge) Input(code string) bool {
	if c.State != OTPStateCodeSent {
		return false
	}
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' && b.Len() < OTPCodeLength {
			b.WriteRune(r)
		}
	}
	c.Code = b.String()
	c.Error = false
	return len(c.Code) == OTPCodeLength
}

// BeginVerify enters VERIFYING. An incomplete code flags an error and stays
// in CODE_SENT. It returns false when there is nothing to verify, which
// makes repeated calls harmless.
func (c *OTPChallenge) BeginVerify() bool {
	if c.State != OTPStateCodeSent {
		return false
	}
	if len(c.Code) != OTPCodeLength {
		c.Error = true
		return false
	}
	c.State = OTPStateVerifying
	return true
}

// CompleteVerify finishes a verification started by BeginVerify.
func (c *OTPChallenge) CompleteVerify(ok bool) {
	if c.State != OTPStateVerifying {
		return
	}
	if ok {
		c.State = OTPStateVerified
		c.Verified = true
		c.Error = false
		return
	}
	c.State = OTPStateCodeSent
	c.Error = true
}

// AbortVerify returns to CODE_SENT without flagging the code as wrong. It
// is used when the verifier could not be reached.
func (c *OTPChallenge) AbortVerify() {
	if c.State == OTPStateVerifying {
		c.State = OTPStateCodeSent
	}
}

// Tick counts the resend cooldown down by one second and returns what is
// left.
func (c *OTPChallenge) Tick() int {
	if c.ResendCooldown > 0 {
		c.ResendCooldown--
	}
	return c.ResendCooldown
}

// CanResend reports whether a new code may be requested.
func (c *OTPChallenge) CanResend() bool {
	return c.State == OTPStateCodeSent && c.ResendCooldown == 0
}

// Resend restarts the cooldown and clears the typed code.
func (c *OTPChallenge) Resend() error {
	if c.State != OTPStateCodeSent {
		return ErrInvalidOTPState
	}
	if c.ResendCooldown > 0 {
		return ErrCooldownActive
	}
	c.ResendCooldown = OTPResendCooldown
	c.Code = ""
	c.Error = false
	return nil
}

// Reset goes back to the form and discards everything typed after it.
func (c *OTPChallenge) Reset() {
	contact := c.Contact
	*c = OTPChallenge{State: OTPStateForm, Contact: contact}
}

// PasswordResetChallenge is the server-side record of an issued code.
type PasswordResetChallenge struct {
	ID        string
	UserID    string
	Method    RecoveryMethod
	Target    string
	Code      string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}
