package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

const (
	DefaultVerifyDebounce = 400 * time.Millisecond
	DefaultHandoffDelay   = 1500 * time.Millisecond
)

// ResetFlowOptions configures a ResetFlow.
type ResetFlowOptions struct {
	Scheduler ports.Scheduler
	Notifier  ports.Notifier
	// Simulate treats any complete code as valid and mints the reset token
	// locally. The API is then only used to send codes, and may be nil.
	Simulate       bool
	VerifyDebounce time.Duration
	HandoffDelay   time.Duration
	// OnVerified receives the reset token once the success screen has been
	// shown for HandoffDelay.
	OnVerified func(resetToken string)
}

// ResetFlow drives the forgot-password screen: it owns the challenge state,
// the one-second resend countdown and the debounced auto-verify. All timers
// belong to the flow and are cancelled by Back and Close.
type ResetFlow struct {
	api  ports.PasswordResetService
	opts ResetFlowOptions

	mu          sync.Mutex
	challenge   *domain.OTPChallenge
	challengeID string
	// gen invalidates every scheduled callback when bumped.
	gen uint64
	// inputSeq invalidates a pending auto-verify on each keystroke.
	inputSeq uint64
	closed   bool

	cooldownTimer ports.Timer
	verifyTimer   ports.Timer
	handoffTimer  ports.Timer
}

// NewResetFlow starts a flow on the recovery form.
func NewResetFlow(api ports.PasswordResetService, opts ResetFlowOptions) *ResetFlow {
	if opts.Scheduler == nil {
		opts.Scheduler = systemScheduler{}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.VerifyDebounce <= 0 {
		opts.VerifyDebounce = DefaultVerifyDebounce
	}
	if opts.HandoffDelay <= 0 {
		opts.HandoffDelay = DefaultHandoffDelay
	}
	return &ResetFlow{api: api, opts: opts, challenge: domain.NewOTPChallenge()}
}

// State returns a copy of the current challenge.
func (f *ResetFlow) State() domain.OTPChallenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.challenge
}

// Submit validates contact and asks the API to send a code. On failure the
// flow stays on the form.
func (f *ResetFlow) Submit(ctx context.Context, contact domain.RecoveryContact) error {
	if err := contact.Validate(); err != nil {
		f.notify("error", err.Error())
		return err
	}

	f.mu.Lock()
	if f.closed || f.challenge.State != domain.OTPStateForm {
		f.mu.Unlock()
		return domain.ErrInvalidOTPState
	}
	gen := f.gen
	f.mu.Unlock()

	id := uuid.NewString()
	if f.api != nil {
		ticket, err := f.api.RequestCode(ctx, contact)
		if err != nil {
			f.notify("error", sendFailureMessage(err))
			return err
		}
		id = ticket.ChallengeID
	}

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return domain.ErrInvalidOTPState
	}
	if err := f.challenge.Submit(contact); err != nil {
		f.mu.Unlock()
		return err
	}
	f.challengeID = id
	f.startCooldownLocked()
	f.mu.Unlock()

	f.notify("success", "verification code sent")
	return nil
}

// Input records the typed code. A complete code schedules verification
// after the debounce delay; every keystroke cancels the previous schedule.
func (f *ResetFlow) Input(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.inputSeq++
	stopTimer(&f.verifyTimer)
	if !f.challenge.Input(code) {
		return
	}

	gen, seq := f.gen, f.inputSeq
	f.verifyTimer = f.opts.Scheduler.AfterFunc(f.opts.VerifyDebounce, func() {
		_ = f.verify(context.Background(), gen, seq)
	})
}

// Verify checks the typed code now. It is a no-op while a verification is
// running or after success.
func (f *ResetFlow) Verify(ctx context.Context) error {
	f.mu.Lock()
	gen, seq := f.gen, f.inputSeq
	f.mu.Unlock()
	return f.verify(ctx, gen, seq)
}

func (f *ResetFlow) verify(ctx context.Context, gen, seq uint64) error {
	f.mu.Lock()
	if f.closed || gen != f.gen || seq != f.inputSeq {
		f.mu.Unlock()
		return nil
	}
	stopTimer(&f.verifyTimer)
	state := f.challenge.State
	if !f.challenge.BeginVerify() {
		incomplete := f.challenge.Error
		f.mu.Unlock()
		if incomplete {
			f.notify("error", "enter the 6-digit code")
			return domain.ErrInvalidOTPCode
		}
		if state == domain.OTPStateForm {
			return domain.ErrInvalidOTPState
		}
		return nil
	}
	id, code := f.challengeID, f.challenge.Code
	f.mu.Unlock()

	token, err := f.check(ctx, id, code)

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return nil
	}
	switch {
	case err == nil:
		f.challenge.CompleteVerify(true)
		stopTimer(&f.cooldownTimer)
		f.handoffTimer = f.opts.Scheduler.AfterFunc(f.opts.HandoffDelay, func() {
			f.handoff(gen, token)
		})
		f.mu.Unlock()
		f.notify("success", "code verified")
		return nil
	case isVerificationFailure(err):
		f.challenge.CompleteVerify(false)
		f.mu.Unlock()
		f.notify("error", err.Error())
		return err
	default:
		f.challenge.AbortVerify()
		f.mu.Unlock()
		f.notify("error", "could not verify the code, please try again")
		return err
	}
}

func (f *ResetFlow) check(ctx context.Context, id, code string) (string, error) {
	if f.opts.Simulate || f.api == nil {
		if len(code) != domain.OTPCodeLength {
			return "", domain.ErrInvalidOTPCode
		}
		return uuid.NewString(), nil
	}
	return f.api.VerifyCode(ctx, id, code)
}

func (f *ResetFlow) handoff(gen uint64, token string) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.handoffTimer = nil
	cb := f.opts.OnVerified
	f.mu.Unlock()

	if cb != nil {
		cb(token)
	}
}

// Resend asks for a new code. It is rejected while the cooldown runs; a
// failed request leaves the flow unchanged.
func (f *ResetFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.closed || f.challenge.State != domain.OTPStateCodeSent {
		f.mu.Unlock()
		return domain.ErrInvalidOTPState
	}
	if !f.challenge.CanResend() {
		f.mu.Unlock()
		return domain.ErrCooldownActive
	}
	gen, id := f.gen, f.challengeID
	f.mu.Unlock()

	if f.api != nil {
		if _, err := f.api.ResendCode(ctx, id); err != nil {
			f.notify("error", sendFailureMessage(err))
			return err
		}
	}

	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return domain.ErrInvalidOTPState
	}
	if err := f.challenge.Resend(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.inputSeq++
	stopTimer(&f.verifyTimer)
	f.startCooldownLocked()
	f.mu.Unlock()

	f.notify("success", "a new code has been sent")
	return nil
}

// Back returns to the form and cancels every pending timer.
func (f *ResetFlow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked()
	f.challenge.Reset()
	f.challengeID = ""
}

// Close tears the flow down. Nothing fires after Close returns.
func (f *ResetFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked()
	f.closed = true
}

func (f *ResetFlow) cancelLocked() {
	f.gen++
	f.inputSeq++
	stopTimer(&f.cooldownTimer)
	stopTimer(&f.verifyTimer)
	stopTimer(&f.handoffTimer)
}

func (f *ResetFlow) startCooldownLocked() {
	stopTimer(&f.cooldownTimer)
	gen := f.gen
	f.cooldownTimer = f.opts.Scheduler.AfterFunc(time.Second, func() { f.tick(gen) })
}

func (f *ResetFlow) tick(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen {
		return
	}
	if f.challenge.Tick() > 0 {
		f.cooldownTimer = f.opts.Scheduler.AfterFunc(time.Second, func() { f.tick(gen) })
		return
	}
	f.cooldownTimer = nil
}

func (f *ResetFlow) notify(level, msg string) {
	f.opts.Notifier.Notify(ports.Notification{Level: level, Message: msg})
}

func isVerificationFailure(err error) bool {
	return errors.Is(err, domain.ErrInvalidOTPCode) ||
		errors.Is(err, domain.ErrChallengeNotFound) ||
		errors.Is(err, domain.ErrTooManyAttempts)
}

func sendFailureMessage(err error) string {
	var ce *domain.CooldownError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return "could not send the code, please try again"
}

func stopTimer(t *ports.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

type nopNotifier struct{}

func (nopNotifier) Notify(ports.Notification) {}
