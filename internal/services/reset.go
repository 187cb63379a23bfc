package services

import (
	"log"

	"trading_console/internal/backend"
)

// ResetStep identifies where a password reset attempt currently stands.
type ResetStep string

const (
	StepEmail ResetStep = "email"
	StepReset ResetStep = "reset"
)

// ResetFlow is the two-step password reset machine. A flow starts awaiting
// the operator's email; once the OTP request succeeds it awaits the OTP and
// new password; a successful reset marks the flow done so the page can
// redirect back to login. Any failure keeps the current step and only updates
// the message.
type ResetFlow struct {
	Step    ResetStep
	Email   string
	Message string
	Done    bool
}

// ResetService runs password reset flows against the backend.
type ResetService struct {
	client *backend.Client
}

// NewResetService creates a reset service.
func NewResetService(client *backend.Client) *ResetService {
	return &ResetService{client: client}
}

// NewFlow returns a flow at the first step.
func (s *ResetService) NewFlow() ResetFlow {
	return ResetFlow{Step: StepEmail}
}

// SubmitEmail asks the backend to send an OTP and advances the flow on
// success.
func (s *ResetService) SubmitEmail(flow ResetFlow, email string) ResetFlow {
	flow.Email = email

	resp, err := s.client.ForgotPassword(email)
	if err != nil {
		log.Printf("[Reset] send OTP failed: %v", err)
		flow.Message = "Error connecting to server"
		return flow
	}
	if !resp.Success {
		flow.Message = messageOr(resp.Message, "Failed to send OTP")
		return flow
	}

	flow.Step = StepReset
	flow.Message = "OTP sent to your registered email!"
	return flow
}

// SubmitReset performs the reset for the flow's email and marks the flow done
// on success. The OTP and new password the form collects never reach the
// backend; the reset endpoint only takes the address and mails a generated
// password itself.
func (s *ResetService) SubmitReset(flow ResetFlow, otp, newPassword string) ResetFlow {
	resp, err := s.client.ResetPassword(flow.Email)
	if err != nil {
		log.Printf("[Reset] reset failed: %v", err)
		flow.Message = "Error connecting to server"
		return flow
	}
	if !resp.Success {
		flow.Message = messageOr(resp.Message, "Password reset failed")
		return flow
	}

	flow.Done = true
	flow.Message = "Password reset! Check your email for the new password."
	return flow
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
