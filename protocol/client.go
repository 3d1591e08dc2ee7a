package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsboard/otpgate/logger"
	"github.com/opsboard/otpgate/model"
	"github.com/opsboard/otpgate/normalize"
	"github.com/opsboard/otpgate/transport"
	"go.uber.org/zap"
)

const TimeoutReason = "timeout"

// Client drives the confirmation protocol against the backend: submit a
// mutation, confirm a staged change with a one-time code, or resend by
// resubmitting the original mutation. Every reply goes through the
// normalizer; transport rejection becomes a failed outcome here and is never
// retried.
type Client struct {
	dispatcher transport.Dispatcher
	codeLength int
}

func NewClient(dispatcher transport.Dispatcher, codeLength int) *Client {
	return &Client{
		dispatcher: dispatcher,
		codeLength: codeLength,
	}
}

func (c *Client) CodeLength() int {
	return c.codeLength
}

// CheckCode is the local shape gate: a code that is not exactly codeLength
// numeric digits never costs a network round trip.
func (c *Client) CheckCode(code string) []string {
	if len(code) != c.codeLength || !allDigits(code) {
		return []string{fmt.Sprintf("code must be %d digits", c.codeLength)}
	}
	return nil
}

func (c *Client) Submit(ctx context.Context, req *model.MutationRequest) model.Outcome {
	raw, err := c.dispatcher.SubmitMutation(ctx, req)
	if err != nil {
		logger.Error("mutation submit failed", zap.String("entreprise", req.ScopeId), zap.Error(err))
		return model.FailedOutcome(failureReason(err))
	}
	return normalize.Normalize(raw)
}

func (c *Client) Confirm(ctx context.Context, challengeRef string, code string, scopeId string) model.Outcome {
	fieldErrors := make(map[string][]string)
	if challengeRef == "" {
		fieldErrors["challengeRef"] = []string{"challenge reference is required"}
	}
	if scopeId == "" {
		fieldErrors["entrepriseId"] = []string{"entreprise is required"}
	}
	if messages := c.CheckCode(code); messages != nil {
		fieldErrors["code"] = messages
	}
	if len(fieldErrors) > 0 {
		return model.FailedOutcomeWithFields(firstMessage(fieldErrors), fieldErrors)
	}
	raw, err := c.dispatcher.ConfirmCode(ctx, challengeRef, code, scopeId)
	if err != nil {
		logger.Error("code confirmation failed", zap.String("challengeRef", challengeRef), zap.Error(err))
		return model.FailedOutcome(failureReason(err))
	}
	return normalize.Normalize(raw)
}

// Resend is not a dedicated backend action: resubmitting the original
// mutation makes the backend mint and deliver a fresh code under a possibly
// new reference.
func (c *Client) Resend(ctx context.Context, req *model.MutationRequest) model.Outcome {
	return c.Submit(ctx, req)
}

func allDigits(code string) bool {
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstMessage(fieldErrors map[string][]string) string {
	for _, field := range []string{"code", "challengeRef", "entrepriseId"} {
		if messages := fieldErrors[field]; len(messages) > 0 {
			return messages[0]
		}
	}
	return normalize.GenericFailureReason
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutReason
	}
	return normalize.GenericFailureReason
}
