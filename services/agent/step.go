package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
	"github.com/privata-labs/privata/services/guardrail"
)

// retryDelay is the pause between corrective attempts. Validation failures
// are fixed by the corrective feedback, not by waiting, so it stays short.
const retryDelay = 250 * time.Millisecond

// Step executes one pipeline stage: build the request from the snapshot and
// upstream outputs, call the provider, validate the response, and retry with
// corrective feedback until the output is accepted or retries are spent.
type Step struct {
	caller     Caller
	validator  *guardrail.Validator
	transcript *Transcript
	logger     *zap.Logger
}

// StepInput carries the run-scoped material a stage execution needs.
type StepInput struct {
	Model    models.ModelConfig
	Snapshot *models.MetadataSnapshot
	Upstream map[models.StageID]json.RawMessage
}

// NewStep creates an agent step bound to a provider, validator and transcript.
func NewStep(caller Caller, validator *guardrail.Validator, transcript *Transcript, logger *zap.Logger) *Step {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Step{
		caller:     caller,
		validator:  validator,
		transcript: transcript,
		logger:     logger,
	}
}

// Execute runs the stage to a terminal result. A stage makes at most
// MaxRetries+1 attempts; auth failures and cancellation stop it immediately.
// Every attempt's request and response land in the transcript.
func (s *Step) Execute(ctx context.Context, def models.StageDefinition, in StepInput) *models.StageResult {
	result := models.NewStageResult(def.ID)
	result.MarkRunning()

	s.logger.Info("stage started",
		zap.String("stage", string(def.ID)),
		zap.Int("max_retries", def.MaxRetries),
	)

	attempts := 0
	corrective := ""
	var output json.RawMessage

	backoff := retry.WithMaxRetries(uint64(def.MaxRetries), retry.NewConstant(retryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		req, err := BuildRequest(def.ID, in.Model, in.Snapshot, in.Upstream, corrective)
		if err != nil {
			return services.WrapInternal("build stage request", err)
		}
		requestText := renderRequest(req)

		resp, err := s.call(ctx, def, req)
		if err != nil {
			s.transcript.Record(def.ID, attempts, requestText, "", err)
			if ctx.Err() != nil {
				return services.NewDomainError(services.ErrorTypeAborted, "run cancelled", ctx.Err())
			}
			if services.Retryable(err) {
				s.logger.Warn("provider call failed, retrying",
					zap.String("stage", string(def.ID)),
					zap.Int("attempt", attempts),
					zap.Error(err),
				)
				return retry.RetryableError(err)
			}
			return err
		}
		s.transcript.Record(def.ID, attempts, requestText, resp.Content, nil)

		payload, err := s.validator.Validate(def.ID, []byte(resp.Content), in.Snapshot)
		if err != nil {
			corrective = guardrail.CorrectiveInstruction(err)
			s.logger.Warn("stage output rejected, retrying with corrective feedback",
				zap.String("stage", string(def.ID)),
				zap.Int("attempt", attempts),
			)
			return retry.RetryableError(err)
		}

		output = payload
		return nil
	})

	if err != nil {
		errType := services.GetErrorType(err)
		if errType == "" {
			errType = services.ErrorTypeInternal
		}
		result.MarkFailed(string(errType), err.Error(), attempts)
		s.logger.Error("stage failed",
			zap.String("stage", string(def.ID)),
			zap.Int("attempts", attempts),
			zap.String("error_type", string(errType)),
		)
		return result
	}

	result.MarkSucceeded(output, attempts)
	s.logger.Info("stage succeeded",
		zap.String("stage", string(def.ID)),
		zap.Int("attempts", attempts),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result
}

// call performs one provider attempt under the per-attempt timeout. An
// attempt that runs out of its own time budget is a transport failure; the
// surrounding run context staying live is what distinguishes it from
// cancellation.
func (s *Step) call(ctx context.Context, def models.StageDefinition, req *CompletionRequest) (*CompletionResponse, error) {
	callCtx := ctx
	if def.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, def.AttemptTimeout)
		defer cancel()
	}

	resp, err := s.caller.Complete(callCtx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, services.WrapTransport("attempt timed out", err)
	}
	if services.GetErrorType(err) == "" {
		return nil, services.WrapTransport("provider call failed", err)
	}
	return nil, err
}

func renderRequest(req *CompletionRequest) string {
	out := ""
	for _, msg := range req.Messages {
		out += fmt.Sprintf("[%s] %s\n", msg.Role, msg.Content)
	}
	return out
}
