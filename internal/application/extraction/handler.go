package extraction

import (
	"context"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/messaging/kafka"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

// HandleImportedMessage consumes one patent.imported event and runs the
// extraction pipeline for that application.  Returning an error lets the
// consumer retry and eventually dead-letter the message.
func (s *Service) HandleImportedMessage(ctx context.Context, msg *common.Message) error {
	env, err := kafka.DecodeEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != patent.EventTypeImported {
		return errors.Newf(errors.ErrCodeBadRequest,
			"unexpected event type %q on import topic", env.EventType)
	}

	payload := patent.ImportedEvent{}
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.ApplicationNumber == "" {
		return errors.New(errors.ErrCodeValidation,
			"imported event carries no application number")
	}

	s.logger.Debug("Handling imported application",
		logging.String("application_number", payload.ApplicationNumber),
		logging.String("event_id", env.EventID))

	_, err = s.ExtractByApplicationNumber(ctx, payload.ApplicationNumber)
	return err
}
