package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opchan/core/message"
	"github.com/opchan/core/replica"
)

// Signer is the narrow slice of delegation.Manager this package needs:
// sign an outgoing envelope, verify an incoming one (ApplyMessage's own
// dependency). Declared locally so identity does not import package
// delegation just for its concrete type.
type Signer interface {
	Sign(e *message.Envelope) (*message.Envelope, error)
	VerifyWithReason(e *message.Envelope) (bool, []string)
}

// Sender is the narrow slice of a transport this package needs: hand a
// signed, encoded envelope off for broadcast. Declared locally for the
// same reason as Signer; package transport's concrete client satisfies it.
type Sender interface {
	Send(ctx context.Context, raw []byte) error
}

// UpdateProfile implements spec.md §4.5's update_profile: build a
// ProfileUpdate message, sign it, apply it to rep immediately (so the
// local view updates without waiting on a transport round-trip), and
// hand it to sender for broadcast.
func UpdateProfile(ctx context.Context, rep *replica.Replica, signer Signer, sender Sender, callSign string, pref message.DisplayPreference) (*message.Envelope, error) {
	env := &message.Envelope{
		Kind:        message.KindProfileUpdate,
		ID:          uuid.New().String(),
		TimestampMs: time.Now().UnixMilli(),
		ProfileUpdate: &message.ProfileUpdatePayload{
			CallSign:          callSign,
			DisplayPreference: pref,
		},
	}

	signed, err := signer.Sign(env)
	if err != nil {
		return nil, fmt.Errorf("identity: sign profile update: %w", err)
	}

	raw, err := message.Marshal(signed)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal profile update: %w", err)
	}

	outcome := rep.ApplyMessage(raw, signer)
	if outcome.Result == replica.Rejected {
		return nil, fmt.Errorf("identity: local apply rejected profile update: %v", outcome.ValidationReport.Errors)
	}

	if sender != nil {
		if err := sender.Send(ctx, raw); err != nil {
			return nil, fmt.Errorf("identity: send profile update: %w", err)
		}
	}

	return signed, nil
}
