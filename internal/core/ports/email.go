package ports

import (
	"context"
)

// NotificationSender delivers account emails. Transport failures surface as
// apperr.KindDeliveryFailure.
type NotificationSender interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
	SendPasswordResetEmail(ctx context.Context, to, resetURL string) error
}
