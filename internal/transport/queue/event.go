// Package queue moves password reset emails through RabbitMQ so the API can
// hand off delivery to a separate mail worker.
package queue

import (
	"time"

	"github.com/njprem/fitcity-auth/internal/domain"
)

// PasswordResetQueue is the durable queue carrying reset email jobs.
const PasswordResetQueue = "auth.password_reset_email"

// PasswordResetEmailJob is the message published for each reset request.
type PasswordResetEmailJob struct {
	Notice     domain.PasswordResetNotice `json:"notice"`
	EnqueuedAt time.Time                  `json:"enqueued_at"`
}
