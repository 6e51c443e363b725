package notifier

import (
	"context"

	"github.com/avkuzmin/gymcore/internal/logger"
)

// LogNotifier writes codes to the log instead of dispatching them
// Dev only, never wire it in an environment handling real traffic
type LogNotifier struct {
	Logger logger.Logger
}

func (n LogNotifier) SendCode(_ context.Context, email string, code string, purpose string) error {
	n.Logger.Info("OTP code issued", "email", email, "code", code, "purpose", purpose)
	return nil
}
