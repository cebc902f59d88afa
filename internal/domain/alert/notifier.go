package alert

import "context"

// Notifier forwards operational messages to the team's alerting channel.
// Delivery is best effort: implementations log their own failures and never
// return them, so alerting can be sprinkled through batch loops freely.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Nop is a Notifier that discards everything. Used when no alerting webhook is
// configured and in tests.
type Nop struct{}

func (Nop) Notify(context.Context, string) {}
