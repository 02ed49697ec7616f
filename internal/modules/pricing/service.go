// README: Pricing service resolves the fare for a ride at creation time.
package pricing

import (
	"context"
	"time"

	"campusride/internal/config"
	"campusride/internal/types"
)

// RuleSource yields the current fare rule, if one is configured.
type RuleSource interface {
	Rule(ctx context.Context) (Rule, bool, error)
}

type Service struct {
	rules    RuleSource
	defaults Rule
}

func NewService(rules RuleSource, cfg config.FareConfig) *Service {
	return &Service{
		rules: rules,
		defaults: Rule{
			BaseFare:    cfg.BaseFare,
			PrebookFare: cfg.PrebookFare,
			Lead:        cfg.PrebookLead,
			Currency:    cfg.Currency,
		},
	}
}

// Quote returns the fare for a ride. Pre-bookings scheduled at least the
// configured lead ahead of now get the discounted fare; everything else pays
// the base fare. The result is a pure function of the inputs and the rule.
func (s *Service) Quote(ctx context.Context, prebooked bool, scheduledAt *time.Time, now time.Time) (types.Money, error) {
	rule := s.defaults
	if s.rules != nil {
		r, ok, err := s.rules.Rule(ctx)
		if err != nil {
			return types.Money{}, err
		}
		if ok {
			rule = r
		}
	}
	amount := rule.BaseFare
	if prebooked && scheduledAt != nil && scheduledAt.Sub(now) >= rule.Lead {
		amount = rule.PrebookFare
	}
	return types.Money{Amount: amount, Currency: rule.Currency}, nil
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
