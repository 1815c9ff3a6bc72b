// Package progression derives tiers and one-time achievements from an
// account's cumulative metrics.
package progression

import "github.com/clawearning/backend/internal/models"

// Result reports what an evaluation changed
type Result struct {
	Unlocked     []Rule
	PreviousTier models.Tier
	Tier         models.Tier
}

// TierChanged reports whether the evaluation promoted the account
func (r Result) TierChanged() bool {
	return r.PreviousTier != r.Tier
}

// UnlockedIDs returns the ids of newly unlocked achievements
func (r Result) UnlockedIDs() []string {
	ids := make([]string, 0, len(r.Unlocked))
	for _, rule := range r.Unlocked {
		ids = append(ids, rule.ID())
	}
	return ids
}

// Evaluator applies a rule table to accounts
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator. A nil table uses DefaultRules.
func NewEvaluator(rules []Rule) *Evaluator {
	if rules == nil {
		rules = DefaultRules
	}
	return &Evaluator{rules: rules}
}

// Rules returns the rule table
func (e *Evaluator) Rules() []Rule {
	return e.rules
}

// Evaluate recomputes the tier and adds every newly satisfied achievement.
// Running it again with unchanged metrics changes nothing.
func (e *Evaluator) Evaluate(a *models.Account) Result {
	result := Result{PreviousTier: a.Tier}

	a.Tier = maxTier(a.Tier, TierFor(a.TotalEarnings))
	result.Tier = a.Tier

	for _, rule := range e.rules {
		if rule.Metric.Value(a) < rule.Threshold {
			continue
		}
		if a.Achievements.Add(rule.ID()) {
			result.Unlocked = append(result.Unlocked, rule)
		}
	}
	return result
}
