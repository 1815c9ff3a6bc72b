package progression

import (
	"github.com/clawearning/backend/internal/models"
	"github.com/gosimple/slug"
)

// Metric is a cumulative account counter an achievement can watch
type Metric string

const (
	MetricTotalEarnings    Metric = "total_earnings"
	MetricAdsWatched       Metric = "total_ads_watched"
	MetricReferrals        Metric = "referral_count"
	MetricStreakDays       Metric = "streak_days"
	MetricSpins            Metric = "total_spins"
	MetricQuizzesCompleted Metric = "quizzes_completed"
	MetricWithdrawals      Metric = "withdrawal_count"
)

// Value reads the metric from an account
func (m Metric) Value(a *models.Account) int64 {
	switch m {
	case MetricTotalEarnings:
		return a.TotalEarnings
	case MetricAdsWatched:
		return int64(a.TotalAdsWatched)
	case MetricReferrals:
		return int64(a.ReferralCount)
	case MetricStreakDays:
		return int64(a.StreakDays)
	case MetricSpins:
		return int64(a.TotalSpins)
	case MetricQuizzesCompleted:
		return int64(a.QuizzesCompleted)
	case MetricWithdrawals:
		return int64(a.WithdrawalCount)
	default:
		return 0
	}
}

// Rule unlocks an achievement once Metric reaches Threshold
type Rule struct {
	Metric    Metric
	Threshold int64
	Name      string
}

// ID is the stable achievement id stored on accounts
func (r Rule) ID() string {
	return slug.Make(r.Name)
}

// DefaultRules is the stock achievement table, evaluated in order
var DefaultRules = []Rule{
	{Metric: MetricAdsWatched, Threshold: 1, Name: "First Ad"},
	{Metric: MetricAdsWatched, Threshold: 100, Name: "Ad Enthusiast"},
	{Metric: MetricAdsWatched, Threshold: 1000, Name: "Ad Marathon"},
	{Metric: MetricReferrals, Threshold: 1, Name: "First Referral"},
	{Metric: MetricReferrals, Threshold: 10, Name: "Networker"},
	{Metric: MetricStreakDays, Threshold: 3, Name: "Streak Starter"},
	{Metric: MetricStreakDays, Threshold: 7, Name: "Week Warrior"},
	{Metric: MetricSpins, Threshold: 10, Name: "Lucky Spinner"},
	{Metric: MetricQuizzesCompleted, Threshold: 5, Name: "Quiz Whiz"},
	{Metric: MetricWithdrawals, Threshold: 1, Name: "First Payout"},
	{Metric: MetricTotalEarnings, Threshold: 1000, Name: "Big Earner"},
	{Metric: MetricTotalEarnings, Threshold: 5000, Name: "Tycoon"},
}
