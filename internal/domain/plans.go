package domain

import "strings"

// UserRole names the user's plan tier.
type UserRole string

const (
	UserRoleFree      UserRole = "free"
	UserRolePremium   UserRole = "premium"
	UserRoleDeveloper UserRole = "developer"
)

// UserPlan describes the limits of a plan tier.
type UserPlan struct {
	Role          UserRole
	Name          string
	AskDailyLimit int
	AskIntroTotal int
}

var plans = map[UserRole]UserPlan{
	UserRoleFree: {
		Role:          UserRoleFree,
		Name:          "Free",
		AskDailyLimit: 3,
		AskIntroTotal: 10,
	},
	UserRolePremium: {
		Role:          UserRolePremium,
		Name:          "Premium",
		AskDailyLimit: 0,
	},
	UserRoleDeveloper: {
		Role:          UserRoleDeveloper,
		Name:          "Developer",
		AskDailyLimit: 0,
	},
}

// PlanForRole returns the plan for a role, falling back to Free for unknown roles.
func PlanForRole(role UserRole) UserPlan {
	if plan, ok := plans[UserRole(strings.ToLower(string(role)))]; ok {
		return plan
	}
	return plans[UserRoleFree]
}

// Plan returns the user's plan.
func (u User) Plan() UserPlan {
	return PlanForRole(u.Role)
}

// AskState reports the outcome of reserving one assistant question.
type AskState struct {
	Allowed   bool
	Plan      UserPlan
	TotalUsed int
	UsedToday int
}

// RemainingToday returns how many questions are left today. -1 means no limit.
func (s AskState) RemainingToday() int {
	if s.Plan.AskDailyLimit <= 0 {
		return -1
	}
	remaining := s.Plan.AskDailyLimit - s.UsedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IntroRemaining returns how many introductory questions are left.
func (s AskState) IntroRemaining() int {
	if s.Plan.AskIntroTotal <= 0 {
		return 0
	}
	remaining := s.Plan.AskIntroTotal - s.TotalUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
