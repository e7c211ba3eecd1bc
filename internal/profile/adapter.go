package profile

import (
	"strconv"
	"strings"
)

// applyForm writes normalized questionnaire answers onto the record.
// Invalid numeric input becomes nil rather than an error: the questionnaire
// accepts whatever the user typed and stores only what parses.
func applyForm(p *Profile, form FormData) {
	p.HouseholdMembers = toCount(form.HouseholdMembers)
	p.MonthlyIncome = toNumber(form.MonthlyIncome)
	p.HasDebt = toTriState(form.HasDebt)
	p.DebtAmount = toNumber(form.DebtAmount)
	p.SavingsGoal = strings.TrimSpace(form.SavingsGoal)
	p.PrimaryExpenses = orEmpty(form.PrimaryExpenses)
	p.BudgetingExperience = strings.TrimSpace(form.BudgetingExperience)
	p.FinancialGoals = orEmpty(form.FinancialGoals)
}

// Form converts record columns back to the questionnaire shape.
func (p *Profile) Form() FormData {
	return formFromProfile(p)
}

// formFromProfile converts record columns back to the questionnaire shape.
func formFromProfile(p *Profile) FormData {
	return FormData{
		HouseholdMembers:    fromCount(p.HouseholdMembers),
		MonthlyIncome:       fromNumber(p.MonthlyIncome),
		HasDebt:             fromTriState(p.HasDebt),
		DebtAmount:          fromNumber(p.DebtAmount),
		SavingsGoal:         p.SavingsGoal,
		PrimaryExpenses:     orEmpty(p.PrimaryExpenses),
		BudgetingExperience: p.BudgetingExperience,
		FinancialGoals:      orEmpty(p.FinancialGoals),
	}
}

func toNumber(value string) *float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &n
}

func fromNumber(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func toCount(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &n
}

func fromCount(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

// toTriState maps yes/no answers to a nullable boolean; anything else is
// "unknown" and stored as NULL.
func toTriState(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes":
		v := true
		return &v
	case "no":
		v := false
		return &v
	default:
		return nil
	}
}

func fromTriState(value *bool) string {
	if value == nil {
		return ""
	}
	if *value {
		return "yes"
	}
	return "no"
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
