package advisor

import (
	"strconv"
	"strings"
	"text/template"

	"finsight/internal/core"
	"finsight/internal/risk"
)

// Prompt building is pure formatting: deterministic output for a given
// state, no error conditions, empty collections rendered as their
// documented placeholder lines.

var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

var advisoryTemplate = template.Must(template.New("advisory").Funcs(templateFuncs).Parse(
	`You are a Financial AI expert. Only answer questions related to finance.
Given the following financial information, provide personalized insights, advice, and investment strategies to help the user achieve their financial goals.

**Monthly Income:** ₹{{money .Profile.MonthlyIncome}}

**Monthly Expenses:**
{{if .Expenses}}{{range .Expenses}}- {{.Category}}: ₹{{money .Amount}}
{{end}}{{else}}No expenses available
{{end}}
**Upcoming Bills:**
{{if .Bills}}{{range .Bills}}- {{.Description}}: ₹{{money .Amount}} due on {{.DueDate}}
{{end}}{{else}}No upcoming bills
{{end}}
**Financial Goals:**
{{if gt .Profile.CurrentSavings 0.0}}Current Savings: ₹{{money .Profile.CurrentSavings}}
{{else}}No financial goals set
{{end}}
**Goals:**
{{if .Goals}}{{range .Goals}}- {{.Description}} - Target: ₹{{money .TargetAmount}} by {{.TargetDate}}
{{end}}{{else}}No goals available
{{end}}
Please analyze this information and generate a comprehensive financial plan with the following details:
- Insights into monthly savings and expense management.
- Recommended strategies for reaching financial goals, including savings targets and investment suggestions.
- Investment opportunities suited to the user's goals and financial profile.
- Any additional tips for optimizing overall financial health.
`))

var fraudTemplate = template.Must(template.New("fraud").Funcs(templateFuncs).Parse(
	`Analyze this transaction for fraud based on the following data:
- Transaction amount: ₹{{money .Amount}}
- Transaction location: {{.Location}}
- Device type: {{.DeviceType}}
- Transaction timestamp: {{.Timestamp}}
- IP Address: {{.IPAddress}}
- Card usage frequency: {{.CardUsageFrequency}}

Based on common fraud detection techniques, provide a risk score and analysis of whether this transaction is potentially fraudulent or not.
`))

// BuildAdvisoryPrompt renders the financial summary handed to the
// text-generation collaborator.
func BuildAdvisoryPrompt(state core.FinancialState) string {
	var b strings.Builder
	// The only possible failures are template programming errors, caught
	// by tests; a FinancialState always renders.
	if err := advisoryTemplate.Execute(&b, state); err != nil {
		return ""
	}
	return b.String()
}

// BuildFraudPrompt renders the transaction review request.
func BuildFraudPrompt(txn risk.Transaction) string {
	var b strings.Builder
	if err := fraudTemplate.Execute(&b, txn); err != nil {
		return ""
	}
	return b.String()
}
