package risk

type tierSpec struct {
	tier     Tier
	weight   int
	keywords []string
}

var tiers = []tierSpec{
	{
		tier:   TierHigh,
		weight: 10,
		keywords: []string{
			"urgent", "critical", "emergency", "immediate", "crisis",
			"lawsuit", "legal action", "breach", "violation", "fraud",
			"security incident", "data leak", "confidential leak",
			"deadline missed", "overdue", "expired", "terminated",
			"audit finding", "compliance issue", "regulatory",
			"threat", "vulnerability", "attack", "compromise",
		},
	},
	{
		tier:   TierMedium,
		weight: 5,
		keywords: []string{
			"important", "priority", "review required", "attention needed",
			"pending approval", "verification needed", "clarification",
			"update required", "modification", "change request",
			"budget concern", "resource issue", "timeline concern",
			"quality issue", "performance issue", "delay possible",
			"stakeholder concern", "client feedback", "escalation",
		},
	},
	{
		tier:   TierLow,
		weight: 1,
		keywords: []string{
			"routine", "standard", "normal", "regular", "scheduled",
			"informational", "update", "notification", "reminder",
			"confirmation", "acknowledgment", "status report",
			"meeting minutes", "progress report", "monthly report",
			"quarterly update", "annual review", "template",
			"guideline", "procedure", "policy update",
		},
	},
}

type docType struct {
	name     string
	keywords []string
}

// Checked in order; the first type with two or more distinct keywords wins.
var docTypes = []docType{
	{name: "contract", keywords: []string{"agreement", "contract", "terms", "conditions", "clause"}},
	{name: "financial", keywords: []string{"budget", "invoice", "payment", "financial", "cost", "expense"}},
	{name: "legal", keywords: []string{"legal", "law", "regulation", "compliance", "audit"}},
	{name: "technical", keywords: []string{"specification", "technical", "system", "software", "hardware"}},
	{name: "hr", keywords: []string{"employee", "staff", "personnel", "hr", "human resources"}},
}

const defaultDocType = "general"

var baseRecommendations = map[Label][]string{
	LabelHigh: {
		"Immediate review required",
		"Consider additional approval layers",
		"Document all decisions carefully",
		"Escalate to senior management if needed",
	},
	LabelMedium: {
		"Standard review process recommended",
		"Verify key details before proceeding",
		"Proceed with normal caution",
		"Monitor for any changes",
	},
	LabelLow: {
		"Routine processing acceptable",
		"Standard documentation sufficient",
		"Regular monitoring adequate",
	},
}

const (
	recHighIndicators = "Pay special attention to high-risk indicators found"
	recLegal          = "Legal review recommended"
	recFinancial      = "Financial verification recommended"
	recManual         = "Manual review required due to analysis failure"
)
