package analysis

import (
	"fmt"
	"strings"
)

// Clauses is the fixed checklist every contract is reviewed against.
var Clauses = []string{
	"Indemnification",
	"Limitation of Liability",
	"Intellectual Property Rights",
	"Confidentiality",
	"Termination for Cause",
	"Governing Law & Jurisdiction",
	"Data Privacy & Security",
	"Force Majeure",
}

const systemPrompt = "You are a paralegal who reviews commercial agreements for contractual risk. " +
	"You answer with a single JSON object and nothing else."

func clausePrompt(text string) string {
	quoted := make([]string, len(Clauses))
	for i, c := range Clauses {
		quoted[i] = fmt.Sprintf("%q", c)
	}

	var b strings.Builder
	b.WriteString("Review the contract below against these clauses: ")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(".\n\n")
	b.WriteString(`For each clause:
1. Quote the single sentence that best evidences it, or "" if absent.
2. Decide whether the clause is functionally present and explain why.
3. Rate its risk as "Low", "Medium" or "High". One-sided, ambiguous or non-standard wording is High. A missing clause is always High.
4. Give a confidence between 0.0 and 1.0.

Respond with a JSON object whose only key is "analysis", an array of objects shaped as:
{"clause_name": string, "is_present": boolean, "confidence_score": number, "risk_level": "Low" | "Medium" | "High", "justification": string, "cited_text": string}

CONTRACT TEXT:
`)
	b.WriteString(text)
	return b.String()
}

const advisorPrompt = "You are a contract lawyer who explains agreements to people without legal training. " +
	"Answer in plain prose without markdown headings."

// NotFoundAnswer is what the model is told to reply when the contract does
// not answer a question.
const NotFoundAnswer = "I could not find an answer to that question in the provided document."

func summaryPrompt(text string) string {
	return `Summarize the contract below in two or three short paragraphs a non-lawyer can follow.
Focus on what each party must do and on the most significant risks.

CONTRACT TEXT:
` + text
}

func suggestionPrompt(clause, riskyText string) string {
	if riskyText == "" {
		return fmt.Sprintf("The clause %q is missing from a contract. Draft a standard, balanced version of it.", clause)
	}
	return fmt.Sprintf("The clause %q below is one-sided or risky. Rewrite it to be balanced and fair.\n---\n%s\n---", clause, riskyText)
}

func answerPrompt(text, question string) string {
	return `Answer the question using only the contract text below. Do not use outside knowledge and be concise.
If the text does not answer it, reply exactly: "` + NotFoundAnswer + `"

CONTRACT TEXT:
` + text + `

QUESTION:
` + question
}
