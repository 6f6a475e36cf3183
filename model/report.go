package model

import (
	"fmt"
	"strings"
)

// VerificationReport is the aggregated outcome of one bulk verification job.
// Registered, Unregistered and Errored partition the deduplicated input:
// every checked number lands in exactly one of them, in input order.
type VerificationReport struct {
	Total        int      `json:"Total"`
	Registered   []string `json:"Registered"`
	Unregistered []string `json:"Unregistered"`
	Errored      []string `json:"Errored"`
	Partial      bool     `json:"Partial"`
}

func (r *VerificationReport) Processed() int {
	return len(r.Registered) + len(r.Unregistered) + len(r.Errored)
}

// SuccessRate is the share of registered numbers in percent. A zero-length
// job has a rate of 0 rather than NaN.
func (r *VerificationReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(len(r.Registered)) / float64(r.Total) * 100
}

// RenderText serializes the report for archival delivery as a document.
func (r *VerificationReport) RenderText() string {
	var sb strings.Builder
	sb.WriteString("Verification Report\n\n")
	fmt.Fprintf(&sb, "Total Processed: %v\n", r.Total)
	fmt.Fprintf(&sb, "Registered: %v\n", len(r.Registered))
	fmt.Fprintf(&sb, "Not Registered: %v\n", len(r.Unregistered))
	fmt.Fprintf(&sb, "Errors: %v\n", len(r.Errored))
	fmt.Fprintf(&sb, "Success Rate: %.1f%%\n", r.SuccessRate())
	if r.Partial {
		sb.WriteString("\nNote: the session was lost mid-job; this is a partial report covering the processed numbers only.\n")
	}
	if len(r.Registered) > 0 {
		sb.WriteString("\nRegistered:\n")
		for _, num := range r.Registered {
			sb.WriteString(num + "\n")
		}
	}
	if len(r.Unregistered) > 0 {
		sb.WriteString("\nNot Registered:\n")
		for _, num := range r.Unregistered {
			sb.WriteString(num + "\n")
		}
	}
	if len(r.Errored) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, num := range r.Errored {
			sb.WriteString(num + "\n")
		}
	}
	return sb.String()
}

type CheckStatus int

const (
	CheckRegistered CheckStatus = iota
	CheckNotRegistered
	CheckError
)

// CheckOutcome is the result of a single-number check.
type CheckOutcome struct {
	Status     CheckStatus
	Number     string
	Identifier string
	// Name is best-effort contact metadata; only set for CheckRegistered.
	Name string
}
