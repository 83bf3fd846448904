// Package patent implements the patent application bounded context: the
// aggregate built from Harvard USPTO (HUPD) style records, its invariants,
// derived fields, and the persistence contract.  Infrastructure concerns live
// in separate repository and adapter layers.
package patent

import (
	"sort"
	"strings"
	"time"

	"github.com/Qubut/IP-Claim/pkg/errors"
)

// Decision values observed in HUPD records.
const (
	DecisionAccepted = "ACCEPTED"
	DecisionRejected = "REJECTED"
	DecisionPending  = "PENDING"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value objects
// ─────────────────────────────────────────────────────────────────────────────

// Metadata is the core identification block of an application.
type Metadata struct {
	ApplicationNumber string `json:"application_number"`
	PublicationNumber string `json:"publication_number,omitempty"`
	PatentNumber      string `json:"patent_number"`
	Title             string `json:"title"`
	Decision          string `json:"decision"`
}

// Dates groups every date-valued field of an application.  All fields except
// FilingDate are optional in the source records.
type Dates struct {
	DateProduced    *time.Time `json:"date_produced,omitempty"`
	DatePublished   *time.Time `json:"date_published,omitempty"`
	FilingDate      time.Time  `json:"filing_date"`
	PatentIssueDate *time.Time `json:"patent_issue_date,omitempty"`
	AbandonDate     *time.Time `json:"abandon_date,omitempty"`
}

// Classification holds the CPC/IPCR/USPC labels of an application.
type Classification struct {
	MainCPCLabel  string   `json:"main_cpc_label,omitempty"`
	CPCLabels     []string `json:"cpc_labels,omitempty"`
	MainIPCRLabel string   `json:"main_ipcr_label,omitempty"`
	IPCRLabels    []string `json:"ipcr_labels,omitempty"`
	USPCClass     string   `json:"uspc_class,omitempty"`
	USPCSubclass  string   `json:"uspc_subclass,omitempty"`
}

// Examiner identifies the USPTO examiner assigned to the application.
type Examiner struct {
	ID         string `json:"examiner_id"`
	NameLast   string `json:"examiner_name_last"`
	NameFirst  string `json:"examiner_name_first"`
	NameMiddle string `json:"examiner_name_middle,omitempty"`
}

// Inventor identifies one inventor on the application.
type Inventor struct {
	NameLast  string `json:"inventor_name_last"`
	NameFirst string `json:"inventor_name_first"`
	City      string `json:"inventor_city,omitempty"`
	State     string `json:"inventor_state,omitempty"`
	Country   string `json:"inventor_country,omitempty"`
}

// Content holds the text sections of the application body.
type Content struct {
	Abstract        string `json:"abstract"`
	Claims          string `json:"claims"`
	Background      string `json:"background"`
	Summary         string `json:"summary"`
	FullDescription string `json:"full_description"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Application is the patent application aggregate root.
type Application struct {
	Metadata       Metadata       `json:"metadata"`
	Dates          Dates          `json:"dates"`
	Classification Classification `json:"classification"`
	Examiner       Examiner       `json:"examiner"`
	Inventors      []Inventor     `json:"inventor_list"`
	Content        Content        `json:"content"`
}

// Validate enforces the aggregate invariants.  An application must carry its
// identifiers and an accepted application cannot also record an abandon date.
func (a *Application) Validate() error {
	if a.Metadata.ApplicationNumber == "" {
		return errors.New(errors.ErrCodePatentInvalid, "application_number is required")
	}
	if a.Metadata.Title == "" {
		return errors.New(errors.ErrCodePatentInvalid, "title is required")
	}
	if a.Dates.FilingDate.IsZero() {
		return errors.New(errors.ErrCodePatentInvalid, "filing_date is required")
	}
	if a.Dates.AbandonDate != nil && strings.EqualFold(a.Metadata.Decision, DecisionAccepted) {
		return errors.New(errors.ErrCodePatentInvalid, "accepted applications cannot have an abandon date")
	}
	return nil
}

// FilingYear returns the year component of the filing date.
func (a *Application) FilingYear() int {
	return a.Dates.FilingDate.Year()
}

// InventorCountries returns the sorted set of distinct inventor countries,
// skipping inventors with no country recorded.
func (a *Application) InventorCountries() []string {
	set := map[string]struct{}{}
	for _, inv := range a.Inventors {
		if inv.Country != "" {
			set[inv.Country] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FullText concatenates the sections submitted to entity extraction, in
// reading order, separated by blank lines.  Empty sections are skipped.
func (a *Application) FullText() string {
	sections := []string{
		a.Metadata.Title,
		a.Content.Abstract,
		a.Content.Claims,
		a.Content.Background,
		a.Content.Summary,
		a.Content.FullDescription,
	}
	parts := sections[:0]
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// IsAccepted reports whether the application decision is ACCEPTED,
// case-insensitively.
func (a *Application) IsAccepted() bool {
	return strings.EqualFold(a.Metadata.Decision, DecisionAccepted)
}
