package patent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Qubut/IP-Claim/pkg/errors"
)

// dateLayouts are the formats date fields appear in across HUPD dumps.
var dateLayouts = []string{"20060102", "2006-01-02"}

// ParseDate parses a HUPD date string.  Empty or whitespace-only strings and
// unparseable values yield nil; the source data is too inconsistent to treat
// a bad optional date as fatal.
func ParseDate(s string) *time.Time {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}

// rawApplication mirrors the flat HUPD JSON document layout, with all dates
// as strings.
type rawApplication struct {
	ApplicationNumber string `json:"application_number"`
	PublicationNumber string `json:"publication_number"`
	PatentNumber      string `json:"patent_number"`
	Title             string `json:"title"`
	Decision          string `json:"decision"`

	DateProduced    string `json:"date_produced"`
	DatePublished   string `json:"date_published"`
	FilingDate      string `json:"filing_date"`
	PatentIssueDate string `json:"patent_issue_date"`
	AbandonDate     string `json:"abandon_date"`

	MainCPCLabel  string   `json:"main_cpc_label"`
	CPCLabels     []string `json:"cpc_labels"`
	MainIPCRLabel string   `json:"main_ipcr_label"`
	IPCRLabels    []string `json:"ipcr_labels"`
	USPCClass     string   `json:"uspc_class"`
	USPCSubclass  string   `json:"uspc_subclass"`

	ExaminerID         json.Number `json:"examiner_id"`
	ExaminerNameLast   string      `json:"examiner_name_last"`
	ExaminerNameFirst  string      `json:"examiner_name_first"`
	ExaminerNameMiddle string      `json:"examiner_name_middle"`

	Inventors []struct {
		NameLast  string `json:"inventor_name_last"`
		NameFirst string `json:"inventor_name_first"`
		City      string `json:"inventor_city"`
		State     string `json:"inventor_state"`
		Country   string `json:"inventor_country"`
	} `json:"inventor_list"`

	Abstract        string `json:"abstract"`
	Claims          string `json:"claims"`
	Background      string `json:"background"`
	Summary         string `json:"summary"`
	FullDescription string `json:"full_description"`
}

// DecodeHUPD parses one HUPD JSON document into a validated Application.
func DecodeHUPD(data []byte) (*Application, error) {
	raw := rawApplication{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePatentParseFailed, "decoding HUPD document")
	}

	app := &Application{
		Metadata: Metadata{
			ApplicationNumber: raw.ApplicationNumber,
			PublicationNumber: raw.PublicationNumber,
			PatentNumber:      raw.PatentNumber,
			Title:             raw.Title,
			Decision:          raw.Decision,
		},
		Dates: Dates{
			DateProduced:    ParseDate(raw.DateProduced),
			DatePublished:   ParseDate(raw.DatePublished),
			PatentIssueDate: ParseDate(raw.PatentIssueDate),
			AbandonDate:     ParseDate(raw.AbandonDate),
		},
		Classification: Classification{
			MainCPCLabel:  raw.MainCPCLabel,
			CPCLabels:     raw.CPCLabels,
			MainIPCRLabel: raw.MainIPCRLabel,
			IPCRLabels:    raw.IPCRLabels,
			USPCClass:     raw.USPCClass,
			USPCSubclass:  raw.USPCSubclass,
		},
		Examiner: Examiner{
			ID:         raw.ExaminerID.String(),
			NameLast:   raw.ExaminerNameLast,
			NameFirst:  raw.ExaminerNameFirst,
			NameMiddle: raw.ExaminerNameMiddle,
		},
		Content: Content{
			Abstract:        raw.Abstract,
			Claims:          raw.Claims,
			Background:      raw.Background,
			Summary:         raw.Summary,
			FullDescription: raw.FullDescription,
		},
	}

	if filed := ParseDate(raw.FilingDate); filed != nil {
		app.Dates.FilingDate = *filed
	}

	for _, inv := range raw.Inventors {
		app.Inventors = append(app.Inventors, Inventor{
			NameLast:  inv.NameLast,
			NameFirst: inv.NameFirst,
			City:      inv.City,
			State:     inv.State,
			Country:   inv.Country,
		})
	}

	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}
