// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"

	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/service"
)

// Response is the envelope every API outcome is rendered in.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	// Remaining is set when an allocation exceeds the budget.
	Remaining *int64 `json:"remaining,omitempty"`
}

// StartVerificationRequest is the body of POST /api/v1/verification.
type StartVerificationRequest struct {
	Email string `json:"email" validate:"required,emailformat"`
}

// StartVerificationResponse carries the link when it is displayed in-band.
type StartVerificationResponse struct {
	Response
	VerificationLink string `json:"verification_link,omitempty"`
	ReceiptID        string `json:"receipt_id,omitempty"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Response
	Verified bool   `json:"verified"`
	Email    string `json:"email,omitempty"`
	Attempts int    `json:"attempts"`
}

// AllocationRequest is the body of allocation writes and checks.
type AllocationRequest struct {
	Amount json.Number `json:"amount" validate:"required"`
}

// AllocationsResponse lists a user's allocations.
type AllocationsResponse struct {
	Response
	Allocations map[string]int64 `json:"allocations"`
	Total       int64            `json:"total_allocated"`
}

// SummaryResponse wraps the allocation summary.
type SummaryResponse struct {
	Response
	*service.AllocationSummary
}

// CategoriesResponse wraps the category breakdown.
type CategoriesResponse struct {
	Response
	Categories []service.CategoryTotal `json:"categories"`
}

// ExportResponse wraps exported rows.
type ExportResponse struct {
	Response
	Rows []service.ExportRow `json:"rows"`
}

// ProjectsResponse lists catalog entries.
type ProjectsResponse struct {
	Response
	Count    int             `json:"count"`
	Projects []model.Project `json:"projects"`
}

// FacetsResponse lists the filter values of the catalog.
type FacetsResponse struct {
	Response
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// WebsiteSummary is a website list entry.
type WebsiteSummary struct {
	URL         string `json:"url"`
	DisplayName string `json:"display_name"`
	IsGitHub    bool   `json:"is_github"`
}

// WebsitesResponse lists search results.
type WebsitesResponse struct {
	Response
	Count    int              `json:"count"`
	Websites []WebsiteSummary `json:"websites"`
}

// WebsiteDetailResponse wraps one detail view.
type WebsiteDetailResponse struct {
	Response
	Website model.WebsiteDetail `json:"website"`
}

// ToWebsiteSummaries converts dataset rows to list entries.
func ToWebsiteSummaries(items []model.Website) []WebsiteSummary {
	out := make([]WebsiteSummary, 0, len(items))
	for i := range items {
		out = append(out, WebsiteSummary{
			URL:         items[i].URL,
			DisplayName: items[i].DisplayName(),
			IsGitHub:    items[i].IsGitHub(),
		})
	}
	return out
}

// OK returns a success envelope.
func OK(message string) Response {
	return Response{Success: true, Message: message}
}
