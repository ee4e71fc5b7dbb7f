// models/agent_application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application status values. An application is created as pending and is
// moved to approved or rejected exactly once by an admin. Rejected
// applications stay in the collection for audit; a reapplication is a new
// document.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// Permitted values for enumerated application fields.
var (
	AllowedIDTypes      = []string{"National ID", "Passport"}
	AllowedStudyYears   = []string{"Year 1", "Year 2", "Year 3", "Year 4", "Year 5", "Year 6"}
	AllowedDocumentExts = []string{".jpg", ".jpeg", ".png", ".pdf"}
)

// MaxDocumentSize is the upload ceiling for identity documents (5 MiB).
const MaxDocumentSize = 5 * 1024 * 1024

// AgentApplication is a user's request to become a sales agent.
type AgentApplication struct {
	ID     primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`

	// Personal details
	FullName        string `json:"fullName" bson:"fullName"`
	DateOfBirth     string `json:"dateOfBirth" bson:"dateOfBirth"` // YYYY-MM-DD
	PhoneNumber     string `json:"phoneNumber" bson:"phoneNumber"`
	PhysicalAddress string `json:"physicalAddress" bson:"physicalAddress"`
	IDType          string `json:"idType" bson:"idType"`
	IDNumber        string `json:"idNumber" bson:"idNumber"`
	IDDocumentPath  string `json:"idDocumentPath" bson:"idDocumentPath"`

	// University details
	UniversityName        string `json:"universityName" bson:"universityName"`
	Campus                string `json:"campus" bson:"campus"`
	StudentID             string `json:"studentId" bson:"studentId"`
	Course                string `json:"course" bson:"course"`
	YearOfStudy           string `json:"yearOfStudy" bson:"yearOfStudy"`
	UniversityEmail       string `json:"universityEmail" bson:"universityEmail"`
	StudentIDDocumentPath string `json:"studentIdDocumentPath" bson:"studentIdDocumentPath"`

	// Review metadata
	Status          string              `json:"status" bson:"status"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	ReviewedAt      *time.Time          `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	ReviewedBy      *primitive.ObjectID `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	TermsAccepted   bool                `json:"termsAccepted" bson:"termsAccepted"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (a *AgentApplication) IsPending() bool  { return a.Status == ApplicationStatusPending }
func (a *AgentApplication) IsApproved() bool { return a.Status == ApplicationStatusApproved }
func (a *AgentApplication) IsRejected() bool { return a.Status == ApplicationStatusRejected }

// ApplicationStatusData is the payload of the status endpoint.
type ApplicationStatusData struct {
	HasApplication bool                      `json:"has_application"`
	Application    *ApplicationStatusSummary `json:"application,omitempty"`
}

type ApplicationStatusSummary struct {
	ID              primitive.ObjectID `json:"id"`
	Status          string             `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
}

// ApproveApplicationRequest is the admin approval body. A missing rate
// falls back to the default agent commission rate.
type ApproveApplicationRequest struct {
	CommissionRate *float64 `json:"commission_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// RejectApplicationRequest is the admin rejection body.
type RejectApplicationRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required,min=10,max=1000"`
}

// ApplicationListItem joins an application with its applicant for admin
// listings.
type ApplicationListItem struct {
	Application AgentApplication `json:"application"`
	User        PublicUser       `json:"user"`
}

// ApplicationStats are the aggregate counts shown above the admin list.
type ApplicationStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// ApplicationDetail is the admin show payload.
type ApplicationDetail struct {
	Application AgentApplication `json:"application"`
	User        PublicUser       `json:"user"`
	Reviewer    *PublicUser      `json:"reviewer,omitempty"`
	Agent       *Agent           `json:"agent,omitempty"`
}
