// internal/domain/models/rosterstudent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgStatus is a roster student's observed organization-membership state.
type OrgStatus string

const (
	OrgStatusNone    OrgStatus = "NONE"    // not currently associated with the organization
	OrgStatusInvited OrgStatus = "INVITED" // an invitation is outstanding
	OrgStatusMember  OrgStatus = "MEMBER"  // active membership confirmed
)

// IsValid reports whether s is one of the three known statuses.
func (s OrgStatus) IsValid() bool {
	switch s {
	case OrgStatusNone, OrgStatusInvited, OrgStatusMember:
		return true
	}
	return false
}

// RosterStudent represents one student's enrollment in one Course.
//
// Email is assigned at roster import and normalized lower-case. GithubLogin is
// nil until first observed via a webhook event; once set, (course_id,
// github_login) is unique. OrgStatus is mutated exclusively by the webhook
// reconciliation engine.
type RosterStudent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CourseID    primitive.ObjectID `bson:"course_id" json:"course_id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email       string             `bson:"email" json:"email"`
	GithubLogin *string            `bson:"github_login,omitempty" json:"github_login,omitempty"`
	OrgStatus   OrgStatus          `bson:"org_status" json:"org_status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
