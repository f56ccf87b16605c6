// internal/app/features/webhooks/reconciler.go
package webhooks

import (
	"context"

	"github.com/dalemusser/rosterhub/internal/app/system/orgstate"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CourseDirectory resolves the course linked to an external installation.
// A nil course with a nil error means no course is linked.
type CourseDirectory interface {
	GetByInstallationID(ctx context.Context, installationID string) (*models.Course, error)
}

// RosterStore is the enrollment-store surface the reconciler needs. Lookup
// methods return (nil, nil) when nothing matches.
type RosterStore interface {
	GetByCourseAndLogin(ctx context.Context, courseID primitive.ObjectID, login string) (*models.RosterStudent, error)
	FirstInvitedInCourse(ctx context.Context, courseID primitive.ObjectID) (*models.RosterStudent, error)
	ListByEmail(ctx context.Context, email string) ([]models.RosterStudent, error)
	ApplyMembership(ctx context.Context, id primitive.ObjectID, status models.OrgStatus, backfillLogin string) (*models.RosterStudent, error)
}

// Ignore reasons. These are internal observability only; every one of them is
// still acknowledged as success at the HTTP boundary so the sending platform
// never retries or disables the webhook.
const (
	ReasonNoAction       = "no action field"
	ReasonUnknownAction  = "unrecognized action"
	ReasonBadPayload     = "payload missing required fields"
	ReasonUnknownInstall = "no course linked to installation"
	ReasonNoMatch        = "no matching roster student"
	ReasonWriteFailed    = "membership update failed"
)

// Outcome is the result of reconciling one event: either a mutation with the
// updated student, or an ignore with the reason. Keeping this separate from
// the transport lets the always-ack policy live at the HTTP boundary while
// the reconciliation logic stays testable on its own.
type Outcome struct {
	Mutated bool
	Reason  string
	Student *models.RosterStudent
}

func ignored(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Reconciler maps inbound membership events onto roster students.
type Reconciler struct {
	Courses CourseDirectory
	Roster  RosterStore

	// EmailDomain is the institution's email domain, appended to a GitHub
	// login to derive a candidate email when the event carries no email.
	EmailDomain string

	Log *zap.Logger
}

// Reconcile processes one decoded webhook body end to end: payload
// validation, course resolution, student resolution, state transition, and
// persistence. It never fails outward; every branch ends in an Outcome.
func (rec *Reconciler) Reconcile(ctx context.Context, body []byte) Outcome {
	evt, reason := ParseEvent(body)
	if evt == nil {
		switch reason {
		case ReasonBadPayload:
			rec.Log.Warn("webhook payload missing required fields", zap.ByteString("payload", body))
		default:
			rec.Log.Info("webhook ignored", zap.String("reason", reason))
		}
		return ignored(reason)
	}

	course, err := rec.Courses.GetByInstallationID(ctx, evt.InstallationID)
	if err != nil {
		rec.Log.Error("course lookup failed", zap.String("installation_id", evt.InstallationID), zap.Error(err))
		return ignored(ReasonUnknownInstall)
	}
	if course == nil {
		rec.Log.Warn("received webhook for unlinked installation",
			zap.String("installation_id", evt.InstallationID))
		return ignored(ReasonUnknownInstall)
	}

	student := rec.resolveStudent(ctx, course, evt)
	if student == nil {
		rec.Log.Info("no matching roster student for webhook",
			zap.String("action", string(evt.Action)),
			zap.String("login", evt.Login),
			zap.String("course", course.Name))
		return ignored(ReasonNoMatch)
	}

	// ParseEvent only admits actions the state machine knows, so this can
	// fail only if the two ever fall out of sync. Surface that loudly.
	status, ok := orgstate.Transition(student.OrgStatus, evt.Action)
	if !ok {
		rec.Log.Error("no transition for validated action", zap.String("action", string(evt.Action)))
		return ignored(ReasonUnknownAction)
	}

	// Backfill the GitHub login when it was not yet observed and the event
	// carried one, so the direct login match succeeds on subsequent events.
	backfill := ""
	if evt.Login != "" && (student.GithubLogin == nil || *student.GithubLogin == "") {
		backfill = evt.Login
	}

	updated, err := rec.Roster.ApplyMembership(ctx, student.ID, status, backfill)
	if err != nil || updated == nil {
		rec.Log.Error("failed to persist membership update",
			zap.String("student_id", student.ID.Hex()),
			zap.String("status", string(status)),
			zap.Error(err))
		return ignored(ReasonWriteFailed)
	}

	rec.Log.Info("roster student membership updated",
		zap.String("student_id", updated.ID.Hex()),
		zap.String("course", course.Name),
		zap.String("action", string(evt.Action)),
		zap.String("org_status", string(updated.OrgStatus)))
	return Outcome{Mutated: true, Student: updated}
}

// resolveStudent finds the single roster student an event refers to, using
// the ordered fallback chain, each step scoped to the given course:
//
//  1. exact (course, login) match — return immediately;
//  2. pending-invitation match — confirmation events only: a student who
//     enrolled by email and was invited before their login was known gets
//     linked up here when the invitation is accepted;
//  3. email-derived match — the event's email, or login@<EmailDomain> when
//     the event carried no email.
//
// Lookup errors are treated as no-match: resolution failure is always
// non-fatal for the sender.
func (rec *Reconciler) resolveStudent(ctx context.Context, course *models.Course, evt *Event) *models.RosterStudent {
	if evt.Login != "" {
		student, err := rec.Roster.GetByCourseAndLogin(ctx, course.ID, evt.Login)
		if err != nil {
			rec.Log.Error("login lookup failed", zap.String("login", evt.Login), zap.Error(err))
			return nil
		}
		if student != nil {
			return student
		}
	}

	if evt.Action.Confirms() {
		student, err := rec.Roster.FirstInvitedInCourse(ctx, course.ID)
		if err != nil {
			rec.Log.Error("invited lookup failed", zap.String("course_id", course.ID.Hex()), zap.Error(err))
			return nil
		}
		if student != nil {
			return student
		}
	}

	email := evt.Email
	if email == "" && evt.Login != "" {
		email = evt.Login + "@" + rec.EmailDomain
	}
	if email == "" {
		return nil
	}
	candidates, err := rec.Roster.ListByEmail(ctx, email)
	if err != nil {
		rec.Log.Error("email lookup failed", zap.String("email", email), zap.Error(err))
		return nil
	}
	for i := range candidates {
		if candidates[i].CourseID == course.ID {
			return &candidates[i]
		}
	}
	return nil
}
