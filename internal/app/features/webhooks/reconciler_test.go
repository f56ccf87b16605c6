package webhooks_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/features/webhooks"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory collaborators mirroring the store contracts: lookups return
// (nil, nil) on no match, candidate selection is oldest-first.

type fakeDirectory struct {
	courses []models.Course
}

func (f *fakeDirectory) GetByInstallationID(ctx context.Context, installationID string) (*models.Course, error) {
	for i := range f.courses {
		if f.courses[i].InstallationID == installationID {
			return &f.courses[i], nil
		}
	}
	return nil, nil
}

type fakeRoster struct {
	students []models.RosterStudent
	saves    int
}

func (f *fakeRoster) sorted() []models.RosterStudent {
	out := make([]models.RosterStudent, len(f.students))
	copy(out, f.students)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (f *fakeRoster) GetByCourseAndLogin(ctx context.Context, courseID primitive.ObjectID, login string) (*models.RosterStudent, error) {
	for _, s := range f.sorted() {
		if s.CourseID == courseID && s.GithubLogin != nil && *s.GithubLogin == login {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) FirstInvitedInCourse(ctx context.Context, courseID primitive.ObjectID) (*models.RosterStudent, error) {
	for _, s := range f.sorted() {
		if s.CourseID == courseID && s.OrgStatus == models.OrgStatusInvited {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) ListByEmail(ctx context.Context, email string) ([]models.RosterStudent, error) {
	var out []models.RosterStudent
	for _, s := range f.sorted() {
		if s.Email == email {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRoster) ApplyMembership(ctx context.Context, id primitive.ObjectID, status models.OrgStatus, backfillLogin string) (*models.RosterStudent, error) {
	f.saves++
	for i := range f.students {
		if f.students[i].ID == id {
			f.students[i].OrgStatus = status
			if backfillLogin != "" {
				login := backfillLogin
				f.students[i].GithubLogin = &login
			}
			f.students[i].UpdatedAt = time.Now().UTC()
			out := f.students[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) byID(t *testing.T, id primitive.ObjectID) models.RosterStudent {
	t.Helper()
	for _, s := range f.students {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("student %s not found", id.Hex())
	return models.RosterStudent{}
}

func newStudent(courseID primitive.ObjectID, email string, login string, status models.OrgStatus, age time.Duration) models.RosterStudent {
	s := models.RosterStudent{
		ID:        primitive.NewObjectID(),
		CourseID:  courseID,
		FullName:  "Test Student",
		Email:     email,
		OrgStatus: status,
		CreatedAt: time.Now().UTC().Add(-age),
	}
	if login != "" {
		s.GithubLogin = &login
	}
	return s
}

func newReconciler(dir *fakeDirectory, roster *fakeRoster) *webhooks.Reconciler {
	return &webhooks.Reconciler{
		Courses:     dir,
		Roster:      roster,
		EmailDomain: "inst.edu",
		Log:         zap.NewNop(),
	}
}

func memberAddedBody(login, installationID string) []byte {
	return fmt.Appendf(nil, `{"action":"member_added","membership":{"user":{"login":%q}},"installation":{"id":%q}}`, login, installationID)
}

func memberRemovedBody(login, installationID string) []byte {
	return fmt.Appendf(nil, `{"action":"member_removed","membership":{"user":{"login":%q}},"installation":{"id":%q}}`, login, installationID)
}

func TestReconcile_MemberAdded_DirectLoginMatch(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "alice-gh", models.OrgStatusInvited, time.Hour),
	}}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), memberAddedBody("alice-gh", "42"))

	if !outcome.Mutated {
		t.Fatalf("expected mutation, got ignored: %s", outcome.Reason)
	}
	if outcome.Student.OrgStatus != models.OrgStatusMember {
		t.Errorf("org_status = %s, want MEMBER", outcome.Student.OrgStatus)
	}
	if outcome.Student.GithubLogin == nil || *outcome.Student.GithubLogin != "alice-gh" {
		t.Errorf("login changed unexpectedly: %v", outcome.Student.GithubLogin)
	}
}

func TestReconcile_MemberInvited_EmailVariant(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "", models.OrgStatusNone, time.Hour),
	}}
	rec := newReconciler(dir, roster)

	body := []byte(`{"action":"member_invited","invitation":{"email":"alice@inst.edu"},"installation":{"id":"42"}}`)
	outcome := rec.Reconcile(context.Background(), body)

	if !outcome.Mutated {
		t.Fatalf("expected mutation, got ignored: %s", outcome.Reason)
	}
	if outcome.Student.OrgStatus != models.OrgStatusInvited {
		t.Errorf("org_status = %s, want INVITED", outcome.Student.OrgStatus)
	}
	// No login in the event, so none may be populated.
	if outcome.Student.GithubLogin != nil {
		t.Errorf("github login = %q, want unset", *outcome.Student.GithubLogin)
	}
}

func TestReconcile_MemberInvited_UsernameVariant_DerivedEmail(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "bob@inst.edu", "", models.OrgStatusNone, time.Hour),
	}}
	rec := newReconciler(dir, roster)

	body := []byte(`{"action":"member_invited","user":{"login":"bob"},"installation":{"id":"42"}}`)
	outcome := rec.Reconcile(context.Background(), body)

	if !outcome.Mutated {
		t.Fatalf("expected mutation via derived email, got ignored: %s", outcome.Reason)
	}
	if outcome.Student.OrgStatus != models.OrgStatusInvited {
		t.Errorf("org_status = %s, want INVITED", outcome.Student.OrgStatus)
	}
	if outcome.Student.GithubLogin == nil || *outcome.Student.GithubLogin != "bob" {
		t.Errorf("expected login backfilled to %q, got %v", "bob", outcome.Student.GithubLogin)
	}
}

func TestReconcile_InvitedThenAdded_PendingInvitationFallback(t *testing.T) {
	// Scenario from the roster lifecycle: a student enrolls by email, is
	// invited before their platform login is known, then accepts. The
	// acceptance event carries a login that matches no record, and must link
	// up through the single INVITED record in the course.
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "", models.OrgStatusNone, time.Hour),
	}}
	rec := newReconciler(dir, roster)
	studentID := roster.students[0].ID

	invite := []byte(`{"action":"member_invited","invitation":{"email":"alice@inst.edu"},"installation":{"id":"42"}}`)
	if outcome := rec.Reconcile(context.Background(), invite); !outcome.Mutated {
		t.Fatalf("invite not reconciled: %s", outcome.Reason)
	}
	after := roster.byID(t, studentID)
	if after.OrgStatus != models.OrgStatusInvited || after.GithubLogin != nil {
		t.Fatalf("after invite: status=%s login=%v, want INVITED/unset", after.OrgStatus, after.GithubLogin)
	}

	added := memberAddedBody("alice-gh", "42")
	outcome := rec.Reconcile(context.Background(), added)
	if !outcome.Mutated {
		t.Fatalf("member_added not reconciled: %s", outcome.Reason)
	}
	after = roster.byID(t, studentID)
	if after.OrgStatus != models.OrgStatusMember {
		t.Errorf("org_status = %s, want MEMBER", after.OrgStatus)
	}
	if after.GithubLogin == nil || *after.GithubLogin != "alice-gh" {
		t.Errorf("expected login backfilled to alice-gh, got %v", after.GithubLogin)
	}
}

func TestReconcile_PendingInvitationFallback_OldestInvitedWins(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	older := newStudent(courseID, "first@inst.edu", "", models.OrgStatusInvited, 2*time.Hour)
	newer := newStudent(courseID, "second@inst.edu", "", models.OrgStatusInvited, time.Hour)
	roster := &fakeRoster{students: []models.RosterStudent{newer, older}}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), memberAddedBody("ghost", "42"))
	if !outcome.Mutated {
		t.Fatalf("expected mutation, got ignored: %s", outcome.Reason)
	}
	if outcome.Student.ID != older.ID {
		t.Errorf("resolved %s, want the oldest invited record %s", outcome.Student.Email, older.Email)
	}
}

func TestReconcile_MemberRemoved(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "alice-gh", models.OrgStatusMember, time.Hour),
	}}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), memberRemovedBody("alice-gh", "42"))
	if !outcome.Mutated {
		t.Fatalf("expected mutation, got ignored: %s", outcome.Reason)
	}
	if outcome.Student.OrgStatus != models.OrgStatusNone {
		t.Errorf("org_status = %s, want NONE", outcome.Student.OrgStatus)
	}
}

func TestReconcile_MemberRemoved_NoMatch(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), memberRemovedBody("nobody", "42"))
	if outcome.Mutated {
		t.Fatal("expected no mutation")
	}
	if outcome.Reason != webhooks.ReasonNoMatch {
		t.Errorf("reason = %q, want %q", outcome.Reason, webhooks.ReasonNoMatch)
	}
	// A removal event must not link up through the pending-invitation path.
	roster.students = []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "", models.OrgStatusInvited, time.Hour),
	}
	outcome = rec.Reconcile(context.Background(), memberRemovedBody("nobody", "42"))
	if outcome.Mutated {
		t.Fatal("member_removed reached the invited fallback")
	}
}

func TestReconcile_UnlinkedInstallation(t *testing.T) {
	dir := &fakeDirectory{}
	roster := &fakeRoster{}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), memberAddedBody("alice-gh", "999"))
	if outcome.Mutated {
		t.Fatal("expected no mutation for unlinked installation")
	}
	if outcome.Reason != webhooks.ReasonUnknownInstall {
		t.Errorf("reason = %q, want %q", outcome.Reason, webhooks.ReasonUnknownInstall)
	}
	if roster.saves != 0 {
		t.Errorf("saves = %d, want 0", roster.saves)
	}
}

func TestReconcile_MissingFields(t *testing.T) {
	dir := &fakeDirectory{}
	roster := &fakeRoster{}
	rec := newReconciler(dir, roster)

	bodies := [][]byte{
		[]byte(`{"action":"member_added","installation":{"id":"42"}}`),
		[]byte(`{"action":"member_added","membership":{"user":{"login":"x"}}}`),
		[]byte(`{"action":"member_invited","installation":{"id":"42"}}`),
		[]byte(`{"action":"member_removed","membership":{},"installation":{"id":"42"}}`),
		[]byte(`not json at all`),
	}
	for _, body := range bodies {
		outcome := rec.Reconcile(context.Background(), body)
		if outcome.Mutated {
			t.Errorf("payload %s: expected no mutation", body)
		}
		if outcome.Reason != webhooks.ReasonBadPayload {
			t.Errorf("payload %s: reason = %q, want %q", body, outcome.Reason, webhooks.ReasonBadPayload)
		}
	}
	if roster.saves != 0 {
		t.Errorf("saves = %d, want 0", roster.saves)
	}
}

func TestReconcile_IgnorableActions(t *testing.T) {
	dir := &fakeDirectory{}
	roster := &fakeRoster{}
	rec := newReconciler(dir, roster)

	outcome := rec.Reconcile(context.Background(), []byte(`{"zen":"Design for failure."}`))
	if outcome.Mutated || outcome.Reason != webhooks.ReasonNoAction {
		t.Errorf("no-action payload: got %+v", outcome)
	}

	outcome = rec.Reconcile(context.Background(), []byte(`{"action":"member_promoted"}`))
	if outcome.Mutated || outcome.Reason != webhooks.ReasonUnknownAction {
		t.Errorf("unknown action: got %+v", outcome)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "alice-gh", models.OrgStatusInvited, time.Hour),
	}}
	rec := newReconciler(dir, roster)
	body := memberAddedBody("alice-gh", "42")

	first := rec.Reconcile(context.Background(), body)
	second := rec.Reconcile(context.Background(), body)

	if !first.Mutated || !second.Mutated {
		t.Fatalf("expected both deliveries to reconcile: %+v / %+v", first, second)
	}
	if first.Student.OrgStatus != second.Student.OrgStatus {
		t.Errorf("statuses diverge: %s then %s", first.Student.OrgStatus, second.Student.OrgStatus)
	}
	if g1, g2 := first.Student.GithubLogin, second.Student.GithubLogin; g1 != nil && g2 != nil && *g1 != *g2 {
		t.Errorf("logins diverge: %s then %s", *g1, *g2)
	}
}

func TestReconcile_NumericInstallationID(t *testing.T) {
	courseID := primitive.NewObjectID()
	dir := &fakeDirectory{courses: []models.Course{{ID: courseID, Name: "CS 101", InstallationID: "42"}}}
	roster := &fakeRoster{students: []models.RosterStudent{
		newStudent(courseID, "alice@inst.edu", "alice-gh", models.OrgStatusNone, time.Hour),
	}}
	rec := newReconciler(dir, roster)

	body := []byte(`{"action":"member_added","membership":{"user":{"login":"alice-gh"}},"installation":{"id":42}}`)
	outcome := rec.Reconcile(context.Background(), body)
	if !outcome.Mutated {
		t.Fatalf("numeric installation id not matched: %s", outcome.Reason)
	}
}
