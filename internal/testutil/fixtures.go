package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCourse creates a test course linked to the given installation ID.
func (f *Fixtures) CreateCourse(ctx context.Context, name, installationID string) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	course := models.Course{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		InstallationID: installationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, course); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}

	return course
}

// CreateRosterStudent creates an enrolled student on the given course's
// roster. login may be empty, in which case the student has no linked
// account yet.
func (f *Fixtures) CreateRosterStudent(ctx context.Context, courseID primitive.ObjectID, fullName, email, login string, status models.OrgStatus) models.RosterStudent {
	f.t.Helper()

	now := time.Now().UTC()
	student := models.RosterStudent{
		ID:         primitive.NewObjectID(),
		CourseID:   courseID,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		OrgStatus:  status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if login != "" {
		student.GithubLogin = &login
	}

	if _, err := f.db.Collection("roster_students").InsertOne(ctx, student); err != nil {
		f.t.Fatalf("failed to create test roster student: %v", err)
	}

	return student
}

// CreateAdmin creates a test admin account.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) models.Admin {
	f.t.Helper()

	admin := models.Admin{
		ID:        primitive.NewObjectID(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("admins").InsertOne(ctx, admin); err != nil {
		f.t.Fatalf("failed to create test admin: %v", err)
	}

	return admin
}
