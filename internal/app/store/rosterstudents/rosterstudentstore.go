// internal/app/store/rosterstudents/rosterstudentstore.go
package rosterstudentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roster_students")}
}

var (
	// ErrDuplicateLogin is returned when a write would give two students in
	// the same course the same GitHub login.
	ErrDuplicateLogin = errors.New("another student in this course already has that GitHub login")

	errMissingEmail = errors.New("student email is required")
	errMissingName  = errors.New("student full name is required")
)

// resolutionOrder is the deterministic sort applied wherever the engine has
// to pick one record out of several candidates (plural email matches, the
// pending-invitation fallback). Oldest record first, ObjectID as tie-break.
var resolutionOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// Create inserts a new roster student with status NONE and no GitHub login.
func (s *Store) Create(ctx context.Context, student models.RosterStudent) (models.RosterStudent, error) {
	student.FullName = normalize.Name(student.FullName)
	student.Email = normalize.Email(student.Email)
	if student.FullName == "" {
		return models.RosterStudent{}, errMissingName
	}
	if student.Email == "" {
		return models.RosterStudent{}, errMissingEmail
	}

	now := time.Now().UTC()
	student.ID = primitive.NewObjectID()
	student.FullNameCI = text.Fold(student.FullName)
	student.GithubLogin = nil
	if student.OrgStatus == "" {
		student.OrgStatus = models.OrgStatusNone
	}
	student.CreatedAt = now
	student.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, student); err != nil {
		if wafflemongo.IsDup(err) {
			return models.RosterStudent{}, ErrDuplicateLogin
		}
		return models.RosterStudent{}, err
	}
	return student, nil
}

// GetByCourseAndLogin looks up the single student in a course holding a
// GitHub login. Returns (nil, nil) when no student has that login.
func (s *Store) GetByCourseAndLogin(ctx context.Context, courseID primitive.ObjectID, login string) (*models.RosterStudent, error) {
	var student models.RosterStudent
	err := s.c.FindOne(ctx, bson.M{
		"course_id":    courseID,
		"github_login": normalize.Login(login),
	}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// FirstInvitedInCourse returns the oldest student in the course whose status
// is INVITED, or (nil, nil) when none is. The deterministic order makes the
// pending-invitation fallback explainable when several invitations are open.
func (s *Store) FirstInvitedInCourse(ctx context.Context, courseID primitive.ObjectID) (*models.RosterStudent, error) {
	var student models.RosterStudent
	err := s.c.FindOne(ctx,
		bson.M{"course_id": courseID, "org_status": models.OrgStatusInvited},
		options.FindOne().SetSort(resolutionOrder),
	).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByEmail returns every student with the given email across all courses,
// in resolution order. Email is not unique within a course in the stored
// model, so callers filter to their course and take the first match.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]models.RosterStudent, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"email": normalize.Email(email)},
		options.Find().SetSort(resolutionOrder),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []models.RosterStudent
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ListByCourse returns the full roster for a course sorted by folded name.
func (s *Store) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.RosterStudent, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"course_id": courseID},
		options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []models.RosterStudent
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ApplyMembership persists a reconciliation outcome in one atomic
// single-document update keyed by the student's id: the new status, plus the
// GitHub login when backfilling it. Concurrent events for the same student
// settle last-writer-wins without corrupting the record. The updated student
// is returned.
func (s *Store) ApplyMembership(ctx context.Context, id primitive.ObjectID, status models.OrgStatus, backfillLogin string) (*models.RosterStudent, error) {
	set := bson.M{
		"org_status": status,
		"updated_at": time.Now().UTC(),
	}
	if backfillLogin != "" {
		set["github_login"] = normalize.Login(backfillLogin)
	}

	var updated models.RosterStudent
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateLogin
		}
		return nil, err
	}
	return &updated, nil
}

// UpsertBatchResult contains counts from a batch roster import.
type UpsertBatchResult struct {
	Created int
	Updated int
}

// UpsertBatch imports roster rows for a course, keyed by (course, email).
// Existing students keep their GitHub login and org status; only the name is
// refreshed. New students start at NONE with no login.
func (s *Store) UpsertBatch(ctx context.Context, courseID primitive.ObjectID, rows []models.RosterStudent) (UpsertBatchResult, error) {
	var res UpsertBatchResult
	now := time.Now().UTC()

	for _, row := range rows {
		fullName := normalize.Name(row.FullName)
		email := normalize.Email(row.Email)
		if fullName == "" || email == "" {
			continue // pre-scan validation rejects these before we get here
		}

		out, err := s.c.UpdateOne(ctx,
			bson.M{"course_id": courseID, "email": email},
			bson.M{
				"$set": bson.M{
					"full_name":    fullName,
					"full_name_ci": text.Fold(fullName),
					"updated_at":   now,
				},
				"$setOnInsert": bson.M{
					"_id":        primitive.NewObjectID(),
					"course_id":  courseID,
					"email":      email,
					"org_status": models.OrgStatusNone,
					"created_at": now,
				},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return res, err
		}
		if out.UpsertedCount > 0 {
			res.Created++
		} else if out.ModifiedCount > 0 {
			res.Updated++
		}
	}
	return res, nil
}
