// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"
	"strings"
	"time"

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
	return &Store{c: db.Collection("courses")}
}

var (
	// ErrDuplicateInstallation is returned when creating a course with an
	// installation id that is already linked to another course.
	ErrDuplicateInstallation = errors.New("a course is already linked to this installation")

	errMissingName         = errors.New("course name is required")
	errMissingInstallation = errors.New("installation id is required")
)

// Create inserts a new course after normalizing and validating fields.
// The installation id is immutable once set; there is no update path for it.
func (s *Store) Create(ctx context.Context, course models.Course) (models.Course, error) {
	course.Name = strings.TrimSpace(course.Name)
	course.InstallationID = strings.TrimSpace(course.InstallationID)
	if course.Name == "" {
		return models.Course{}, errMissingName
	}
	if course.InstallationID == "" {
		return models.Course{}, errMissingInstallation
	}

	now := time.Now().UTC()
	course.ID = primitive.NewObjectID()
	course.NameCI = text.Fold(course.Name)
	course.CreatedAt = now
	course.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, course); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Course{}, ErrDuplicateInstallation
		}
		return models.Course{}, err
	}
	return course, nil
}

// GetByID loads a course by ObjectID. Returns (nil, nil) when no course exists.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var course models.Course
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByInstallationID looks up the course linked to an external installation.
// Returns (nil, nil) when no course is linked to that installation.
func (s *Store) GetByInstallationID(ctx context.Context, installationID string) (*models.Course, error) {
	var course models.Course
	err := s.c.FindOne(ctx, bson.M{"installation_id": strings.TrimSpace(installationID)}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns all courses sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Course, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var courses []models.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
