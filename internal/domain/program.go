package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutProgram
//  └── WorkoutSession (ordered by week number, then creation time)
//       └── WorkoutExercise (ordered by insertion)
//            └── Exercise (library)
//
// Exercise is the library entry; WorkoutExercise describes how that exercise
// is performed within a particular session.

// WorkoutProgram is authored content owned by its creator. Whole-program
// updates replace the session/exercise subtree in one atomic unit.
type WorkoutProgram struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`

	PriceCents    int64    `bson:"priceCents" json:"priceCents"`
	OffPercent    float64  `bson:"offPercent" json:"offPercent"`
	Duration      string   `bson:"duration,omitempty" json:"duration,omitempty"`
	DurationWeeks int      `bson:"durationWeeks" json:"durationWeeks"`
	Level         string   `bson:"level,omitempty" json:"level,omitempty"`
	Goal          string   `bson:"goal,omitempty" json:"goal,omitempty"`
	Location      string   `bson:"location,omitempty" json:"location,omitempty"`
	Equipment     []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	VideoKey      string   `bson:"videoKey,omitempty" json:"-"`

	IsActive    bool `bson:"isActive" json:"isActive"`
	IsPublished bool `bson:"isPublished" json:"isPublished"`
	IsPublic    bool `bson:"isPublic" json:"isPublic"`
	IsCustom    bool `bson:"isCustom" json:"isCustom"`
	IsVerified  bool `bson:"isVerified" json:"isVerified"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutSession belongs to at most one program. When a program is deleted its
// sessions are orphaned (ProgramID cleared), not removed.
type WorkoutSession struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProgramID *primitive.ObjectID `bson:"programId,omitempty" json:"programId,omitempty"`
	CreatedBy primitive.ObjectID  `bson:"createdBy" json:"createdBy"`

	Title       string   `bson:"title" json:"title"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
	WeekNumber  int      `bson:"weekNumber" json:"weekNumber"`
	SessionType string   `bson:"sessionType,omitempty" json:"sessionType,omitempty"`
	Duration    int      `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Intensity   string   `bson:"intensity,omitempty" json:"intensity,omitempty"`
	Location    string   `bson:"location,omitempty" json:"location,omitempty"`
	Equipments  []string `bson:"equipments,omitempty" json:"equipments,omitempty"`

	IsPublic  bool `bson:"isPublic" json:"isPublic"`
	IsRestDay bool `bson:"isRestDay" json:"isRestDay"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise joins a session to a library exercise with the execution
// parameters for that session.
type WorkoutExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`

	Sets     int    `bson:"sets" json:"sets"`
	Reps     int    `bson:"reps" json:"reps"`
	Duration int    `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	RestTime int    `bson:"restTime,omitempty" json:"restTime,omitempty"` // seconds
	Tempo    string `bson:"tempo,omitempty" json:"tempo,omitempty"`
	Seq      int    `bson:"seq" json:"seq"` // insertion order within the session

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
