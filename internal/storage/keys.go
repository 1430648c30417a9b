package storage

import (
	"fmt"
	"path"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Object key builders. Filenames are replaced with a UUID so uploads can
// never collide or leak the client's original name; the extension is kept
// for content-type sniffing on delivery.

// ExerciseVideoKey builds the object key for an exercise demo video.
func ExerciseVideoKey(userID, exerciseID primitive.ObjectID, filename string) string {
	return fmt.Sprintf("users/%s/exercises/%s/videos/%s", userID.Hex(), exerciseID.Hex(), uniqueName(filename))
}

// ProgramVideoKey builds the object key for a workout program intro video.
func ProgramVideoKey(userID, programID primitive.ObjectID, filename string) string {
	return fmt.Sprintf("users/%s/workout/programs/%s/videos/%s", userID.Hex(), programID.Hex(), uniqueName(filename))
}

// ProfilePhotoKey builds the object key for a user profile photo.
func ProfilePhotoKey(userID primitive.ObjectID, filename string) string {
	return fmt.Sprintf("users/%s/profile/%s", userID.Hex(), uniqueName(filename))
}

func uniqueName(filename string) string {
	return uuid.NewString() + path.Ext(filename)
}
