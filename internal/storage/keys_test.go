package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestExerciseVideoKey(t *testing.T) {
	userID := primitive.NewObjectID()
	exerciseID := primitive.NewObjectID()

	key := ExerciseVideoKey(userID, exerciseID, "My Demo Video.mp4")

	prefix := "users/" + userID.Hex() + "/exercises/" + exerciseID.Hex() + "/videos/"
	assert.True(t, strings.HasPrefix(key, prefix), "key %q", key)
	assert.True(t, strings.HasSuffix(key, ".mp4"))
	// Original name must not survive into the key.
	assert.NotContains(t, key, "My Demo Video")

	again := ExerciseVideoKey(userID, exerciseID, "My Demo Video.mp4")
	assert.NotEqual(t, key, again)
}

func TestProgramVideoKey(t *testing.T) {
	userID := primitive.NewObjectID()
	programID := primitive.NewObjectID()

	key := ProgramVideoKey(userID, programID, "intro.mov")
	assert.True(t, strings.HasPrefix(key, "users/"+userID.Hex()+"/workout/programs/"+programID.Hex()+"/videos/"))
	assert.True(t, strings.HasSuffix(key, ".mov"))
}

func TestKeyWithoutExtension(t *testing.T) {
	key := ProfilePhotoKey(primitive.NewObjectID(), "avatar")
	assert.False(t, strings.Contains(key, "."), "key %q should have no extension", key)
}
