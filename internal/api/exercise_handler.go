package api

import (
	"fmt"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name         string   `json:"name" binding:"required"`
	Instructions []string `json:"instructions"`
	MuscleGroups []string `json:"muscleGroups"`
	Level        string   `json:"level"`
	Intensity    string   `json:"intensity"`
	IsPublic     bool     `json:"isPublic"`
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ExerciseResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Instructions []string  `json:"instructions,omitempty"`
	MuscleGroups []string  `json:"muscleGroups,omitempty"`
	Level        string    `json:"level,omitempty"`
	Intensity    string    `json:"intensity,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	IsPublic     bool      `json:"isPublic"`
	HasVideo     bool      `json:"hasVideo"`
	CreatedAt    time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// Create godoc
// @Summary Add an exercise to the library
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} Envelope{data=ExerciseResponse}
// @Router /exercises [post]
func (h *ExerciseHandler) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.Create(c.Request.Context(), userID, exerciseInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "exercise created", MapExerciseToResponse(exercise))
}

// Get godoc
// @Summary Get one exercise
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} Envelope{data=ExerciseResponse}
// @Failure 404 {object} Envelope
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) Get(c *gin.Context) {
	userID, exerciseID, ok := h.ids(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.Get(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "exercise", MapExerciseToResponse(exercise))
}

// List godoc
// @Summary List exercises visible to the caller
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param muscle_group query string false "Filter by muscle group"
// @Param level query string false "Filter by level"
// @Param search query string false "Name search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /exercises [get]
func (h *ExerciseHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	page := pageFromQuery(c)
	filter := service.ExerciseListFilter{
		MuscleGroup: c.Query("muscle_group"),
		Level:       c.Query("level"),
		Search:      c.Query("search"),
	}

	exercises, total, err := h.exerciseService.List(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]ExerciseResponse, 0, len(exercises))
	for i := range exercises {
		results = append(results, MapExerciseToResponse(&exercises[i]))
	}
	respond(c, http.StatusOK, "exercises", paginate(c, page, total, results))
}

// Update godoc
// @Summary Update an owned exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 200 {object} Envelope{data=ExerciseResponse}
// @Failure 403 {object} Envelope "Not the owner"
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) Update(c *gin.Context) {
	userID, exerciseID, ok := h.ids(c)
	if !ok {
		return
	}

	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.Update(c.Request.Context(), userID, exerciseID, exerciseInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "exercise updated", MapExerciseToResponse(exercise))
}

// Delete godoc
// @Summary Delete an owned exercise
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} Envelope
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) Delete(c *gin.Context) {
	userID, exerciseID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.exerciseService.Delete(c.Request.Context(), userID, exerciseID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "exercise deleted", nil)
}

// VideoUploadURL godoc
// @Summary Get a presigned upload URL for the exercise video
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param upload body UploadURLRequest true "Upload details"
// @Success 200 {object} Envelope{data=UploadURLResponse}
// @Router /exercises/{id}/video/upload-url [post]
func (h *ExerciseHandler) VideoUploadURL(c *gin.Context) {
	userID, exerciseID, ok := h.ids(c)
	if !ok {
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, objectKey, err := h.exerciseService.VideoUploadURL(c.Request.Context(), userID, exerciseID, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "upload url", UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// VideoDownloadURL godoc
// @Summary Get a presigned download URL for the exercise video
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope "No video"
// @Router /exercises/{id}/video [get]
func (h *ExerciseHandler) VideoDownloadURL(c *gin.Context) {
	userID, exerciseID, ok := h.ids(c)
	if !ok {
		return
	}

	url, err := h.exerciseService.VideoDownloadURL(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "download url", gin.H{"url": url})
}

func (h *ExerciseHandler) ids(c *gin.Context) (userID, exerciseID primitive.ObjectID, ok bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return userID, exerciseID, false
	}
	exerciseID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return userID, exerciseID, false
	}
	return userID, exerciseID, true
}

func exerciseInput(req ExerciseRequest) service.ExerciseInput {
	return service.ExerciseInput{
		Name:         req.Name,
		Instructions: req.Instructions,
		MuscleGroups: req.MuscleGroups,
		Level:        req.Level,
		Intensity:    req.Intensity,
		IsPublic:     req.IsPublic,
	}
}

// MapExerciseToResponse converts a domain Exercise to its DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:           exercise.ID.Hex(),
		Name:         exercise.Name,
		Slug:         exercise.Slug,
		Instructions: exercise.Instructions,
		MuscleGroups: exercise.MuscleGroups,
		Level:        exercise.Level,
		Intensity:    exercise.Intensity,
		CreatedBy:    exercise.CreatedBy.Hex(),
		IsPublic:     exercise.IsPublic,
		HasVideo:     exercise.VideoKey != "",
		CreatedAt:    exercise.CreatedAt,
	}
}
