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

// ProgramHandler holds the program service dependency.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- Request/Response Structs ---

type SessionExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Sets       int    `json:"sets"`
	Reps       int    `json:"reps"`
	Duration   int    `json:"duration"`
	RestTime   int    `json:"restTime"`
	Tempo      string `json:"tempo"`
}

type SessionRequest struct {
	Title       string                   `json:"title" binding:"required"`
	Notes       string                   `json:"notes"`
	WeekNumber  int                      `json:"weekNumber" binding:"min=0"`
	SessionType string                   `json:"sessionType"`
	Duration    int                      `json:"duration"`
	Intensity   string                   `json:"intensity"`
	Location    string                   `json:"location"`
	Equipments  []string                 `json:"equipments"`
	IsRestDay   bool                     `json:"isRestDay"`
	Exercises   []SessionExerciseRequest `json:"exercises"`
}

type CreateProgramRequest struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	PriceCents    int64            `json:"priceCents" binding:"min=0"`
	OffPercent    float64          `json:"offPercent"`
	DurationWeeks int              `json:"durationWeeks"`
	Level         string           `json:"level"`
	Goal          string           `json:"goal"`
	Location      string           `json:"location"`
	Equipment     []string         `json:"equipment"`
	IsPublic      bool             `json:"isPublic"`
	Sessions      []SessionRequest `json:"sessions"`
}

// UpdateProgramRequest distinguishes an absent sessions key (leave the tree
// alone) from an empty list (remove every session).
type UpdateProgramRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	PriceCents    int64             `json:"priceCents" binding:"min=0"`
	OffPercent    float64           `json:"offPercent"`
	DurationWeeks int               `json:"durationWeeks"`
	Level         string            `json:"level"`
	Goal          string            `json:"goal"`
	Location      string            `json:"location"`
	Equipment     []string          `json:"equipment"`
	IsPublic      bool              `json:"isPublic"`
	Sessions      *[]SessionRequest `json:"sessions"`
}

type WorkoutExerciseResponse struct {
	ID         string `json:"id"`
	ExerciseID string `json:"exerciseId"`
	Sets       int    `json:"sets,omitempty"`
	Reps       int    `json:"reps,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	RestTime   int    `json:"restTime,omitempty"`
	Tempo      string `json:"tempo,omitempty"`
}

type SessionResponse struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Notes       string                    `json:"notes,omitempty"`
	WeekNumber  int                       `json:"weekNumber"`
	SessionType string                    `json:"sessionType,omitempty"`
	Duration    int                       `json:"duration,omitempty"`
	Intensity   string                    `json:"intensity,omitempty"`
	IsRestDay   bool                      `json:"isRestDay"`
	Exercises   []WorkoutExerciseResponse `json:"exercises"`
}

type ProgramResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	PriceCents    int64             `json:"priceCents"`
	OffPercent    float64           `json:"offPercent,omitempty"`
	DurationWeeks int               `json:"durationWeeks,omitempty"`
	Level         string            `json:"level,omitempty"`
	Goal          string            `json:"goal,omitempty"`
	IsActive      bool              `json:"isActive"`
	IsPublic      bool              `json:"isPublic"`
	IsPublished   bool              `json:"isPublished"`
	CreatedAt     time.Time         `json:"createdAt"`
	Sessions      []SessionResponse `json:"sessions,omitempty"`
}

// --- Handler Methods ---

// Create godoc
// @Summary Create a program with its full session tree
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body CreateProgramRequest true "Program details"
// @Success 201 {object} Envelope{data=ProgramResponse}
// @Failure 404 {object} Envelope "Referenced exercise missing"
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sessions, err := mapSessionRequests(req.Sessions)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.programService.CreateWithSessions(c.Request.Context(), userID, service.ProgramInput{
		Title:         req.Title,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		OffPercent:    req.OffPercent,
		DurationWeeks: req.DurationWeeks,
		Level:         req.Level,
		Goal:          req.Goal,
		Location:      req.Location,
		Equipment:     req.Equipment,
		IsPublic:      req.IsPublic,
		Sessions:      sessions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "program created", MapProgramDetailToResponse(detail))
}

// Get godoc
// @Summary Get one program with its sessions
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} Envelope{data=ProgramResponse}
// @Failure 404 {object} Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	detail, err := h.programService.Get(c.Request.Context(), userID, programID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "program", MapProgramDetailToResponse(detail))
}

// List godoc
// @Summary List programs visible to the caller
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param level query string false "Filter by level"
// @Param goal query string false "Filter by goal"
// @Param search query string false "Title search"
// @Param mine query bool false "Only own programs, drafts included"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	page := pageFromQuery(c)
	filter := service.ProgramListFilter{
		Level:  c.Query("level"),
		Goal:   c.Query("goal"),
		Search: c.Query("search"),
		Mine:   c.Query("mine") == "true",
	}

	programs, total, err := h.programService.List(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]ProgramResponse, 0, len(programs))
	for i := range programs {
		results = append(results, MapProgramToResponse(&programs[i]))
	}
	respond(c, http.StatusOK, "programs", paginate(c, page, total, results))
}

// Update godoc
// @Summary Update an owned program, optionally replacing its session tree
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param program body UpdateProgramRequest true "Program fields"
// @Success 200 {object} Envelope{data=ProgramResponse}
// @Failure 403 {object} Envelope "Not the owner"
// @Router /programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	update := service.ProgramUpdate{
		Title:         req.Title,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		OffPercent:    req.OffPercent,
		DurationWeeks: req.DurationWeeks,
		Level:         req.Level,
		Goal:          req.Goal,
		Location:      req.Location,
		Equipment:     req.Equipment,
		IsPublic:      req.IsPublic,
	}
	if req.Sessions != nil {
		sessions, err := mapSessionRequests(*req.Sessions)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		update.Sessions = &sessions
	}

	detail, err := h.programService.UpdateWithSessions(c.Request.Context(), userID, programID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "program updated", MapProgramDetailToResponse(detail))
}

// Clone godoc
// @Summary Clone a program into a private draft
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 201 {object} Envelope{data=ProgramResponse}
// @Router /programs/{id}/clone [post]
func (h *ProgramHandler) Clone(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	detail, err := h.programService.Clone(c.Request.Context(), userID, programID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "program cloned", MapProgramDetailToResponse(detail))
}

// Delete godoc
// @Summary Delete an owned program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} Envelope
// @Router /programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.programService.Delete(c.Request.Context(), userID, programID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "program deleted", nil)
}

// Publish godoc
// @Summary Publish an owned program to the public catalog
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} Envelope{data=ProgramResponse}
// @Router /programs/{id}/publish [post]
func (h *ProgramHandler) Publish(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	program, err := h.programService.Publish(c.Request.Context(), userID, programID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "program published", MapProgramToResponse(program))
}

// VideoUploadURL godoc
// @Summary Get a presigned upload URL for the program intro video
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param upload body UploadURLRequest true "Upload details"
// @Success 200 {object} Envelope{data=UploadURLResponse}
// @Router /programs/{id}/video/upload-url [post]
func (h *ProgramHandler) VideoUploadURL(c *gin.Context) {
	userID, programID, ok := h.ids(c)
	if !ok {
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	uploadURL, objectKey, err := h.programService.VideoUploadURL(c.Request.Context(), userID, programID, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "upload url", UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

func (h *ProgramHandler) ids(c *gin.Context) (userID, programID primitive.ObjectID, ok bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return userID, programID, false
	}
	programID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format")
		return userID, programID, false
	}
	return userID, programID, true
}

func mapSessionRequests(reqs []SessionRequest) ([]service.SessionInput, error) {
	sessions := make([]service.SessionInput, 0, len(reqs))
	for _, sr := range reqs {
		session := service.SessionInput{
			Title:       sr.Title,
			Notes:       sr.Notes,
			WeekNumber:  sr.WeekNumber,
			SessionType: sr.SessionType,
			Duration:    sr.Duration,
			Intensity:   sr.Intensity,
			Location:    sr.Location,
			Equipments:  sr.Equipments,
			IsRestDay:   sr.IsRestDay,
		}
		for _, er := range sr.Exercises {
			exerciseID, err := primitive.ObjectIDFromHex(er.ExerciseID)
			if err != nil {
				return nil, fmt.Errorf("invalid exercise ID %q", er.ExerciseID)
			}
			session.Exercises = append(session.Exercises, service.SessionExerciseInput{
				ExerciseID: exerciseID,
				Sets:       er.Sets,
				Reps:       er.Reps,
				Duration:   er.Duration,
				RestTime:   er.RestTime,
				Tempo:      er.Tempo,
			})
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// MapProgramToResponse converts a domain WorkoutProgram to its DTO.
func MapProgramToResponse(program *domain.WorkoutProgram) ProgramResponse {
	return ProgramResponse{
		ID:            program.ID.Hex(),
		Title:         program.Title,
		Slug:          program.Slug,
		Description:   program.Description,
		CreatedBy:     program.CreatedBy.Hex(),
		PriceCents:    program.PriceCents,
		OffPercent:    program.OffPercent,
		DurationWeeks: program.DurationWeeks,
		Level:         program.Level,
		Goal:          program.Goal,
		IsActive:      program.IsActive,
		IsPublic:      program.IsPublic,
		IsPublished:   program.IsPublished,
		CreatedAt:     program.CreatedAt,
	}
}

// MapProgramDetailToResponse converts a program with its session tree.
func MapProgramDetailToResponse(detail *service.ProgramDetail) ProgramResponse {
	resp := MapProgramToResponse(&detail.Program)
	for _, sd := range detail.Sessions {
		session := SessionResponse{
			ID:          sd.Session.ID.Hex(),
			Title:       sd.Session.Title,
			Notes:       sd.Session.Notes,
			WeekNumber:  sd.Session.WeekNumber,
			SessionType: sd.Session.SessionType,
			Duration:    sd.Session.Duration,
			Intensity:   sd.Session.Intensity,
			IsRestDay:   sd.Session.IsRestDay,
			Exercises:   make([]WorkoutExerciseResponse, 0, len(sd.Exercises)),
		}
		for _, row := range sd.Exercises {
			session.Exercises = append(session.Exercises, WorkoutExerciseResponse{
				ID:         row.ID.Hex(),
				ExerciseID: row.ExerciseID.Hex(),
				Sets:       row.Sets,
				Reps:       row.Reps,
				Duration:   row.Duration,
				RestTime:   row.RestTime,
				Tempo:      row.Tempo,
			})
		}
		resp.Sessions = append(resp.Sessions, session)
	}
	return resp
}
