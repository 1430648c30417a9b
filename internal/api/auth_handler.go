package api

import (
	"fmt"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Biography   string `json:"biography"`
}

type BecomeCoachRequest struct {
	Bio               string   `json:"bio"`
	Specialties       []string `json:"specialties"`
	YearsOfExperience int      `json:"yearsOfExperience" binding:"min=0"`
	PriceCents        int64    `json:"priceCents" binding:"min=0"`
}

// UserResponse excludes sensitive info like password hash.
type UserResponse struct {
	ID           string                `json:"id"`
	Email        string                `json:"email"`
	FullName     string                `json:"fullName"`
	PhoneNumber  string                `json:"phoneNumber,omitempty"`
	Biography    string                `json:"biography,omitempty"`
	Capabilities []domain.Capability   `json:"capabilities"`
	CoachProfile *CoachProfileResponse `json:"coachProfile,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

type CoachProfileResponse struct {
	Bio               string   `json:"bio"`
	Specialties       []string `json:"specialties"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	PriceCents        int64    `json:"priceCents"`
	IsVerified        bool     `json:"isVerified"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user
// @Description Creates a new user account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} Envelope{data=UserResponse} "User created successfully"
// @Failure 400 {object} Envelope "Invalid input (validation error)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "user registered", MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} Envelope{data=LoginResponse} "Login successful"
// @Failure 400 {object} Envelope "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "login successful", LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// GetProfile godoc
// @Summary Get own profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=UserResponse}
// @Router /users/me [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "profile", MapUserToResponse(user))
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} Envelope{data=UserResponse}
// @Router /users/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, service.ProfileInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Biography:   req.Biography,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "profile updated", MapUserToResponse(user))
}

// BecomeCoach godoc
// @Summary Upgrade the account with the coach capability
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body BecomeCoachRequest true "Coach profile"
// @Success 200 {object} Envelope{data=UserResponse}
// @Failure 400 {object} Envelope "Already a coach"
// @Router /users/me/coach [post]
func (h *AuthHandler) BecomeCoach(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req BecomeCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.BecomeCoach(c.Request.Context(), userID, domain.CoachProfile{
		Bio:               req.Bio,
		Specialties:       req.Specialties,
		YearsOfExperience: req.YearsOfExperience,
		PriceCents:        req.PriceCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "coach profile created", MapUserToResponse(user))
}

// ListCoaches godoc
// @Summary List the coach directory
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /coaches [get]
func (h *AuthHandler) ListCoaches(c *gin.Context) {
	page := pageFromQuery(c)
	users, total, err := h.authService.ListCoaches(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for i := range users {
		results = append(results, MapUserToResponse(&users[i]))
	}
	respond(c, http.StatusOK, "coaches", paginate(c, page, total, results))
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}

	resp := UserResponse{
		ID:           user.ID.Hex(),
		Email:        user.Email,
		FullName:     user.FullName,
		PhoneNumber:  user.PhoneNumber,
		Biography:    user.Biography,
		Capabilities: user.Capabilities(),
		CreatedAt:    user.CreatedAt,
	}
	if user.CoachProfile != nil {
		resp.CoachProfile = &CoachProfileResponse{
			Bio:               user.CoachProfile.Bio,
			Specialties:       user.CoachProfile.Specialties,
			YearsOfExperience: user.CoachProfile.YearsOfExperience,
			PriceCents:        user.CoachProfile.PriceCents,
			IsVerified:        user.CoachProfile.IsVerified,
		}
	}
	return resp
}
