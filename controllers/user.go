package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-eshop/middleware"
	"go-eshop/models"
	"go-eshop/store"
	"go-eshop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserController handles user-related requests
type UserController struct {
	Users  store.UserStore
	Logger *slog.Logger
}

// NewUserController creates a new UserController
func NewUserController(users store.UserStore, logger *slog.Logger) *UserController {
	return &UserController{Users: users, Logger: logger}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User
	// Decode the request body into user
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input")
		return
	}
	// The store assigns ids; never take one from the client.
	user.ID = primitive.NilObjectID
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || user.Password == "" {
		writeError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Error hashing password")
		return
	}
	user.Password = string(hashedPassword)
	user.Role = models.RoleUser // Default role

	if err := uc.Users.Create(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeError(w, r, http.StatusBadRequest, "User already exists")
			return
		}
		uc.Logger.ErrorContext(r.Context(), "failed to create user", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Error creating user")
		return
	}

	uc.Logger.InfoContext(r.Context(), "user registered", "user_id", user.ID.Hex())
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := uc.Users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			uc.Logger.ErrorContext(r.Context(), "failed to load user", "error", err)
		}
		writeError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	// Compare the hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Error generating token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Could not parse user from context")
		return
	}

	user, err := uc.Users.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}

	// Return the user profile (excluding password)
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}
