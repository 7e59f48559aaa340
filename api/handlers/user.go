package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/civic-report-api/api"
	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

type registerRequest struct {
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

func (req registerRequest) toUser() (models.User, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", req.FullName},
		{"email", req.Email},
		{"username", req.Username},
		{"password", req.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return models.User{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	role := req.Role
	if role == "" {
		role = models.RoleCitizen
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("%w: role %q", ErrInvalidField, role)
	}

	return models.User{
		ID:       primitive.NewObjectID(),
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Role:     role,
	}, nil
}

// RegisterHandler creates a new user. Username and email must both be unused.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req registerRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	user, err := req.toUser()
	if err != nil {
		config.ErrorStatus("invalid registration", statusFromError(err), w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// check if the user already exists, the unique indexes catch concurrent inserts
	existingUser, err := u.DB.FindOne(ctx, bson.M{"$or": []bson.M{
		{"username": user.Username},
		{"email": user.Email},
	}})
	if err == nil && existingUser != nil {
		config.ErrorStatus("username or email already exists", http.StatusConflict, w, databases.ErrDuplicateKey)
		return
	}
	if err != nil && !errors.Is(err, databases.ErrNotFound) {
		config.ErrorStatus("registration failed", http.StatusInternalServerError, w, err)
		return
	}

	// hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("registration failed", http.StatusInternalServerError, w, err)
		return
	}
	user.Password = string(hashedPassword)

	if err = u.DB.InsertOne(ctx, user); err != nil {
		if errors.Is(err, databases.ErrDuplicateKey) {
			config.ErrorStatus("username or email already exists", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("registration failed", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User registered successfully",
	})
}

// LoginHandler checks a username and password. An unknown user and a wrong password
// produce the same response.
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	// usernames are stored trimmed at registration
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, ErrInvalidCredentials)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"username": req.Username})
	if errors.Is(err, databases.ErrNotFound) {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, ErrInvalidCredentials)
		return
	}
	if err != nil {
		config.ErrorStatus("login failed", http.StatusInternalServerError, w, err)
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, ErrInvalidCredentials)
		return
	}

	b, err := json.Marshal(LoginResponse{Message: "Login successful", User: *user})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
