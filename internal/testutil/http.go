package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID             string
	Name           string
	Email          string
	Role           models.Role
	Chapters       []string
	OrganiserOf    []string
	ManagedCountry string
}

// GlobalAdminUser returns a TestUser with the Global Admin role.
func GlobalAdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  models.RoleGlobalAdmin,
	}
}

// OrganiserUser returns a TestUser organising the given chapters.
func OrganiserUser(chapters ...string) TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test Organiser",
		Email:       "organiser@test.com",
		Role:        models.RoleChapterOrganiser,
		Chapters:    chapters,
		OrganiserOf: chapters,
	}
}

// RegionalUser returns a TestUser managing the given country.
func RegionalUser(country string) TestUser {
	return TestUser{
		ID:             primitive.NewObjectID().Hex(),
		Name:           "Test Regional",
		Email:          "regional@test.com",
		Role:           models.RoleRegionalOrganiser,
		ManagedCountry: country,
	}
}

// ActivistUser returns a TestUser in the given chapters.
func ActivistUser(chapters ...string) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Activist",
		Email:    "activist@test.com",
		Role:     models.RoleActivist,
		Chapters: chapters,
	}
}

// FromModel builds a TestUser from a fixture user so handler tests can act
// as a user that exists in the test database.
func FromModel(u models.User) TestUser {
	tu := TestUser{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Chapters:    u.Chapters,
		OrganiserOf: u.OrganiserOf,
	}
	if u.ManagedCountry != nil {
		tu.ManagedCountry = *u.ManagedCountry
	}
	return tu
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           string(user.Role),
		Chapters:       user.Chapters,
		OrganiserOf:    user.OrganiserOf,
		ManagedCountry: user.ManagedCountry,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// NewAuthenticatedJSONRequest creates a JSON request with a user in context.
func NewAuthenticatedJSONRequest(method, target, body string, user TestUser) *http.Request {
	req := NewJSONRequest(method, target, body)
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// ReadBody reads the entire response body as a string.
func ReadBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return string(b)
}
