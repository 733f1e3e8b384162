package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

const profilePath = "profile/"

func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.Do(ctx, Request{Path: profilePath}, &user); err != nil {
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// ProfileUpdate holds the writable profile fields. Empty fields are left alone.
type ProfileUpdate struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (domain.User, error) {
	var user domain.User
	if err := c.Do(ctx, Request{Method: http.MethodPatch, Path: profilePath, Body: update}, &user); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (c *Client) Register(ctx context.Context, registration domain.Registration) (domain.User, error) {
	var user domain.User
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "register/", Body: registration, Anonymous: true}, &user)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// ListUsers lists users, restricted to role when it is not empty.
func (c *Client) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var query url.Values
	if role != "" {
		query = url.Values{"role": []string{string(role)}}
	}

	users, err := listAll[domain.User](ctx, c, "users/", query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (c *Client) ListColleges(ctx context.Context) ([]domain.College, error) {
	colleges, err := listAll[domain.College](ctx, c, "colleges/", nil)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return colleges, nil
}

func (c *Client) ListCourseUnits(ctx context.Context) ([]domain.CourseUnit, error) {
	units, err := listAll[domain.CourseUnit](ctx, c, "course-units/", nil)
	if err != nil {
		return nil, fmt.Errorf("list course units: %w", err)
	}
	return units, nil
}
