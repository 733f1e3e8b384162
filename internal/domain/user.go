package domain

import (
	"bytes"
	"encoding/json"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleLecturer  Role = "lecturer"
	RoleRegistrar Role = "registrar"
)

type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Role          Role   `json:"role,omitempty"`
	College       string `json:"college,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
}

func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

type College struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// UnmarshalJSON accepts either a college object or a bare college name.
func (c *College) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*c = College{Name: name}
		return nil
	}

	type plain College
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = College(decoded)
	return nil
}

type CourseUnit struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	Lecturer *int64 `json:"lecturer,omitempty"`
}

type Notification struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	Issue     *int64 `json:"issue,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Registration is the payload of POST /register/.
type Registration struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Password2     string `json:"password2"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Role          Role   `json:"role,omitempty"`
	College       string `json:"college,omitempty"`
	StudentNumber string `json:"student_number,omitempty"`
}
