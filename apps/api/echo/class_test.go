package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/user"
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func createClass(t *testing.T, teacher user.User, name string) classroom.Class {
	t.Helper()
	cls, err := classSvc.Create(context.Background(), teacher.ID, classroom.NewClass{Name: name})
	if err != nil {
		t.Fatalf("classSvc.Create(): %v", err)
	}
	return cls
}

func joinClass(t *testing.T, cls classroom.Class, student user.User) {
	t.Helper()
	if _, err := classSvc.Join(context.Background(), cls.Code, student.ID); err != nil {
		t.Fatalf("classSvc.Join(): %v", err)
	}
}

func Test_classApi_create(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "name required", token: teacherToken, body: marchallObj(t, classroom.NewClass{Section: "A"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{name: "class created", token: teacherToken, body: marchallObj(t, classroom.NewClass{Name: "Algebra I", Section: "A"}), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/classes"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData classroom.Class
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.TeacherID != teacher.ID {
					t.Errorf("failed! teacher_id = %v; want %v", respData.TeacherID, teacher.ID)
				}
				// the join code is generated server-side
				if !codeRegex.MatchString(respData.Code) {
					t.Errorf("failed! code = %q; want 6 uppercase alphanumeric characters", respData.Code)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_join(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	cls := createClass(t, teacher, "History")
	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "malformed code", token: studentToken, body: marchallObj(t, classroom.JoinRequest{Code: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"code": "code must be 6 characters in length"}),
		},
		{
			name: "unknown code", token: studentToken, body: marchallObj(t, classroom.JoinRequest{Code: "NOPE00"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "joined with lowercase code", token: studentToken, body: marchallObj(t, classroom.JoinRequest{Code: strings.ToLower(cls.Code)}),
			wantCode: http.StatusOK, wantData: marchallObj(t, cls),
		},
		{
			name: "joining twice conflicts", token: studentToken, body: marchallObj(t, classroom.JoinRequest{Code: cls.Code}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "student is already a member of this class"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/classes/join"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the duplicate join attempt must not have produced a second membership
	members, err := classSvc.ListMembers(context.Background(), cls.ID)
	if err != nil {
		t.Fatalf("ListMembers(): %v", err)
	}
	if len(members) != 1 {
		t.Errorf("failed! len(members) = %d; want 1", len(members))
	}
}

func Test_classApi_query(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	other := createUser(t, "Other", "other@test.cd", "PassWord", user.RoleTeacher, true)
	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "PassWord", user.RoleAdmin, true)

	cls1 := createClass(t, teacher, "Algebra I")
	cls2 := createClass(t, teacher, "Algebra II")
	cls3 := createClass(t, other, "History")
	joinClass(t, cls1, student)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teachers see their own classes", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, cls2, cls1)},
		{name: "students see joined classes", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallList(t, cls1)},
		{name: "admins see everything", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, cls3, cls2, cls1)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/classes"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_retrieve(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	member := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	outsider := createUser(t, "Out Sider", "out@test.cd", "PassWord", user.RoleStudent, true)
	cls := createClass(t, teacher, "Biology")
	joinClass(t, cls, member)

	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "owning teacher", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, cls)},
		{name: "enrolled student", token: getToken(t, member), wantCode: http.StatusOK, wantData: marchallObj(t, cls)},
		// existence leaks nothing: outsiders get a 404, not a 403
		{name: "outsider", token: getToken(t, outsider), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/classes/" + cls.ID

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_leave(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	cls := createClass(t, teacher, "Chemistry")
	joinClass(t, cls, student)
	studentToken := getToken(t, student)

	path := fmt.Sprintf("/v1/classes/%s/membership", cls.ID)

	t.Run("left class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("leaving twice is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_classApi_members(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	jane := createUser(t, "Jane Doe", "jane@test.cd", "PassWord", user.RoleStudent, true)
	john := createUser(t, "John Doe", "john@test.cd", "PassWord", user.RoleStudent, true)
	cls := createClass(t, teacher, "Physics")
	joinClass(t, cls, john)
	joinClass(t, cls, jane)

	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/classes/%s/members", cls.ID), getToken(t, teacher))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var members []classroom.Member
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("failed! len(members) = %d; want 2", len(members))
	}
	// the student profile rides along, sorted by name
	if members[0].StudentName != "Jane Doe" || members[0].StudentEmail != "jane@test.cd" {
		t.Errorf("failed! members[0] = %v/%v; want Jane Doe/jane@test.cd", members[0].StudentName, members[0].StudentEmail)
	}
}

func Test_classApi_announcements(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	other := createUser(t, "Other", "other@test.cd", "PassWord", user.RoleTeacher, true)
	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	cls := createClass(t, teacher, "Geography")
	createClass(t, other, "Decoy") // other teacher's class; not accessible below
	joinClass(t, cls, student)

	body := marchallObj(t, classroom.NewAnnouncement{Title: "Exam moved", Message: "The midterm is now on Friday."})
	path := fmt.Sprintf("/v1/classes/%s/announcements", cls.ID)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "non-owner cannot post", method: http.MethodPost, token: getToken(t, other), body: body,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "posted", method: http.MethodPost, token: getToken(t, teacher), body: body, wantCode: http.StatusCreated},
		{name: "students can read", method: http.MethodGet, token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.wantCode {
			case http.StatusCreated:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData classroom.Announcement
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.CreatedBy != teacher.ID {
					t.Errorf("failed! created_by = %v; want %v", respData.CreatedBy, teacher.ID)
				}
			case http.StatusOK:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData []classroom.Announcement
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if len(respData) != 1 {
					t.Errorf("failed! len(announcements) = %d; want 1", len(respData))
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}
