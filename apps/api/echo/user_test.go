package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/darasahq/darasa/core/user"
	"github.com/darasahq/darasa/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	naughty := createUser(t, "N Dog", "ndog@test.cd", "PassWord", user.RoleStudent, false)

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", body: marchallObj(t, LoginRequest{Email: "lol@test.cd", Password: "whatever"}),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", body: marchallObj(t, LoginRequest{Email: student.Email, Password: "whatever"}),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "deactivated account", body: marchallObj(t, LoginRequest{Email: naughty.Email, Password: "PassWord"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "email is case-insensitive", body: marchallObj(t, LoginRequest{Email: "HERO@Test.CD", Password: "LocalHero"}),
			wantCode: http.StatusOK,
		},
		{
			name: "logged in", body: marchallObj(t, LoginRequest{Email: student.Email, Password: "LocalHero"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the token; just check shape
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.Role != user.RoleStudent {
					t.Errorf("failed! role = %v; want %v", respData.Role, user.RoleStudent)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	existing := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)

	newUser := func(name, email, pwd, role string) []byte {
		return marchallObj(t, user.NewUser{
			Name: name, Email: email, Password: pwd, PasswordConfirm: pwd, Role: role,
		})
	}

	tests := []httpTest{
		{
			name: "admin role not self-assignable", body: newUser("Sneaky", "sneaky@test.cd", "Sup3rS3cret", user.RoleAdmin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "role must be one of: student, teacher"}),
		},
		{
			name: "password too short", body: newUser("Shorty", "shorty@test.cd", "lol", user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"password": "password must contain at least 6 characters"}),
		},
		{
			name: "duplicate email", body: newUser("Copy Cat", existing.Email, "Sup3rS3cret", user.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{name: "student registered", body: newUser("Jane Doe", "jane@test.cd", "Sup3rS3cret", user.RoleStudent), wantCode: http.StatusCreated},
		{name: "teacher registered", body: newUser("John Doe", "john@test.cd", "Sup3rS3cret", user.RoleTeacher), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ID == "" {
					t.Error("failed! empty user ID")
				}
				if respData.IsActive == nil || !*respData.IsActive {
					t.Error("failed! new account not active")
				}
				if len(emailsvc.SentMessages) != 1 {
					t.Errorf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDetail(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	naughty := createUser(t, "N Dog", "ndog@test.cd", "PassWord", user.RoleStudent, false)

	now := time.Now()
	unrefreshableClaims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    testConf.AppName,
			Subject:   student.ID,
			Audience:  "Classroom",
			ExpiresAt: now.Add(testConf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * testConf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Role:         student.Role,
		IsStudent:    student.IsStudent(),
	}
	unrefreshableToken, err := GenerateToken(unrefreshableClaims, testConf)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_nav(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)
	admin := createUser(t, "Admin", "admin@test.cd", "PassWord", user.RoleAdmin, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student portal", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, NavResponse{Home: "/student/dashboard", Menu: navMenu(user.RoleStudent)}),
		},
		{
			name: "teacher portal", token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, NavResponse{Home: "/teacher/dashboard", Menu: navMenu(user.RoleTeacher)}),
		},
		{
			name: "admin portal", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, NavResponse{Home: "/admin/dashboard", Menu: navMenu(user.RoleAdmin)}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/me/nav"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_uploadAvatar(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = fw.Write([]byte("not really a png")); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/users/me/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+getToken(t, student))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var respData user.User
	if err = json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	wantPrefix := "https://storage.local/file/" + testConf.Storage.AvatarBucket + "/" + student.ID + "/"
	if !respData.AvatarURL.Valid || !strings.HasPrefix(respData.AvatarURL.String, wantPrefix) {
		t.Errorf("failed! avatar_url = %v; want prefix %q", respData.AvatarURL, wantPrefix)
	}
	if !strings.HasSuffix(respData.AvatarURL.String, ".png") {
		t.Errorf("failed! avatar_url = %v; want .png suffix", respData.AvatarURL)
	}

	t.Run("file required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/me/avatar", getToken(t, student))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"avatar": "avatar file is required"}),
		}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_adminOnly(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "PassWord", user.RoleAdmin, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, admin, student),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// an update response carries the stored row: columns the request did not
// touch keep their values.
func Test_userApi_adminUpdate(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "PassWord", user.RoleAdmin, true)

	body := marchallObj(t, map[string]string{"name": "Zero Cool"})
	req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+student.ID, getToken(t, admin), body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var got user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal(): %v", err)
	}
	if got.Name != "Zero Cool" {
		t.Errorf("Name = %q; want %q", got.Name, "Zero Cool")
	}
	if got.Email != student.Email {
		t.Errorf("Email = %q; want %q", got.Email, student.Email)
	}
	if got.Role != student.Role {
		t.Errorf("Role = %q; want %q", got.Role, student.Role)
	}
	if !got.CreatedAt.Equal(student.CreatedAt) {
		t.Errorf("CreatedAt = %v; want %v", got.CreatedAt, student.CreatedAt)
	}
}

// role guards redirect a mismatched role to its own portal instead of
// failing hard.
func Test_roleGuard_redirect(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Hero", "hero@test.cd", "LocalHero", user.RoleStudent, true)
	teacher := createUser(t, "Teacher", "teacher@test.cd", "PassWord", user.RoleTeacher, true)

	tests := []struct {
		name         string
		method, path string
		token        string
		wantLocation string
	}{
		{name: "student on teacher route", method: http.MethodPost, path: "/v1/classes", token: getToken(t, student), wantLocation: "/student/dashboard"},
		{name: "teacher on student route", method: http.MethodPost, path: "/v1/classes/join", token: getToken(t, teacher), wantLocation: "/teacher/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)

			if rec.Code != http.StatusSeeOther {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusSeeOther)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("failed! Location = %v; want %v", loc, tt.wantLocation)
			}
		})
	}
}
