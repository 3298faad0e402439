package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/user"
)

type assignmentApi struct {
	deps     ServerDeps
	classApi classApi
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{deps: deps, classApi: classApi{deps: deps}}

	cg := g.Group("/classes/:id/assignments", jwt)
	cg.POST("", api.create, roleGuard(user.RoleTeacher))
	cg.GET("", api.queryByClass)

	ag := g.Group("/assignments/:id", jwt)
	ag.GET("", api.retrieve)
	ag.DELETE("", api.destroy, roleGuard(user.RoleTeacher))
	ag.POST("/submissions", api.submit, roleGuard(user.RoleStudent))
	ag.GET("/submissions", api.querySubmissions, roleGuard(user.RoleTeacher))
	ag.GET("/submissions/me", api.mySubmission, roleGuard(user.RoleStudent))

	g.PUT("/submissions/:id/grade", api.grade, jwt, roleGuard(user.RoleTeacher))

	g.GET("/dashboard", api.dashboard, jwt, roleGuard(user.RoleStudent))
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	cls, err := api.classApi.getAccessibleClass(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	a, err := api.deps.AssignmentSvc.Create(ctx.Request().Context(), cls.ID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) queryByClass(ctx echo.Context) error {
	cls, err := api.classApi.getAccessibleClass(ctx)
	if err != nil {
		return err
	}

	assignments, err := api.deps.AssignmentSvc.QueryByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, _, err := api.getAccessibleAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	a, cls, err := api.getAccessibleAssignment(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	if err = api.deps.AssignmentSvc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	a, _, err := api.getAccessibleAssignment(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data assignment.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	sub, err := api.deps.AssignmentSvc.Submit(ctx.Request().Context(), a.ID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) querySubmissions(ctx echo.Context) error {
	a, cls, err := api.getAccessibleAssignment(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}
	reqCtx := ctx.Request().Context()

	subs, err := api.deps.AssignmentSvc.QuerySubmissions(reqCtx, a.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	members, err := api.deps.ClassSvc.ListMembers(reqCtx, cls.ID)
	if err != nil {
		return errors.Wrap(err, "listing members")
	}
	if subs == nil {
		subs = []assignment.StudentSubmission{}
	}

	return ctx.JSON(http.StatusOK, SubmissionsResponse{
		Submissions: subs,
		Stats:       assignment.DeriveStats(subs, len(members)),
	})
}

func (api *assignmentApi) mySubmission(ctx echo.Context) error {
	a, _, err := api.getAccessibleAssignment(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.deps.AssignmentSvc.GetStudentSubmission(ctx.Request().Context(), a.ID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	sub, err := api.deps.AssignmentSvc.GetSubmission(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	a, err := api.deps.AssignmentSvc.GetByID(reqCtx, sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	cls, err := api.deps.ClassSvc.GetByID(reqCtx, a.ClassID)
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	if cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	var data assignment.Grade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err = data.Validate(api.deps.Validate, a.MaxScore); err != nil {
		return err
	}

	sub, err = api.deps.AssignmentSvc.GradeSubmission(reqCtx, sub, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

// dashboard assembles the student's landing view: enrolled classes and every
// assignment in them with its derived bucket/badge.
func (api *assignmentApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	classes, err := api.deps.ClassSvc.QueryByStudent(reqCtx, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	classIDs := make([]string, 0, len(classes))
	for _, cls := range classes {
		classIDs = append(classIDs, cls.ID)
	}

	assignments, err := api.deps.AssignmentSvc.QueryByClasses(reqCtx, classIDs)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	assignmentIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}

	subs, err := api.deps.AssignmentSvc.QueryStudentSubmissions(reqCtx, claims.Subject, assignmentIDs)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	subByAssignment := make(map[string]assignment.Submission, len(subs))
	for _, sub := range subs {
		subByAssignment[sub.AssignmentID] = sub
	}

	now := time.Now().UTC()
	entries := make([]DashboardAssignment, 0, len(assignments))
	for _, a := range assignments {
		entry := DashboardAssignment{Assignment: a}
		if sub, ok := subByAssignment[a.ID]; ok {
			s := sub
			entry.Submission = &s
			entry.View = assignment.DeriveView(a, &s, now)
		} else {
			entry.View = assignment.DeriveView(a, nil, now)
		}
		entries = append(entries, entry)
	}
	if classes == nil {
		classes = []classroom.Class{}
	}

	return ctx.JSON(http.StatusOK, DashboardResponse{
		Classes:     classes,
		Assignments: entries,
	})
}

// getAccessibleAssignment loads the assignment at :id and enforces the same
// visibility as its class.
func (api *assignmentApi) getAccessibleAssignment(ctx echo.Context) (assignment.Assignment, classroom.Class, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	a, err := api.deps.AssignmentSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "finding assignment by ID")
	}
	cls, err := api.deps.ClassSvc.GetByID(reqCtx, a.ClassID)
	if err != nil {
		return assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "finding class by ID")
	}

	if claims.IsAdmin || cls.TeacherID == claims.Subject {
		return a, cls, nil
	}
	isMember, err := api.deps.ClassSvc.IsMember(reqCtx, cls.ID, claims.Subject)
	if err != nil {
		return assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "checking membership")
	}
	if !isMember {
		return assignment.Assignment{}, classroom.Class{}, errHttpNotFound
	}
	return a, cls, nil
}

type (
	SubmissionsResponse struct {
		Submissions []assignment.StudentSubmission `json:"submissions"`
		Stats       assignment.Stats               `json:"stats"`
	}

	DashboardAssignment struct {
		Assignment assignment.Assignment  `json:"assignment"`
		Submission *assignment.Submission `json:"submission,omitempty"`
		View       assignment.View        `json:"view"`
	}

	DashboardResponse struct {
		Classes     []classroom.Class     `json:"classes"`
		Assignments []DashboardAssignment `json:"assignments"`
	}
)
