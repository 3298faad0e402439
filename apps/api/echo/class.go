package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/user"
)

type classApi struct {
	deps ServerDeps
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classApi{deps: deps}

	cg := g.Group("/classes", jwt)

	cg.POST("", api.create, roleGuard(user.RoleTeacher))
	cg.GET("", api.query)
	cg.POST("/join", api.join, roleGuard(user.RoleStudent))

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("/membership", api.leave, roleGuard(user.RoleStudent))
	dg.GET("/members", api.listMembers)
	dg.POST("/announcements", api.announce, roleGuard(user.RoleTeacher))
	dg.GET("/announcements", api.queryAnnouncements)
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data classroom.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.deps.ClassSvc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	var classes []classroom.Class
	switch {
	case claims.IsAdmin:
		classes, err = api.deps.ClassSvc.QueryAll(reqCtx)
	case claims.IsTeacher:
		classes, err = api.deps.ClassSvc.QueryByTeacher(reqCtx, claims.Subject)
	default:
		classes, err = api.deps.ClassSvc.QueryByStudent(reqCtx, claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.getAccessibleClass(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) join(ctx echo.Context) error {
	var data classroom.JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.deps.ClassSvc.Join(ctx.Request().Context(), data.Code, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "joining class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) leave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.deps.ClassSvc.Leave(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return errors.Wrap(err, "leaving class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) listMembers(ctx echo.Context) error {
	if _, err := api.getAccessibleClass(ctx); err != nil {
		return err
	}

	members, err := api.deps.ClassSvc.ListMembers(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing members")
	}
	if members == nil {
		members = []classroom.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *classApi) announce(ctx echo.Context) error {
	cls, err := api.getAccessibleClass(ctx)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// only the owning teacher posts announcements
	if cls.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	var data classroom.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ann, err := api.deps.ClassSvc.Announce(ctx.Request().Context(), cls.ID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "posting announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *classApi) queryAnnouncements(ctx echo.Context) error {
	cls, err := api.getAccessibleClass(ctx)
	if err != nil {
		return err
	}

	anns, err := api.deps.ClassSvc.QueryAnnouncements(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []classroom.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

// getAccessibleClass loads the class at :id and enforces visibility:
// the owning teacher, an enrolled student, or an admin. Everyone else gets
// a 404, not a 403, so class existence leaks nothing.
func (api *classApi) getAccessibleClass(ctx echo.Context) (classroom.Class, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	cls, err := api.deps.ClassSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "finding class by ID")
	}

	if claims.IsAdmin || cls.TeacherID == claims.Subject {
		return cls, nil
	}
	isMember, err := api.deps.ClassSvc.IsMember(reqCtx, cls.ID, claims.Subject)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "checking membership")
	}
	if !isMember {
		return classroom.Class{}, errHttpNotFound
	}
	return cls, nil
}
