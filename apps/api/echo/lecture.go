package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/lecture"
	"github.com/darasahq/darasa/core/user"
)

type lectureApi struct {
	deps ServerDeps
}

func registerLectureAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := lectureApi{deps: deps}

	lg := g.Group("/lectures", jwt)
	lg.POST("", api.create, roleGuard(user.RoleTeacher))
	lg.POST("/upload", api.upload, roleGuard(user.RoleTeacher))
	lg.GET("", api.query)
	lg.DELETE("/:id", api.destroy, roleGuard(user.RoleTeacher))
}

// Handlers

func (api *lectureApi) create(ctx echo.Context) error {
	var data lecture.NewLecture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if data.ClassID != "" {
		cls, err := api.deps.ClassSvc.GetByID(ctx.Request().Context(), data.ClassID)
		if err != nil {
			return errors.Wrap(err, "finding class by ID")
		}
		if cls.TeacherID != claims.Subject {
			return errHttpForbidden
		}
	}

	lec, err := api.deps.LectureSvc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating lecture")
	}
	return ctx.JSON(http.StatusCreated, lec)
}

// upload stores the multipart video in the lecture-videos bucket and
// publishes a lecture pointing at the stored object.
func (api *lectureApi) upload(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fh, err := ctx.FormFile("video")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "video", Error: "video file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded video")
	}
	defer func() { _ = f.Close() }()

	key := core.ObjectKey(claims.Subject, fh.Filename, time.Now().UTC())
	url, err := api.deps.Storage.Upload(
		ctx.Request().Context(),
		api.deps.Conf.Storage.LectureVideoBucket,
		key, f, fh.Header.Get("Content-Type"),
	)
	if err != nil {
		return errors.Wrap(err, "uploading video")
	}

	data := lecture.NewLecture{
		ClassID:     ctx.FormValue("class_id"),
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		VideoURL:    url,
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	lec, err := api.deps.LectureSvc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating lecture")
	}
	return ctx.JSON(http.StatusCreated, lec)
}

func (api *lectureApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	var lectures []lecture.Lecture
	if claims.IsTeacher {
		lectures, err = api.deps.LectureSvc.QueryByTeacher(reqCtx, claims.Subject)
	} else {
		var classes []classroom.Class
		classes, err = api.deps.ClassSvc.QueryByStudent(reqCtx, claims.Subject)
		if err != nil {
			return errors.Wrap(err, "querying classes")
		}
		classIDs := make([]string, 0, len(classes))
		for _, cls := range classes {
			classIDs = append(classIDs, cls.ID)
		}
		lectures, err = api.deps.LectureSvc.QueryForStudentClasses(reqCtx, classIDs)
	}
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	if lectures == nil {
		lectures = []lecture.Lecture{}
	}
	return ctx.JSON(http.StatusOK, lectures)
}

func (api *lectureApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	lec, err := api.deps.LectureSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lecture by ID")
	}
	if lec.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	if err = api.deps.LectureSvc.Delete(reqCtx, lec.ID); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return ctx.NoContent(http.StatusNoContent)
}
