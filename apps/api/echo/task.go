package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/task"
)

type taskApi struct {
	svc      task.Service
	reminder *task.Reminder
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc task.Service, reminder *task.Reminder, validate *validator.Validate) {
	api := taskApi{
		svc:      svc,
		reminder: reminder,
		validate: validate,
	}

	tg := g.Group("/tasks", jwt)

	tg.POST("", api.create, staffMiddleware())
	tg.GET("", api.query)
	tg.GET("/assigned", api.queryAssigned)
	tg.POST("/remind", api.remind, adminMiddleware())

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tsk, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskApi) query(ctx echo.Context) error {
	tasks, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

// queryAssigned returns the tasks assigned to the authenticated user.
func (api *taskApi) queryAssigned(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tasks, err := api.svc.QueryByAssignee(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying tasks by assignee")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	tsk, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding task by ID")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) update(ctx echo.Context) error {
	tsk, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding task by ID")
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(tsk, api.validate); err != nil {
		return err
	}

	tsk, err = api.svc.Update(tsk.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, tsk)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Param("id")); err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding task by ID")
	}
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// remind runs one reminder sweep immediately, outside the daily schedule.
func (api *taskApi) remind(ctx echo.Context) error {
	res, err := api.reminder.RunSweep(time.Now())
	if err != nil {
		return errors.Wrap(err, "running reminder sweep")
	}
	return ctx.JSON(http.StatusOK, res)
}
