package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/store"
)

var validate = validator.New()

// Reader is the read side of the latest-run store.
type Reader interface {
	Latest() (store.Snapshot, error)
	Areas() ([]string, error)
	GetArea(key string, limit int) ([]forecast.ForecastDay, error)
	GetDay(key, date string) (forecast.ForecastDay, error)
}

// NewApp builds the Fiber app with the shared error handler and middleware.
func NewApp(name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(logger.New())
	app.Use(recover.New())
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, st Reader) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": app.Config().AppName,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		snap, err := st.Latest()
		if err != nil {
			return storeError(err, "no forecast run available")
		}
		areas, err := st.Areas()
		if err != nil {
			return storeError(err, "no forecast run available")
		}
		return c.JSON(fiber.Map{
			"run_id":       snap.Run.RunID,
			"generated_at": snap.SavedAt,
			"failed":       snap.Run.Failed,
			"areas":        areas,
		})
	})

	v1.Get("/forecast/:area", func(c *fiber.Ctx) error {
		a, err := parseArea(c)
		if err != nil {
			return err
		}
		q, err := parseDaysQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days, err := st.GetArea(a.Key, q.Days)
		if err != nil {
			return storeError(err, "no forecast for requested area")
		}
		return c.JSON(fiber.Map{
			"area": a.Key,
			"name": a.Name,
			"days": days,
		})
	})

	v1.Get("/forecast/:area/:date", func(c *fiber.Ctx) error {
		a, err := parseArea(c)
		if err != nil {
			return err
		}
		q := dateParam{Date: c.Params("date")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		day, err := st.GetDay(a.Key, q.Date)
		if err != nil {
			return storeError(err, "no forecast for requested date")
		}
		return c.JSON(day)
	})
}

func storeError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast data")
}

func parseArea(c *fiber.Ctx) (area.Area, error) {
	a, err := area.Lookup(c.Params("area"))
	if err != nil {
		return area.Area{}, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return a, nil
}

// daysQuery limits the number of returned days; 0 means all.
type daysQuery struct {
	Days int `validate:"omitempty,min=1,max=90"`
}

func parseDaysQuery(c *fiber.Ctx) (daysQuery, error) {
	var q daysQuery
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, errors.New("days must be an integer")
		}
		if n == 0 {
			return q, errors.New("days must be between 1 and 90")
		}
		q.Days = n
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

type dateParam struct {
	Date string `validate:"required,datetime=2006-01-02"`
}
