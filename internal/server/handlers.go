package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rangulvers/wikigraph/internal/apperr"
	"github.com/rangulvers/wikigraph/internal/events"
	"github.com/rangulvers/wikigraph/internal/search"
	"github.com/rangulvers/wikigraph/internal/title"
)

// findPathRequest is the shared request body for both the streaming
// and non-streaming path-finding endpoints.
type findPathRequest struct {
	Start        string  `json:"start" validate:"required,min=1,max=255"`
	End          string  `json:"end" validate:"required,min=1,max=255"`
	MaxPaths     int     `json:"max_paths" validate:"omitempty,min=1,max=5"`
	MinDiversity float64 `json:"min_diversity" validate:"omitempty,min=0,max=1"`
}

func (r findPathRequest) toEngineRequest() (search.Request, error) {
	start, err := title.ParseAndNormalize(r.Start)
	if err != nil {
		return search.Request{}, err
	}
	end, err := title.ParseAndNormalize(r.End)
	if err != nil {
		return search.Request{}, err
	}

	req := search.DefaultRequest(start, end)
	req.K = 1
	if r.MaxPaths > 0 {
		req.K = r.MaxPaths
	}
	return req, nil
}

// FindPathStreamHandler streams search progress and results as
// Server-Sent Events. The handler has no business logic beyond
// validation, engine invocation, and frame writing.
func FindPathStreamHandler(deps Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := new(findPathRequest)
		if err := c.Bind(body); err != nil {
			return writeValidationError(c, "invalid request body")
		}
		if err := c.Validate(body); err != nil {
			return writeValidationError(c, err.Error())
		}

		req, err := body.toEngineRequest()
		if err != nil {
			return writeValidationError(c, err.Error())
		}

		ch, err := deps.Engine.Find(c.Request().Context(), req)
		if err != nil {
			return writeValidationError(c, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set("Cache-Control", "no-cache")
		c.Response().Header().Set("Connection", "keep-alive")
		c.Response().WriteHeader(http.StatusOK)

		for ev := range ch {
			if err := writeSSEEvent(c, ev); err != nil {
				return nil
			}
		}
		return nil
	}
}

// FindPathHandler runs the same search synchronously, waiting for the
// terminal event and returning it as a single JSON body, for clients
// that cannot consume an SSE stream.
func FindPathHandler(deps Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := new(findPathRequest)
		if err := c.Bind(body); err != nil {
			return writeValidationError(c, "invalid request body")
		}
		if err := c.Validate(body); err != nil {
			return writeValidationError(c, err.Error())
		}

		req, err := body.toEngineRequest()
		if err != nil {
			return writeValidationError(c, err.Error())
		}

		ch, err := deps.Engine.Find(c.Request().Context(), req)
		if err != nil {
			return writeValidationError(c, err.Error())
		}

		var terminal events.Event
		for ev := range ch {
			switch ev.(type) {
			case events.Complete, events.Error:
				terminal = ev
			}
		}

		switch v := terminal.(type) {
		case events.Complete:
			return c.JSON(http.StatusOK, v)
		case events.Error:
			return c.JSON(http.StatusOK, v)
		default:
			return c.JSON(http.StatusInternalServerError, events.Error{Kind: string(apperr.Internal), Message: "search ended without a terminal event"})
		}
	}
}

// RecentSearchesHandler lists the most recent search records.
func RecentSearchesHandler(deps Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		recs, err := deps.Persist.RecentSearches(c.Request().Context(), 50)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, recs)
	}
}

// SearchByIDHandler looks up one search record by its public ID.
func SearchByIDHandler(deps Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, found, err := deps.Persist.SearchByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if !found {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "search not found"})
		}
		return c.JSON(http.StatusOK, rec)
	}
}

// StatsHandler reports aggregate durable-tier statistics.
func StatsHandler(deps Dependencies) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := deps.Persist.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func writeValidationError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, events.Error{Kind: string(apperr.InvalidInput), Message: message})
}

// writeSSEEvent frames one event as `data: <json>\n\n`, where the JSON
// body is the {type, data} envelope produced by events.Marshal, and
// flushes, the same write-then-flush idiom the teacher stack uses for
// its own streaming endpoint.
func writeSSEEvent(c echo.Context, ev events.Event) error {
	data, err := events.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
