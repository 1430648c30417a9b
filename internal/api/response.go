package api

import (
	"net/http"
	"strconv"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Paginated wraps list results with page bookkeeping.
type Paginated struct {
	Count      int64       `json:"count"`
	TotalPages int64       `json:"total_pages"`
	Next       *string     `json:"next"`
	Previous   *string     `json:"previous"`
	Results    interface{} `json:"results"`
}

// respond writes a success envelope.
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Message: message, Data: data})
}

// ErrorResponse builds an error envelope body.
func ErrorResponse(message string) Envelope {
	return Envelope{Message: message, Data: nil}
}

// respondError maps an application error to its HTTP status. Anything
// without a kind is a 500 with a generic message; the cause is logged, never
// leaked.
func respondError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		abortWithError(c, http.StatusBadRequest, apperr.Message(err))
	case apperr.KindNotFound:
		abortWithError(c, http.StatusNotFound, apperr.Message(err))
	case apperr.KindForbidden:
		abortWithError(c, http.StatusForbidden, apperr.Message(err))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

// pageFromQuery reads page/page_size query params with clamped defaults.
func pageFromQuery(c *gin.Context) service.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return service.NewPage(number, size)
}

// paginate builds the pagination wrapper, with next/previous as URLs relative
// to the current request.
func paginate(c *gin.Context, page service.Page, total int64, results interface{}) Paginated {
	totalPages := page.TotalPages(total)

	out := Paginated{
		Count:      total,
		TotalPages: totalPages,
		Results:    results,
	}
	if int64(page.Number) < totalPages {
		out.Next = pageURL(c, page.Number+1)
	}
	if page.Number > 1 {
		out.Previous = pageURL(c, page.Number-1)
	}
	return out
}

func pageURL(c *gin.Context, number int) *string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
