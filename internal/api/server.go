// Package api serves a directory of EPS native products over HTTP.
// Endpoints cover the product listing, per-product header metadata,
// the record table, ground geolocation and principal-component scores.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/epsio/internal/logger"
	"github.com/samcharles93/epsio/pkg/eps"
)

type Server struct {
	store *ProductStore
	log   logger.Logger
}

func NewServer(store *ProductStore, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{store: store, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(RequestID())
	e.GET("/v1/products", s.handleListProducts)
	e.GET("/v1/products/:name", s.handleGetProduct)
	e.GET("/v1/products/:name/records", s.handleListRecords)
	e.GET("/v1/products/:name/geolocation", s.handleGeolocation)
	e.GET("/v1/products/:name/scores", s.handleScores)
}

func (s *Server) handleListProducts(c *echo.Context) error {
	infos, err := s.store.List()
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   infos,
	})
}

func (s *Server) handleGetProduct(c *echo.Context) error {
	detail, err := s.store.Describe(c.Param("name"))
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleListRecords(c *echo.Context) error {
	records, err := s.store.Records(c.Param("name"))
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   records,
	})
}

func (s *Server) handleGeolocation(c *echo.Context) error {
	name := c.Param("name")
	p, err := s.store.Product(name)
	if err != nil {
		return s.writeFailure(c, err)
	}
	geo := p.geolocated()
	if geo == nil {
		return writeBadRequest(c, "product has no geolocation")
	}
	lats, err := geo.Latitudes()
	if err != nil {
		return s.writeFailure(c, err)
	}
	lons, err := geo.Longitudes()
	if err != nil {
		return s.writeFailure(c, err)
	}
	start, count, err := parseRange(c, len(lats))
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, GeolocationResponse{
		Product:    name,
		Start:      start,
		Count:      count,
		Total:      len(lats),
		Latitudes:  floats(lats[start : start+count]),
		Longitudes: floats(lons[start : start+count]),
	})
}

func (s *Server) handleScores(c *echo.Context) error {
	name := c.Param("name")
	p, err := s.store.Product(name)
	if err != nil {
		return s.writeFailure(c, err)
	}
	if p.pc == nil {
		return writeBadRequest(c, "product carries no principal-component scores")
	}
	scores, err := p.pc.Scores()
	if err != nil {
		return s.writeFailure(c, err)
	}
	start, count, err := parseRange(c, len(scores))
	if err != nil {
		return s.writeFailure(c, err)
	}
	g := p.pc.GIADR()
	return c.JSON(http.StatusOK, ScoresResponse{
		Product:           name,
		FirstChannel:      g.FirstChannel[:],
		NbrChannels:       g.NbrChannels[:],
		ScoreQuantisation: g.ScoreQuantisation[:],
		Start:             start,
		Count:             count,
		Total:             len(scores),
		Scores:            scores[start : start+count],
	})
}

func (s *Server) writeFailure(c *echo.Context, err error) error {
	switch {
	case NotFound(err):
		return writeNotFound(c, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, eps.ErrFieldNotPresent):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "", "field_not_present")
	case errors.Is(err, eps.ErrUnsupportedVersion):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "", "unsupported_version")
	default:
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}
