package httpapi

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// SessionHeader selects the client session. Searches carrying it supersede
// the same client's earlier searches; searches without it run independently.
const SessionHeader = "X-Session-ID"

// Dependencies are the collaborators the handlers need.
type Dependencies struct {
	Service  *weather.Service
	Sessions *weather.Sessions
	Prefs    prefs.Store
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
}

type handlers struct {
	Dependencies
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = weather.NewSessions(deps.Service, deps.Logger, deps.Metrics)
	}
	if deps.Prefs == nil {
		deps.Prefs = prefs.NewMemoryStore()
	}
	h := &handlers{deps}

	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	app.Get("/api/weather", h.weatherByType)

	v1 := app.Group("/api/v1")
	v1.Get("/snapshot", h.snapshot)
	v1.Get("/snapshot/latest", h.latestSnapshot)
	v1.Get("/dashboard", h.dashboard)
	v1.Get("/preferences/unit", h.getUnit)
	v1.Put("/preferences/unit", h.putUnit)
	v1.Get("/weather/latest", h.latest)
	v1.Get("/weather/history", h.history)
}

// typeSections maps the ?type= values of /api/weather onto snapshot sections.
var typeSections = map[string][]weather.SectionKind{
	"current":    {weather.SectionCurrent},
	"forecast":   {weather.SectionHourly, weather.SectionDaily},
	"historical": {weather.SectionHistorical},
	"marine":     {weather.SectionMarine},
	"aqi":        {weather.SectionAirQuality},
	"flood":      {weather.SectionFlood},
}

type typeQuery struct {
	Type string `validate:"required,oneof=search current forecast historical marine aqi flood"`
}

type searchQuery struct {
	Query string `validate:"required"`
}

// coordQuery holds raw coordinates; the validator checks their ranges.
type coordQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func (q coordQuery) toLocation(name string) weather.Location {
	lat, _ := strconv.ParseFloat(q.Lat, 64)
	lon, _ := strconv.ParseFloat(q.Lon, 64)
	return weather.Location{Name: name, Latitude: lat, Longitude: lon}
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	q := coordQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (h *handlers) weatherByType(c *fiber.Ctx) error {
	tq := typeQuery{Type: c.Query("type")}
	if err := validate.Struct(tq); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid type %q", tq.Type))
	}

	if tq.Type == "search" {
		sq := searchQuery{Query: strings.TrimSpace(c.Query("query"))}
		if err := validate.Struct(sq); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "query parameter is required")
		}
		locs, err := h.Service.SearchLocations(c.UserContext(), sq.Query, weather.MaxSearchResults)
		if err != nil {
			return toFiberError(err)
		}
		if locs == nil {
			locs = []weather.Location{}
		}
		return c.JSON(fiber.Map{"results": locs})
	}

	cq, err := parseCoordQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "valid lat and lon query parameters are required")
	}

	sections := typeSections[tq.Type]
	snap := h.Service.BuildSnapshot(c.UserContext(), cq.toLocation(c.Query("name")), sections)
	if len(snap.Absent) == len(sections) {
		return fiber.NewError(fiber.StatusBadGateway, absentSummary(snap))
	}
	return c.JSON(snap)
}

func (h *handlers) snapshot(c *fiber.Ctx) error {
	snap, err := h.search(c)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *handlers) dashboard(c *fiber.Ctx) error {
	unit, err := h.unitFor(c)
	if err != nil {
		return err
	}
	snap, err := h.search(c)
	if err != nil {
		return err
	}
	return c.JSON(view.Render(snap, view.DisplayContext{Unit: unit, Now: time.Now()}))
}

// search resolves ?query= and builds ?sections=, guarded by the caller's
// session when it sends one.
func (h *handlers) search(c *fiber.Ctx) (weather.Snapshot, error) {
	sq := searchQuery{Query: strings.TrimSpace(c.Query("query"))}
	if err := validate.Struct(sq); err != nil {
		return weather.Snapshot{}, fiber.NewError(fiber.StatusBadRequest, "query parameter is required")
	}
	sections, err := parseSections(c.Query("sections"))
	if err != nil {
		return weather.Snapshot{}, toFiberError(err)
	}

	var snap weather.Snapshot
	if id, ok := sessionID(c); ok {
		snap, err = h.Sessions.Get(id).Search(c.UserContext(), sq.Query, sections)
	} else {
		snap, err = h.Service.Search(c.UserContext(), sq.Query, sections)
	}
	if err != nil {
		return weather.Snapshot{}, toFiberError(err)
	}
	return snap, nil
}

// latestSnapshot returns the last snapshot published to the caller's session.
func (h *handlers) latestSnapshot(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, SessionHeader+" header is required")
	}
	snap, ok := h.Sessions.Get(id).Latest()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no snapshot published for this session")
	}
	return c.JSON(snap)
}

func (h *handlers) unitFor(c *fiber.Ctx) (weather.TemperatureUnit, error) {
	if raw := c.Query("unit"); raw != "" {
		unit, err := weather.ParseTemperatureUnit(raw)
		if err != nil {
			return "", toFiberError(err)
		}
		return unit, nil
	}
	return prefs.LoadUnit(c.UserContext(), h.Prefs, h.Logger), nil
}

type unitBody struct {
	Unit string `json:"unit" validate:"required"`
}

func (h *handlers) getUnit(c *fiber.Ctx) error {
	unit := prefs.LoadUnit(c.UserContext(), h.Prefs, h.Logger)
	return c.JSON(fiber.Map{"unit": unit, "symbol": unit.Symbol()})
}

func (h *handlers) putUnit(c *fiber.Ctx) error {
	var body unitBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unit is required")
	}
	unit, err := prefs.SaveUnit(c.UserContext(), h.Prefs, body.Unit)
	if err != nil {
		return toFiberError(err)
	}
	return c.JSON(fiber.Map{"unit": unit, "symbol": unit.Symbol()})
}

func (h *handlers) latest(c *fiber.Ctx) error {
	cq, err := parseCoordQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	snapshot, err := h.Service.GetLatest(cq.toLocation(""))
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
	return c.JSON(snapshot)
}

func (h *handlers) history(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc := req.Location.toLocation("")
	snapshots, err := h.Service.GetRange(loc, req.From, req.To)
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"location":  loc,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location coordQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseCoordQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

func parseSections(raw string) ([]weather.SectionKind, error) {
	if strings.TrimSpace(raw) == "" {
		return weather.DefaultSections, nil
	}
	var out []weather.SectionKind
	for _, part := range strings.Split(raw, ",") {
		kind, err := weather.ParseSectionKind(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}

// sessionID returns a copy of the session header; fiber reuses the
// underlying buffer once the handler returns.
func sessionID(c *fiber.Ctx) (string, bool) {
	id := strings.TrimSpace(c.Get(SessionHeader))
	if id == "" {
		return "", false
	}
	return utils.CopyString(id), true
}

func absentSummary(snap weather.Snapshot) string {
	parts := make([]string, 0, len(snap.Absent))
	for kind, reason := range snap.Absent {
		parts = append(parts, fmt.Sprintf("%s: %s", kind, reason))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
