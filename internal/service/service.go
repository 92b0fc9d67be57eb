package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/textnorm"
	"github.com/speaksmart/rt-grammar-wrapper/internal/utils"
)

// TranscriptStore keeps corrected transcripts for later retrieval
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, data *api.CorrectedTranscript) error
	GetTranscript(ctx context.Context, id string) (*api.CorrectedTranscript, error)
}

// Scorer produces placeholder transcript quality scores
type Scorer interface {
	Score(original, corrected string) map[string]float64
}

// Data keeps data required for service work
type Data struct {
	Port            int
	WSHandlerSpeech *WSSpeechHandler
	Gate            *gate.Gate
	Scorer          Scorer
	Transcripts     TranscriptStore
	Ctx             context.Context
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) (<-chan struct{}, error) {
	goapp.Log.Info().Msgf("Starting wrapper service at %d", data.Port)
	if err := validate(data); err != nil {
		return nil, err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		if err := gracehttp.Serve(e.Server); err != nil {
			goapp.Log.Error().Err(err).Msg("can't start web server")
		}
		goapp.Log.Info().Msg("exit http routine")
	}()
	return res, nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("wrapper", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.GET("/live", live(data))
	e.GET("/client/ws/speech", subscribe(data, data.WSHandlerSpeech))
	e.POST("/process-text", processText(data))
	e.GET("/transcripts/:id", getTranscript(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func processText(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer utils.MeasureTime("processText", time.Now())
		var req api.ProcessRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode request")
		}
		ctx := c.Request().Context()

		working := textnorm.Clean(req.Text)
		corrected := ""
		if working != "" {
			corrected = data.Gate.CorrectUtterance(ctx, textnorm.SplitSentences(working))
		}
		res := &api.CorrectedTranscript{
			ID:          ulid.Make().String(),
			Original:    req.Text,
			Corrected:   corrected,
			Highlighted: textnorm.Highlight(req.Text, corrected),
			Scores:      data.Scorer.Score(req.Text, corrected),
		}
		if err := data.Transcripts.SaveTranscript(ctx, res); err != nil {
			goapp.Log.Error().Err(err).Str("id", res.ID).Msg("can't save transcript")
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getTranscript(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		id := c.Param("id")
		res, err := data.Transcripts.GetTranscript(c.Request().Context(), id)
		if err != nil {
			goapp.Log.Error().Err(err).Str("id", id).Msg("can't get transcript")
			return echo.NewHTTPError(http.StatusNotFound, "no transcript")
		}
		return c.JSON(http.StatusOK, res)
	}
}

func validate(data *Data) error {
	if data.WSHandlerSpeech == nil {
		return fmt.Errorf("no WSHandlerSpeech")
	}
	if data.Gate == nil {
		return fmt.Errorf("no Gate")
	}
	if data.Scorer == nil {
		return fmt.Errorf("no Scorer")
	}
	if data.Transcripts == nil {
		return fmt.Errorf("no Transcripts")
	}
	return nil
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribe(data *Data, handler *WSSpeechHandler) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return handler.HandleConnection(data.Ctx, ws)
	}
}
