package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/gommon/color"
	"github.com/speaksmart/rt-grammar-wrapper/internal/corrector"
	"github.com/speaksmart/rt-grammar-wrapper/internal/db"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/recognizer"
	"github.com/speaksmart/rt-grammar-wrapper/internal/score"
	"github.com/speaksmart/rt-grammar-wrapper/internal/service"
	"github.com/speaksmart/rt-grammar-wrapper/internal/session"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	data := &service.Data{}
	data.Ctx = ctx
	data.Port = cfg.GetInt("port")

	corr, err := corrector.NewHTTPCorrector(cfg.GetString("corrector.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init corrector")
	}
	data.Gate = gate.New(corr, cfg.GetInt("corrector.maxLen"))

	recFactory, err := recognizer.NewWSFactory(cfg.GetString("speech.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init recognizer")
	}

	var transcripts service.TranscriptStore
	var audioSaver session.AudioSaver
	if redisURL := cfg.GetString("redis.url"); redisURL != "" {
		rdb, err := db.NewRedisDataManager(redisURL, cfg.GetString("redis.key"))
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init redis")
		}
		defer rdb.Close()
		transcripts, audioSaver = rdb, rdb
	} else {
		goapp.Log.Info().Msg("No redis configured, using in-memory store")
		mem := db.NewMemoryDataManager()
		transcripts, audioSaver = mem, mem
	}
	data.Transcripts = transcripts
	data.Scorer = score.NewStub()
	data.WSHandlerSpeech = service.NewWSSpeechHandler(recFactory, data.Gate, audioSaver)

	doneCh, err := service.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}

	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner :=
		`
    SPEAKSMART GRAMMAR WRAPPER v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/speaksmart/rt-grammar-wrapper"))
}
