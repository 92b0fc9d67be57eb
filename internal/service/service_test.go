package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/speaksmart/rt-grammar-wrapper/internal/api"
	"github.com/speaksmart/rt-grammar-wrapper/internal/corrector"
	"github.com/speaksmart/rt-grammar-wrapper/internal/db"
	"github.com/speaksmart/rt-grammar-wrapper/internal/gate"
	"github.com/speaksmart/rt-grammar-wrapper/internal/score"
)

func newTestData() *Data {
	return &Data{
		Gate:        gate.New(&corrector.Mock{}, 0),
		Scorer:      score.NewStub(),
		Transcripts: db.NewMemoryDataManager(),
	}
}

func Test_processText(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantOriginal  string
		wantCorrected string
	}{
		{name: "lexical fix",
			body:          `{"text":"I am married with Sam"}`,
			wantOriginal:  "I am married with Sam",
			wantCorrected: "I am married to Sam.",
		},
		{name: "dedupe",
			body:          `{"text":"Hello there. Hello there. Goodbye."}`,
			wantOriginal:  "Hello there. Hello there. Goodbye.",
			wantCorrected: "Hello there. Goodbye.",
		},
		{name: "empty text",
			body:          `{"text":""}`,
			wantOriginal:  "",
			wantCorrected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/process-text", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			data := newTestData()
			if err := processText(data)(c); err != nil {
				t.Fatalf("processText() failed: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200", rec.Code)
			}
			var res api.CorrectedTranscript
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("can't decode response: %v", err)
			}
			if res.Original != tt.wantOriginal {
				t.Errorf("original = %q, want %q", res.Original, tt.wantOriginal)
			}
			if res.Corrected != tt.wantCorrected {
				t.Errorf("corrected = %q, want %q", res.Corrected, tt.wantCorrected)
			}
			if res.ID == "" {
				t.Error("no transcript ID")
			}
			if len(res.Scores) != 3 {
				t.Errorf("scores = %v, want 3 entries", res.Scores)
			}

			saved, err := data.Transcripts.GetTranscript(c.Request().Context(), res.ID)
			if err != nil {
				t.Fatalf("transcript not stored: %v", err)
			}
			if saved.Corrected != tt.wantCorrected {
				t.Errorf("stored corrected = %q, want %q", saved.Corrected, tt.wantCorrected)
			}
		})
	}
}

func Test_processText_Highlight(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/process-text", strings.NewReader(`{"text":"fine text."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := processText(newTestData())(c); err != nil {
		t.Fatalf("processText() failed: %v", err)
	}
	var res api.CorrectedTranscript
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("can't decode response: %v", err)
	}
	if !strings.Contains(res.Highlighted, "<span") {
		t.Errorf("highlighted = %q, want changed marker", res.Highlighted)
	}
}

func Test_getTranscript_NotFound(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/transcripts/xxx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("xxx")

	err := getTranscript(newTestData())(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func Test_validate(t *testing.T) {
	tests := []struct {
		name    string
		prep    func(d *Data)
		wantErr bool
	}{
		{name: "ok", prep: func(d *Data) { d.WSHandlerSpeech = &WSSpeechHandler{} }},
		{name: "no speech handler", prep: func(d *Data) {}, wantErr: true},
		{name: "no gate", prep: func(d *Data) { d.WSHandlerSpeech = &WSSpeechHandler{}; d.Gate = nil }, wantErr: true},
		{name: "no store", prep: func(d *Data) { d.WSHandlerSpeech = &WSSpeechHandler{}; d.Transcripts = nil }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestData()
			tt.prep(d)
			if err := validate(d); (err != nil) != tt.wantErr {
				t.Errorf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
