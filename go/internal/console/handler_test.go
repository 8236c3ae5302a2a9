package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcdev12/regatta/go/internal/finish"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/mcdev12/regatta/go/internal/race"
	"github.com/mcdev12/regatta/go/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerFixture(t *testing.T) (*consoleFixture, *http.ServeMux) {
	t.Helper()
	fx := newConsoleFixture(t)
	mux := http.NewServeMux()
	NewHandler(fx.app).RegisterRoutes(mux)
	return fx, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func commandPath(fx *consoleFixture, raceNumber int, action string) string {
	return fmt.Sprintf("/api/console/regattas/%s/races/%d/%s", fx.regattaID, raceNumber, action)
}

func TestCreateRaceEndpoint(t *testing.T) {
	fx, mux := newHandlerFixture(t)

	body := fmt.Sprintf(`{"regatta_id":%q,"race_number":7,"sequence_type":"FIVE_MINUTE"}`, fx.regattaID)
	rec := doJSON(t, mux, http.MethodPost, "/api/console/races", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Race
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 7, created.RaceNumber)
	assert.Equal(t, models.SequenceStateIdle, created.State)
}

func TestCreateRaceRejectsBadRegattaID(t *testing.T) {
	_, mux := newHandlerFixture(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/console/races", `{"regatta_id":"nope","race_number":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartSequenceEndpoint(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateIdle)

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "start"), `{"sequence_type":"FIVE_MINUTE"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fx.engine.calls, 1)
	assert.Equal(t, "StartSequence", fx.engine.calls[0].method)
}

func TestStartSequenceUnknownRaceIs404(t *testing.T) {
	fx, mux := newHandlerFixture(t)

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 42, "start"), `{"sequence_type":"FIVE_MINUTE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordFinishEndpoint(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateRacing)
	fx.addEntry("GBR 4201")

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "finish"), `{"sail_number":"GBR 4201"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.FinishRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.NotNil(t, record.Position)
	assert.Equal(t, 1, *record.Position)
}

func TestRecordFinishUnknownSailNumberIs404(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateRacing)

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "finish"), `{"sail_number":"USA 1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateFinishIs409(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateRacing)
	fx.addEntry("GBR 4201")
	fx.finishes.err = finish.ErrAlreadyFinished

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "finish"), `{"sail_number":"GBR 4201"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvalidStatusIs400(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateRacing)
	fx.addEntry("GBR 4201")
	fx.finishes.err = finish.ErrInvalidStatus

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "status"), `{"sail_number":"GBR 4201","status":"NOPE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAbortWithoutCountdownIs409(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateIdle)
	fx.engine.abortErr = race.ErrRaceNotFound // no loaded run

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "postpone"), `{"official":"PRO"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStateEndpoint(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	r := fx.addRace(t, 1, models.SequenceStateCountdown)
	fx.engine.snapshots[r.ID] = sequence.Snapshot{
		RaceID:       r.ID,
		RaceNumber:   1,
		State:        models.SequenceStateCountdown,
		RemainingSec: 42,
	}

	rec := doJSON(t, mux, http.MethodGet, commandPath(fx, 1, "state"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state RaceState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "COUNTDOWN", state.State)
	require.NotNil(t, state.RemainingSec)
	assert.Equal(t, 42, *state.RemainingSec)
}

func TestStateRequiresGet(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateIdle)

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "state"), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownActionIs404(t *testing.T) {
	fx, mux := newHandlerFixture(t)
	fx.addRace(t, 1, models.SequenceStateIdle)

	rec := doJSON(t, mux, http.MethodPost, commandPath(fx, 1, "launch"), `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedRaceNumberIs400(t *testing.T) {
	fx, mux := newHandlerFixture(t)

	path := fmt.Sprintf("/api/console/regattas/%s/races/zero/start", fx.regattaID)
	rec := doJSON(t, mux, http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
