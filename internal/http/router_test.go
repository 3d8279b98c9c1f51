package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/access"
	"github.com/hray3182/CareMind/internal/auth"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/care/caretest"
	caremindhttp "github.com/hray3182/CareMind/internal/http"
	httpH "github.com/hray3182/CareMind/internal/http/handlers"
	httpMW "github.com/hray3182/CareMind/internal/http/middleware"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

const cronSecret = "cron-secret"

var brt = time.FixedZone("BRT", -3*60*60)

type fixture struct {
	router   *gin.Engine
	verifier *auth.Verifier
	meds     *caretest.Medications
	codes    *linkcode.Issuer
	elderly  uuid.UUID
	familiar uuid.UUID
	stranger uuid.UUID
	med      *models.Medication
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		verifier: auth.NewVerifier("test-secret"),
		elderly:  uuid.New(),
		familiar: uuid.New(),
		stranger: uuid.New(),
	}
	f.med = &models.Medication{
		OwnerID:           f.elderly,
		Title:             "Losartana",
		Dosage:            "50mg",
		Recurrence:        recurrence.JSON{Rule: recurrence.Daily{Times: []recurrence.Clock{recurrence.MustClock("08:00")}}},
		QuantityRemaining: 2,
		CreatedAt:         time.Date(2024, 1, 1, 7, 0, 0, 0, brt),
	}
	f.meds = caretest.NewMedications(f.med)

	profiles := caretest.Profiles{
		f.elderly:  {ID: f.elderly, Name: "Dona Maria", Role: models.RoleElderly},
		f.familiar: {ID: f.familiar, Name: "Ana", Role: models.RoleFamiliar},
		f.stranger: {ID: f.stranger, Name: "Carlos", Role: models.RoleFamiliar},
	}
	links := caretest.NewLinks()
	if _, err := links.Link(context.Background(), f.familiar, f.elderly); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}

	now := time.Date(2024, 1, 2, 9, 0, 0, 0, brt)
	svc := care.NewService(care.Deps{
		Medications: f.meds,
		Routines:    caretest.NewRoutines(),
		Profiles:    profiles,
		Family:      caretest.Family{},
		Events:      &caretest.Publisher{},
		Location:    brt,
		Now:         func() time.Time { return now },
	})
	checker := access.NewChecker(links)
	f.codes = linkcode.NewIssuer(linkcode.NewMemoryStore(), 15*time.Minute, func() time.Time { return now })

	f.router = caremindhttp.NewRouter(caremindhttp.RouterConfig{
		CronSecret:     cronSecret,
		AuthMiddleware: httpMW.NewAuthMiddleware(nil, f.verifier),
		ItemHandler:    httpH.NewItemHandler(nil, svc, checker),
		AgendaHandler:  httpH.NewAgendaHandler(nil, svc, checker),
		FamilyHandler:  httpH.NewFamilyHandler(nil, links, profiles, f.codes),
		CodeHandler:    httpH.NewLinkCodeHandler(nil, f.codes, profiles, checker),
		VoiceHandler:   httpH.NewVoiceHandler(nil, svc, checker),
		ParseHandler:   httpH.NewParseHandler(nil, nil, checker),
		CronHandler:    httpH.NewCronHandler(nil, svc),
		HealthHandler:  httpH.NewHealthHandler(),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, as uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != uuid.Nil {
		token, err := f.verifier.Sign(as, time.Hour)
		if err != nil {
			t.Fatalf("Sign returned error: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) (code, field string) {
	t.Helper()
	var env struct {
		Error struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return env.Error.Code, env.Error.Field
}

func TestHealthcheck(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthcheck", uuid.Nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/profiles/"+f.elderly.String()+"/medications", uuid.Nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestListMedications_Access(t *testing.T) {
	f := newFixture(t)
	path := "/api/profiles/" + f.elderly.String() + "/medications"

	tests := []struct {
		name string
		as   uuid.UUID
		want int
	}{
		{"owner", f.elderly, http.StatusOK},
		{"linked familiar", f.familiar, http.StatusOK},
		{"unlinked profile", f.stranger, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, path, tt.as, "")
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if tt.want == http.StatusForbidden {
				if code, _ := errorCode(t, w); code != "access_denied" {
					t.Errorf("expected access_denied, got %q", code)
				}
			}
		})
	}
}

func TestListMedications_Status(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/profiles/"+f.elderly.String()+"/medications", f.elderly, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Date  string `json:"data"`
		Items []struct {
			Status models.Status `json:"status"`
			Due    bool          `json:"devido"`
		} `json:"itens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Date != "2024-01-02" {
		t.Errorf("expected date 2024-01-02, got %q", body.Date)
	}
	if len(body.Items) != 1 || body.Items[0].Status != models.StatusPending || !body.Items[0].Due {
		t.Errorf("unexpected items %+v", body.Items)
	}
}

func TestMarkMedicationTaken(t *testing.T) {
	f := newFixture(t)
	path := "/api/medications/" + f.med.ID.String() + "/taken"

	w := f.do(t, http.MethodPost, path, f.familiar, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	saved := f.meds.Get(f.med.ID)
	if saved.LastTakenAt == nil {
		t.Fatal("expected last_taken_at to be set")
	}
	if saved.QuantityRemaining != 1 {
		t.Errorf("expected quantity 1, got %d", saved.QuantityRemaining)
	}

	w = f.do(t, http.MethodDelete, path, f.familiar, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if f.meds.Get(f.med.ID).LastTakenAt != nil {
		t.Error("expected last_taken_at to be cleared")
	}

	w = f.do(t, http.MethodPost, path, f.stranger, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unlinked profile, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/medications/"+uuid.NewString()+"/taken", f.elderly, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", w.Code)
	}
}

func TestMarkMedicationTaken_ChunkedBody(t *testing.T) {
	f := newFixture(t)
	token, err := f.verifier.Sign(f.elderly, time.Hour)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/medications/"+f.med.ID.String()+"/taken",
		io.MultiReader(strings.NewReader(`{"at":"2024-01-02T08:10:00-03:00"}`)))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	want := time.Date(2024, 1, 2, 8, 10, 0, 0, brt)
	if got := f.meds.Get(f.med.ID).LastTakenAt; got == nil || !got.Equal(want) {
		t.Errorf("LastTakenAt = %v, want %v", got, want)
	}
}

func TestCreateMedication(t *testing.T) {
	f := newFixture(t)
	path := "/api/profiles/" + f.elderly.String() + "/medications"

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
		wantField string
	}{
		{
			name:     "weekly",
			body:     `{"titulo":"Vitamina D","dosagem":"1 cápsula","quantidade_restante":8,"recorrencia":{"tipo":"semanal","dias_da_semana":[1],"horario":"09:00"}}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "one-off",
			body:     `{"titulo":"Dipirona","recorrencia":null}`,
			wantCode: http.StatusCreated,
		},
		{
			name:      "missing title",
			body:      `{"dosagem":"10mg"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
			wantField: "titulo",
		},
		{
			name:      "invalid recurrence",
			body:      `{"titulo":"Losartana","recorrencia":{"tipo":"semanal","dias_da_semana":[],"horario":"08:00"}}`,
			wantCode:  http.StatusBadRequest,
			wantError: "invalid_recurrence",
			wantField: "recorrencia",
		},
		{
			name:      "negative quantity",
			body:      `{"titulo":"Losartana","quantidade_restante":-1}`,
			wantCode:  http.StatusBadRequest,
			wantError: "validation_error",
			wantField: "quantidade_restante",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, path, f.elderly, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantError == "" {
				return
			}
			code, field := errorCode(t, w)
			if code != tt.wantError || field != tt.wantField {
				t.Errorf("got error %q on %q, want %q on %q", code, field, tt.wantError, tt.wantField)
			}
		})
	}
}

func TestAgenda(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/profiles/"+f.elderly.String()+"/agenda?from=2024-01-02&to=2024-01-03", f.familiar, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Entries []care.AgendaEntry `json:"ocorrencias"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(body.Entries) != 2 {
		t.Fatalf("expected two occurrences, got %+v", body.Entries)
	}
	for _, e := range body.Entries {
		if e.At.In(brt).Hour() != 8 {
			t.Errorf("unexpected occurrence %s", e.At)
		}
	}

	w = f.do(t, http.MethodGet, "/api/profiles/"+f.elderly.String()+"/agenda?from=2024-01-01&to=2024-06-01", f.elderly, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an oversized window, got %d", w.Code)
	}
}

func TestVoiceComplete(t *testing.T) {
	f := newFixture(t)

	body := `{"perfil_id":"` + f.elderly.String() + `","titulo":"  losartana "}`
	w := f.do(t, http.MethodPost, "/api/voice/complete", f.elderly, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Losartana") {
		t.Errorf("expected the matched title in %s", w.Body.String())
	}
	if f.meds.Get(f.med.ID).LastTakenAt == nil {
		t.Error("expected the medication to be completed")
	}

	body = `{"perfil_id":"` + f.elderly.String() + `","titulo":"Insulina"}`
	if w := f.do(t, http.MethodPost, "/api/voice/complete", f.elderly, body); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown title, got %d", w.Code)
	}

	body = `{"perfil_id":"` + f.elderly.String() + `","titulo":"Losartana"}`
	if w := f.do(t, http.MethodPost, "/api/voice/complete", f.stranger, body); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for an unlinked caller, got %d", w.Code)
	}
}

func (f *fixture) issueCode(t *testing.T, path string, as uuid.UUID) string {
	t.Helper()
	w := f.do(t, http.MethodPost, path, as, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 from %s, got %d: %s", path, w.Code, w.Body.String())
	}
	var code linkcode.Code
	if err := json.Unmarshal(w.Body.Bytes(), &code); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if code.Value == "" || code.ExpiresAt.IsZero() {
		t.Fatalf("unexpected code %+v", code)
	}
	return code.Value
}

func TestFamilyLink(t *testing.T) {
	f := newFixture(t)
	medsPath := "/api/profiles/" + f.elderly.String() + "/medications"

	// No invitation, no link.
	w := f.do(t, http.MethodPost, "/api/family/links", f.stranger, `{"idoso_id":"`+f.elderly.String()+`"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unsolicited link, got %d: %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodGet, medsPath, f.stranger, ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected no access without a link, got %d", w.Code)
	}

	if w := f.do(t, http.MethodPost, "/api/profiles/"+f.elderly.String()+"/family-code", f.stranger, ""); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 when an unlinked profile asks for an invitation, got %d", w.Code)
	}

	code := f.issueCode(t, "/api/profiles/"+f.elderly.String()+"/family-code", f.elderly)

	if w := f.do(t, http.MethodPost, "/api/family/links", f.elderly, `{"codigo":"`+code+`"}`); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 when the caller is not a familiar, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/family/links", f.stranger, `{"codigo":"`+code+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodGet, medsPath, f.stranger, ""); w.Code != http.StatusOK {
		t.Errorf("expected access after linking, got %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/family/links", f.stranger, `{"codigo":"`+code+`"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a used invitation, got %d", w.Code)
	}
	if c, _ := errorCode(t, w); c != "invalid_link_code" {
		t.Errorf("expected invalid_link_code, got %q", c)
	}

	if w := f.do(t, http.MethodDelete, "/api/family/links/"+f.elderly.String(), f.stranger, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, medsPath, f.stranger, ""); w.Code != http.StatusForbidden {
		t.Errorf("expected access to be revoked, got %d", w.Code)
	}
}

func TestFamilyCode_ElderlyOnly(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/profiles/"+f.familiar.String()+"/family-code", f.familiar, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-elderly profile, got %d: %s", w.Code, w.Body.String())
	}

	// A familiar already linked may invite others.
	f.issueCode(t, "/api/profiles/"+f.elderly.String()+"/family-code", f.familiar)
}

func TestTelegramCode(t *testing.T) {
	f := newFixture(t)
	path := "/api/profiles/" + f.elderly.String() + "/telegram-code"

	code := f.issueCode(t, path, f.elderly)
	got, err := f.codes.Redeem(context.Background(), linkcode.PurposeTelegram, code)
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}
	if got != f.elderly {
		t.Errorf("code redeemed for %s, want %s", got, f.elderly)
	}

	if w := f.do(t, http.MethodPost, path, f.stranger, ""); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for an unlinked caller, got %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, path, uuid.Nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}
}

func TestParseMedication_Disabled(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/profiles/"+f.elderly.String()+"/medications/parse", f.elderly, `{"texto":"losartana 50mg todo dia às 8"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCronRoutes(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/cron/reset", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}

	for _, path := range []string{"/api/cron/reset", "/api/cron/monitor"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Cron-Secret", cronSecret)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "timestamp") {
			t.Errorf("%s: expected a summary, got %s", path, w.Body.String())
		}
	}
}
