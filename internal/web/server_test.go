package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/adifgen/internal/config"
	"github.com/JonMunkholm/adifgen/internal/core"
)

const testLog = "JA1ABC,24/01/05,08:00J,599,579,7.025,CW,,,J,Taro,Tokyo,,,0\r\n" +
	"JA2BAD,24/13/05,08:00J,599,579,7.025,CW\r\n" +
	"JH3XYZ,2024/01/05,23:10U,59,57,433.00,FM\r\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0o644))

	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
		Security: config.SecurityConfig{
			EnableCSP:      true,
			AllowedOrigins: []string{"https://sotalive.net"},
		},
		Static: config.StaticConfig{Dir: static},
		ADIF:   config.ADIFConfig{ProgramID: "adifgen-test"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(core.ServiceConfig{MaxConcurrent: 2, RowWorkers: 2})
	s := NewServer(svc, cfg, nil)
	t.Cleanup(func() { _ = s.Shutdown(t.Context()) })
	return s
}

func defaultFields() map[string]string {
	return map[string]string{
		fieldStationCall:  "JA1ZZZ",
		fieldOperator:     "",
		fieldMyLocation:   "Mt. Tanzawa",
		fieldMyReference:  "JA/KN-006",
		fieldHisReference: "",
	}
}

func uploadRequest(t *testing.T, path string, fields map[string]string, log string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if log != "" {
		fw, err := mw.CreateFormFile(fieldLog, "hamlog.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(log))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

type checkBody struct {
	Status   string            `json:"status"`
	ID       string            `json:"id"`
	Records  []json.RawMessage `json:"records"`
	Failures []core.RowFailure `json:"failures"`
	Cause    *ErrorResponse    `json:"cause"`
}

func decodeCheck(t *testing.T, rec *httptest.ResponseRecorder) checkBody {
	t.Helper()
	var body checkBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCheck_OK(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), testLog))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeCheck(t, rec)
	assert.Equal(t, "OK", body.Status)
	assert.NotEmpty(t, body.ID)
	assert.Nil(t, body.Cause)
	require.Len(t, body.Records, 2)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, 2, body.Failures[0].Line)

	var first map[string]any
	require.NoError(t, json.Unmarshal(body.Records[0], &first))
	assert.Equal(t, "20240104", first["qso_date"])
	assert.Equal(t, "2300", first["time_on"])
	assert.Equal(t, "40m", first["band"])
	assert.Equal(t, "JA1ZZZ", first["operator"])
	assert.Equal(t, []any{[]any{"MY_SOTA_REF", "JA/KN-006"}}, first["my_sig"])
	assert.Nil(t, first["his_sig"])
}

func TestCheck_ADIFInputIsNG(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	log := "<ADIF_VER:5>3.1.4 <EOH>\r\n" + testLog
	rec := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), log))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeCheck(t, rec)
	assert.Equal(t, "NG", body.Status)
	assert.NotNil(t, body.Records)
	assert.Empty(t, body.Records)
	require.NotNil(t, body.Cause)
	assert.Equal(t, "SCOPE001", body.Cause.Code)
	assert.NotEmpty(t, body.Cause.Error)
}

func TestGenerate_OK(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	fields := defaultFields()
	fields[fieldHisReference] = "JA-0001"
	rec := serve(s, uploadRequest(t, "/api/ADIFgen", fields, testLog))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="JA1ZZZ_JA-KN-006_`)
	assert.Equal(t, "1", rec.Header().Get("X-Failed-Rows"))
	assert.NotEmpty(t, rec.Header().Get("X-Conversion-Id"))

	out := rec.Body.String()
	assert.Contains(t, out, "<ADIF_VER:5>3.1.4 ")
	assert.Contains(t, out, "<PROGRAMID:12>adifgen-test ")
	assert.Equal(t, 2, strings.Count(out, "<EOR>"))
	assert.Contains(t, out, "<CALL:6>JH3XYZ <QSO_DATE:8>20240105 <TIME_ON:4>2310 <BAND:4>70cm <MODE:2>FM ")
	assert.Contains(t, out, "<POTA_REF:7>JA-0001 ")
}

func TestGenerate_NGIsUnprocessable(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, uploadRequest(t, "/api/ADIFgen", defaultFields(), "<ADIF_VER:5>3.1.4"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "NG", decodeCheck(t, rec).Status)
}

func TestConvert_RequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(map[string]string)
		log        string
		wantStatus int
		wantCode   string
	}{
		{"no file", nil, "", http.StatusBadRequest, "FILE004"},
		{"no station", func(f map[string]string) { delete(f, fieldStationCall) }, testLog, http.StatusBadRequest, "REQ001"},
		{"no reference", func(f map[string]string) { f[fieldMyReference] = "" }, testLog, http.StatusBadRequest, "REQ002"},
		{"bad encoding", func(f map[string]string) { f[fieldCharset] = "ebcdic" }, testLog, http.StatusBadRequest, "FILE003"},
		{"empty log", nil, "\r\n\r\n", http.StatusOK, "FILE005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(t))
			fields := defaultFields()
			if tt.mutate != nil {
				tt.mutate(fields)
			}

			rec := serve(s, uploadRequest(t, "/api/ADIFcheck", fields, tt.log))
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			// Request errors are an ErrorResponse at the top level; a
			// refused batch carries the same shape under "cause".
			var body struct {
				ErrorResponse
				Cause *ErrorResponse `json:"cause"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
			got := body.ErrorResponse
			if body.Cause != nil {
				got = *body.Cause
			}
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Error)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestConvert_FileTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 512
	s := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), strings.Repeat(testLog, 20)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FILE001", body.Code)
}

func TestConvert_FileAtLimit(t *testing.T) {
	log := strings.Repeat(testLog, 3)
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = int64(len(log))
	s := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), log))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "OK", decodeCheck(t, rec).Status)

	rec = serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), log+"\n"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestConvert_NotMultipart(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/ADIFcheck", strings.NewReader(`{"log":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(s, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FILE002", body.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	s := newTestServer(t, cfg)

	first := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), testLog))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, uploadRequest(t, "/api/ADIFcheck", defaultFields(), testLog))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	health := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code, "health is not rate limited")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Conversions.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaticFallback(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/logs/upload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>app</html>", rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>app</html>", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/ADIFgen", nil)
	req.Header.Set("Origin", "https://sotalive.net")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(s, req)

	assert.Less(t, rec.Code, http.StatusMultipleChoices)
	assert.Equal(t, "https://sotalive.net", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerate_CrossOriginSeesFailedRows(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := uploadRequest(t, "/api/ADIFgen", defaultFields(), testLog)
	req.Header.Set("Origin", "https://sotalive.net")
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "https://sotalive.net", rec.Header().Get("Access-Control-Allow-Origin"))
	expose := rec.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, expose, "X-Failed-Rows")
	assert.Contains(t, expose, "X-Conversion-Id")
	assert.Equal(t, "1", rec.Header().Get("X-Failed-Rows"))
}
