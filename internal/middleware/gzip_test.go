package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func gzipBytes(t *testing.T, p []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(p)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func gunzip(t *testing.T, r io.Reader) []byte {
	t.Helper()
	zr, err := gzip.NewReader(r)
	require.NoError(t, err)
	defer zr.Close()
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	return body
}

// echoCredential отвечает JSON-документом, в который вложено тело запроса.
func echoCredential(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"id":1,"input":` + string(body) + `}`))
}

// prepList отдаёт бинарный файл, похожий на выгрузку XLSX.
func prepList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="prep-list.xlsx"`)
	_, _ = w.Write([]byte("PK\x03\x04prep-list"))
}

func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestGzipMiddleware(t *testing.T) {
	credential := `{"platform":"emag","account_label":"eMAG RO"}`

	tests := []struct {
		name            string
		handler         http.HandlerFunc
		requestBody     string
		gzipRequest     bool
		acceptGzip      bool
		wantStatus      int
		wantEncoding    string
		wantContentType string
		wantBody        string
	}{
		{
			name:            "json response compressed",
			handler:         echoCredential,
			requestBody:     credential,
			acceptGzip:      true,
			wantStatus:      http.StatusCreated,
			wantEncoding:    "gzip",
			wantContentType: "application/json",
			wantBody:        `{"id":1,"input":` + credential + `}`,
		},
		{
			name:            "compressed request body",
			handler:         echoCredential,
			requestBody:     credential,
			gzipRequest:     true,
			wantStatus:      http.StatusCreated,
			wantContentType: "application/json",
			wantBody:        `{"id":1,"input":` + credential + `}`,
		},
		{
			name:            "xlsx export compressed",
			handler:         prepList,
			acceptGzip:      true,
			wantStatus:      http.StatusOK,
			wantEncoding:    "gzip",
			wantContentType: xlsxContentType,
			wantBody:        "PK\x03\x04prep-list",
		},
		{
			name:            "client does not accept gzip",
			handler:         prepList,
			wantStatus:      http.StatusOK,
			wantContentType: xlsxContentType,
			wantBody:        "PK\x03\x04prep-list",
		},
		{
			name:       "no content stays empty",
			handler:    noContent,
			acceptGzip: true,
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(tt.requestBody)
			if tt.gzipRequest {
				body = bytes.NewReader(gzipBytes(t, []byte(tt.requestBody)))
			}
			req := httptest.NewRequest(http.MethodPost, "/api/credentials", body)
			if tt.gzipRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}
			rec := httptest.NewRecorder()

			GzipMiddleware(tt.handler).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			assert.Equal(t, tt.wantContentType, res.Header.Get("Content-Type"))

			var got []byte
			if tt.wantEncoding == "gzip" {
				got = gunzip(t, res.Body)
			} else {
				got, _ = io.ReadAll(res.Body)
			}
			assert.Equal(t, tt.wantBody, string(got))
		})
	}
}

func TestGzipMiddleware_KeepsEncodedResponse(t *testing.T) {
	exposition := "# HELP marketdash_calculator_saves_total Calculator saves.\n"
	encoded := gzipBytes(t, []byte(exposition))

	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(encoded)
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, encoded, rec.Body.Bytes())
	assert.Equal(t, exposition, string(gunzip(t, rec.Body)))
}

func TestGzipMiddleware_BrokenRequestBody(t *testing.T) {
	called := false
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/stock", strings.NewReader(`{"skus":["A"]}`))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}
