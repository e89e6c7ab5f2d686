package postimage_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feed_service/internal/files"
	"feed_service/internal/http_server/handlers/postimage"
	"feed_service/internal/lib/jwt"
	"feed_service/internal/middleware/authgate"
	"feed_service/internal/models"

	"github.com/go-chi/chi"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type env struct {
	router *chi.Mux
	images *files.Store
	tokens *jwt.TokenService
	dir    string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "images")

	images, err := files.New(dir)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwt.New("testsecret", time.Hour)

	r := chi.NewRouter()
	r.Use(authgate.New(tokens))
	r.Post("/post-image", postimage.New(log, images))

	return &env{router: r, images: images, tokens: tokens, dir: dir}
}

func (e *env) token(t *testing.T) string {
	t.Helper()

	token, err := e.tokens.Issue(models.Identity{
		UserID: primitive.NewObjectID().Hex(),
		Email:  "a@b.com",
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	return token
}

func uploadBody(t *testing.T, filename, contentType, oldPath string) (*bytes.Buffer, string) {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if oldPath != "" {
		if err := w.WriteField("oldPath", oldPath); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if filename != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &b, w.FormDataContentType()
}

func (e *env) do(t *testing.T, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(http.MethodPost, "/post-image", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func decodeUpload(t *testing.T, rec *httptest.ResponseRecorder) (message, filePath string) {
	t.Helper()

	var body struct {
		Message  string `json:"message"`
		FilePath string `json:"filePath"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return body.Message, body.FilePath
}

func TestUploadRequiresAuth(t *testing.T) {
	e := newEnv(t)

	body, ct := uploadBody(t, "cat.png", "image/png", "")

	rec := e.do(t, "", body, ct)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	e := newEnv(t)

	body, ct := uploadBody(t, "", "", "")

	rec := e.do(t, e.token(t), body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if message, _ := decodeUpload(t, rec); message != "No file provided!" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestUploadFiltersContentType(t *testing.T) {
	e := newEnv(t)

	body, ct := uploadBody(t, "cat.gif", "image/gif", "")

	rec := e.do(t, e.token(t), body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered upload must read as no file, got %d", rec.Code)
	}
	if message, _ := decodeUpload(t, rec); message != "No file provided!" {
		t.Fatalf("unexpected message %q", message)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		t.Fatalf("read store dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("no file must be stored for a filtered upload")
	}
}

func TestUploadStoresFile(t *testing.T) {
	e := newEnv(t)

	body, ct := uploadBody(t, "cat.png", "image/png", "")

	rec := e.do(t, e.token(t), body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	_, filePath := decodeUpload(t, rec)
	if filePath == "" {
		t.Fatal("expected filePath in response")
	}
	if _, err := os.Stat(filepath.FromSlash(filePath)); err != nil {
		t.Fatalf("stored file missing on disk: %v", err)
	}
}

func TestUploadReplacesOldImage(t *testing.T) {
	e := newEnv(t)

	oldPath, err := e.images.Save(strings.NewReader("old image bytes"), "old.png")
	if err != nil {
		t.Fatalf("seed old image: %v", err)
	}

	body, ct := uploadBody(t, "cat.png", "image/png", oldPath)

	rec := e.do(t, e.token(t), body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	_, filePath := decodeUpload(t, rec)
	if _, err := os.Stat(filepath.FromSlash(filePath)); err != nil {
		t.Fatalf("replacement missing on disk: %v", err)
	}
	if _, err := os.Stat(filepath.FromSlash(oldPath)); !os.IsNotExist(err) {
		t.Fatalf("old image must be removed after the replacement is stored, stat err: %v", err)
	}
}

func TestUploadRemovalFailureNonFatal(t *testing.T) {
	e := newEnv(t)

	gone := filepath.ToSlash(filepath.Join(e.dir, "already-gone.png"))
	body, ct := uploadBody(t, "cat.png", "image/png", gone)

	rec := e.do(t, e.token(t), body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload must succeed when old image removal fails, got %d", rec.Code)
	}
}
