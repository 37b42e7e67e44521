package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/vaibh/video-analyzer/internal/media"
	"github.com/vaibh/video-analyzer/internal/queue"
)

func newKeyframesApp(t *testing.T, uploadDir string) (*fiber.App, *queue.Store) {
	t.Helper()

	store := queue.NewStore()
	handler := NewKeyframesHandler(uploadDir, store, media.NewFrameArchiver(t.TempDir()))

	app := fiber.New()
	app.Post("/api/keyframes", handler.Handle)
	return app, store
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestKeyframesUnknownJob(t *testing.T) {
	app, _ := newKeyframesApp(t, t.TempDir())

	resp, body := postJSON(t, app, "/api/keyframes", map[string]string{"job_id": "missing"})
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_JOB_NOT_FOUND" {
		t.Errorf("code = %q", code)
	}
}

func TestKeyframesJobStillRunning(t *testing.T) {
	app, store := newKeyframesApp(t, t.TempDir())
	job := store.Create(queue.JobSpec{VideoName: "demo"})

	resp, body := postJSON(t, app, "/api/keyframes", map[string]string{"job_id": job.ID})
	if resp.StatusCode != 409 {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_JOB_NOT_DONE" {
		t.Errorf("code = %q", code)
	}
}

func TestKeyframesJobWithoutList(t *testing.T) {
	app, store := newKeyframesApp(t, t.TempDir())
	job := store.Create(queue.JobSpec{VideoName: "demo"})
	job.Complete("Обычный текст анализа без списка ключевых кадров.")

	resp, body := postJSON(t, app, "/api/keyframes", map[string]string{"job_id": job.ID})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_NO_KEYFRAMES" {
		t.Errorf("code = %q", code)
	}
}

func TestKeyframesParsedFromJobResult(t *testing.T) {
	uploadDir := t.TempDir()
	app, store := newKeyframesApp(t, uploadDir)

	// Source video deleted after the job finished: the list parses out of
	// the stored analysis, then the file check rejects the request
	job := store.Create(queue.JobSpec{
		VideoName: "demo",
		FilePath:  filepath.Join(uploadDir, "gone.mp4"),
	})
	job.Complete("Итог.\n\n```json\n" +
		`[{"timecode": "00:00:42", "title": "Панель настроек"}]` +
		"\n```\n")

	resp, body := postJSON(t, app, "/api/keyframes", map[string]string{"job_id": job.ID})
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_FILE_NOT_FOUND" {
		t.Errorf("code = %q, want ERR_FILE_NOT_FOUND", code)
	}
}

func TestKeyframesMissingFilename(t *testing.T) {
	app, _ := newKeyframesApp(t, t.TempDir())

	resp, body := postJSON(t, app, "/api/keyframes", map[string]string{"filename": "../escape.mp4"})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_NO_FILENAME" {
		t.Errorf("code = %q", code)
	}
}

func TestKeyframesFileNotFound(t *testing.T) {
	app, _ := newKeyframesApp(t, t.TempDir())

	resp, body := postJSON(t, app, "/api/keyframes", map[string]interface{}{
		"filename":  "absent.mp4",
		"keyframes": []map[string]string{{"timecode": "00:10", "title": "x"}},
	})
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if code, _ := body["code"].(string); code != "ERR_FILE_NOT_FOUND" {
		t.Errorf("code = %q", code)
	}
}
