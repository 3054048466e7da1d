package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	baseURL  = flag.String("base", "http://localhost:3000/api", "API base URL")
	token    = flag.String("token", "", "bearer token; empty uses the demo principal")
	settle   = flag.Duration("settle", 10*time.Second, "how long to wait for processing to finish")
	client   = &http.Client{Timeout: 30 * time.Second}
	failures int
)

type recording struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

func sendRequest(method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequest(method, *baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func sendJSON(method, path string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	return sendRequest(method, path, "application/json", body)
}

func upload(clientId string, withFile bool) (int, []byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("clientId", clientId)
	_ = w.WriteField("meetingDate", time.Now().Format("2006-01-02"))
	_ = w.WriteField("meetingType", "smoke-test")
	if withFile {
		part, err := w.CreateFormFile("file", "smoke.mp3")
		if err != nil {
			return 0, nil, err
		}
		_, _ = part.Write([]byte("ID3 smoke test audio"))
	}
	_ = w.Close()
	return sendRequest(http.MethodPost, "/recordings", w.FormDataContentType(), &body)
}

func check(name string, ok bool, detail string) {
	if ok {
		color.Green("  ✔ %s", name)
		return
	}
	failures++
	color.Red("  ✘ %s: %s", name, detail)
}

func expectStatus(name string, want int, got int, body []byte, err error) bool {
	if err != nil {
		check(name, false, err.Error())
		return false
	}
	check(name, got == want, fmt.Sprintf("want %d, got %d %s", want, got, body))
	return got == want
}

func main() {
	flag.Parse()
	color.Cyan("Smoke-testing %s\n", *baseURL)

	color.Yellow("\n[1] Health")
	code, body, err := sendJSON(http.MethodGet, "/health", nil)
	if !expectStatus("GET /health", http.StatusOK, code, body, err) {
		color.Red("Server is not healthy, giving up")
		os.Exit(1)
	}

	color.Yellow("\n[2] Messages")
	marker := uuid.NewString()
	code, body, err = sendJSON(http.MethodPost, "/messages", map[string]string{"content": marker, "sender": "user"})
	expectStatus("POST /messages", http.StatusCreated, code, body, err)
	code, body, err = sendJSON(http.MethodPost, "/messages", map[string]string{"content": marker, "sender": "robot"})
	expectStatus("POST /messages with a bad sender", http.StatusBadRequest, code, body, err)
	code, body, err = sendJSON(http.MethodGet, "/messages?limit=1", nil)
	if expectStatus("GET /messages", http.StatusOK, code, body, err) {
		var msgs []map[string]interface{}
		_ = json.Unmarshal(body, &msgs)
		check("newest message first", len(msgs) == 1 && msgs[0]["content"] == marker, string(body))
	}

	color.Yellow("\n[3] Settings")
	code, body, err = sendJSON(http.MethodPut, "/settings", map[string]interface{}{
		"calendarConnected": true, "recordingRule": "always", "exclusions": marker,
	})
	expectStatus("PUT /settings", http.StatusOK, code, body, err)
	code, body, err = sendJSON(http.MethodGet, "/settings", nil)
	if expectStatus("GET /settings", http.StatusOK, code, body, err) {
		var s map[string]interface{}
		_ = json.Unmarshal(body, &s)
		check("GET returns the last write", s["exclusions"] == marker && s["recordingRule"] == "always", string(body))
	}

	color.Yellow("\n[4] Recordings")
	clientId := "smoke-" + marker[:8]
	code, body, err = upload(clientId, false)
	expectStatus("POST /recordings without a file", http.StatusBadRequest, code, body, err)

	var auto, patched recording
	code, body, err = upload(clientId, true)
	if expectStatus("POST /recordings", http.StatusCreated, code, body, err) {
		_ = json.Unmarshal(body, &auto)
		check("new recording is processing", auto.Status == "processing", string(body))
	}
	code, body, err = upload(clientId, true)
	if expectStatus("POST /recordings (to be patched)", http.StatusCreated, code, body, err) {
		_ = json.Unmarshal(body, &patched)
	}
	if patched.Id != "" {
		code, body, err = sendJSON(http.MethodPatch, "/recordings/"+patched.Id+"/status", map[string]string{"status": "error"})
		expectStatus("PATCH status to error", http.StatusOK, code, body, err)
	}
	code, body, err = sendJSON(http.MethodPatch, "/recordings/"+uuid.NewString()+"/status", map[string]string{"status": "ready"})
	expectStatus("PATCH unknown recording", http.StatusNotFound, code, body, err)

	color.Yellow("\n[5] Processing (waiting up to %s)", *settle)
	deadline := time.Now().Add(*settle)
	statuses := map[string]string{}
	for time.Now().Before(deadline) {
		code, body, err = sendJSON(http.MethodGet, "/recordings/"+clientId, nil)
		if err == nil && code == http.StatusOK {
			var list []recording
			_ = json.Unmarshal(body, &list)
			for _, r := range list {
				statuses[r.Id] = r.Status
			}
			if statuses[auto.Id] == "ready" {
				break
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	check("uploaded recording becomes ready", statuses[auto.Id] == "ready", "status "+statuses[auto.Id])
	check("patched recording stays error", statuses[patched.Id] == "error", "status "+statuses[patched.Id])

	fmt.Println()
	if failures > 0 {
		color.Red("%d check(s) failed", failures)
		os.Exit(1)
	}
	color.Cyan("All checks passed")
}
