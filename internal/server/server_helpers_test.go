package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, ts *httptest.Server, token, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		var body bytes.Buffer
		_, _ = body.ReadFrom(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, body.String())
	}
}

type testUser struct {
	ID    string
	Token string
}

func registerUser(t *testing.T, ts *httptest.Server, email, username string) testUser {
	t.Helper()
	resp := doRequest(t, ts, "", http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": "hunter22",
	})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	return testUser{ID: user["id"].(string), Token: body["access_token"].(string)}
}

func createRoom(t *testing.T, ts *httptest.Server, host testUser, maxPlayers, rounds int) string {
	t.Helper()
	resp := doRequest(t, ts, host.Token, http.MethodPost, "/api/rooms", map[string]int{
		"max_players":  maxPlayers,
		"total_rounds": rounds,
	})
	expectStatus(t, resp, http.StatusCreated)
	return decodeBody(t, resp)["room_code"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, user testUser, code string) {
	t.Helper()
	resp := doRequest(t, ts, user.Token, http.MethodPost, "/api/rooms/join", map[string]string{"code": code})
	expectStatus(t, resp, http.StatusOK)
}

func startGame(t *testing.T, ts *httptest.Server, host testUser, code string) string {
	t.Helper()
	resp := doRequest(t, ts, host.Token, http.MethodPost, "/api/game/"+code+"/start", nil)
	expectStatus(t, resp, http.StatusOK)
	round := decodeBody(t, resp)["round"].(map[string]any)
	return round["id"].(string)
}

func submitAnswer(t *testing.T, ts *httptest.Server, user testUser, code, roundID, content string) string {
	t.Helper()
	resp := doRequest(t, ts, user.Token, http.MethodPost, "/api/game/"+code+"/rounds/"+roundID+"/answer", map[string]string{"content": content})
	expectStatus(t, resp, http.StatusCreated)
	return decodeBody(t, resp)["id"].(string)
}

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
