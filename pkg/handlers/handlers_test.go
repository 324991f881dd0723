package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/hub"
	"github.com/rahulxs/ping-chat/pkg/models"
	"github.com/rahulxs/ping-chat/pkg/routes"
	"github.com/rahulxs/ping-chat/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mem := store.NewMemStore()
	mem.AddUser(models.User{ID: "alice", Name: "Alice"})
	mem.AddUser(models.User{ID: "bob", Name: "Bob"})
	mem.AddUser(models.User{ID: "carol", Name: "Carol"})

	wsHub := hub.NewHub(nil)
	go wsHub.Run()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := chat.NewService(mem, wsHub, logger)

	srv := httptest.NewServer(routes.NewRouter(wsHub, svc, []string{"*"}, 1000, 1000))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, userID string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket for %s: %v", userID, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWSEvent(t *testing.T, conn *websocket.Conn) hub.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading websocket event: %v", err)
	}
	var ev hub.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshaling websocket event: %v", err)
	}
	return ev
}

func TestMissingIdentityIsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/api/messages/users", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestOfflineSendThenThreadOpenClearsUnseen(t *testing.T) {
	srv := newTestServer(t)

	// Bob is offline; both sends must still succeed.
	for _, text := range []string{"hey", "you there?"} {
		resp := doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
			models.SendMessageRequest{Text: text})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("send status = %d, want 201", resp.StatusCode)
		}
		var created models.MessageResponse
		decodeBody(t, resp, &created)
		if created.Message.Seen {
			t.Fatal("new message born seen")
		}
	}

	resp := doRequest(t, srv, http.MethodGet, "/api/messages/users", "bob", nil)
	var partners models.PartnersResponse
	decodeBody(t, resp, &partners)
	if partners.UnseenCounts["alice"] != 2 {
		t.Fatalf("unseen from alice = %d, want 2", partners.UnseenCounts["alice"])
	}
	if _, ok := partners.UnseenCounts["carol"]; ok {
		t.Fatal("zero-count entry present in sparse unseen map")
	}
	for _, u := range partners.Users {
		if u.ID == "bob" {
			t.Fatal("viewer listed in own partner roster")
		}
	}

	// Opening the thread marks everything in it seen.
	resp = doRequest(t, srv, http.MethodGet, "/api/messages/alice", "bob", nil)
	var thread models.ThreadResponse
	decodeBody(t, resp, &thread)
	if len(thread.Messages) != 2 {
		t.Fatalf("thread length = %d, want 2", len(thread.Messages))
	}
	if thread.Messages[0].Text != "hey" || thread.Messages[1].Text != "you there?" {
		t.Fatalf("thread out of order: %q, %q", thread.Messages[0].Text, thread.Messages[1].Text)
	}

	resp = doRequest(t, srv, http.MethodGet, "/api/messages/users", "bob", nil)
	var after models.PartnersResponse
	decodeBody(t, resp, &after)
	if len(after.UnseenCounts) != 0 {
		t.Fatalf("unseen counts after opening thread = %v, want empty", after.UnseenCounts)
	}
}

func TestDeleteForEveryoneNotifiesAndRedacts(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
		models.SendMessageRequest{Text: "oops wrong chat"})
	var created models.MessageResponse
	decodeBody(t, resp, &created)
	msgID := created.Message.ID

	bobConn := dialWS(t, srv, "bob")
	if ev := readWSEvent(t, bobConn); ev.Type != hub.EventOnlineUsers {
		t.Fatalf("first event = %q, want roster", ev.Type)
	}

	// The receiver cannot delete for everyone.
	resp = doRequest(t, srv, http.MethodDelete, "/api/messages/delete/"+msgID+"?for=everyone", "bob", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("receiver delete-everyone status = %d, want 403", resp.StatusCode)
	}

	resp = doRequest(t, srv, http.MethodDelete, "/api/messages/delete/"+msgID+"?for=everyone", "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sender delete-everyone status = %d, want 200", resp.StatusCode)
	}

	ev := readWSEvent(t, bobConn)
	if ev.Type != hub.EventMessageDeleted {
		t.Fatalf("event type = %q, want %q", ev.Type, hub.EventMessageDeleted)
	}
	var notice hub.DeletionNotice
	if err := json.Unmarshal(ev.Payload, &notice); err != nil {
		t.Fatalf("unmarshaling notice: %v", err)
	}
	if notice.MessageID != msgID {
		t.Fatalf("notice message id = %q, want %q", notice.MessageID, msgID)
	}

	// The thread keeps a redacted stub in place of the content.
	resp = doRequest(t, srv, http.MethodGet, "/api/messages/alice", "bob", nil)
	var thread models.ThreadResponse
	decodeBody(t, resp, &thread)
	if len(thread.Messages) != 1 {
		t.Fatalf("thread length = %d, want 1", len(thread.Messages))
	}
	got := thread.Messages[0]
	if !got.IsDeleted || got.Text != "" {
		t.Fatalf("message not redacted: %+v", got)
	}
}

func TestDeleteForMeHidesOnlyForRequester(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
		models.SendMessageRequest{Text: "keep this"})
	var created models.MessageResponse
	decodeBody(t, resp, &created)

	resp = doRequest(t, srv, http.MethodDelete, "/api/messages/delete/"+created.Message.ID, "bob", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete-for-me status = %d, want 200", resp.StatusCode)
	}

	resp = doRequest(t, srv, http.MethodGet, "/api/messages/alice", "bob", nil)
	var bobThread models.ThreadResponse
	decodeBody(t, resp, &bobThread)
	if len(bobThread.Messages) != 0 {
		t.Fatalf("deleter still sees %d messages", len(bobThread.Messages))
	}

	resp = doRequest(t, srv, http.MethodGet, "/api/messages/bob", "alice", nil)
	var aliceThread models.ThreadResponse
	decodeBody(t, resp, &aliceThread)
	if len(aliceThread.Messages) != 1 || aliceThread.Messages[0].Text != "keep this" {
		t.Fatalf("other party lost the message: %+v", aliceThread.Messages)
	}
}

func TestCallLogClampsAndPushesToOtherParty(t *testing.T) {
	srv := newTestServer(t)

	bobConn := dialWS(t, srv, "bob")
	if ev := readWSEvent(t, bobConn); ev.Type != hub.EventOnlineUsers {
		t.Fatalf("first event = %q, want roster", ev.Type)
	}

	resp := doRequest(t, srv, http.MethodPost, "/api/messages/call-log", "alice",
		models.CallLogRequest{
			OtherUserID:  "bob",
			CallType:     "video",
			CallStatus:   "missed",
			CallDuration: -17,
			WasCaller:    true,
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("call-log status = %d, want 201", resp.StatusCode)
	}
	var created models.MessageResponse
	decodeBody(t, resp, &created)

	msg := created.Message
	if msg.Kind != models.MessageKindCall {
		t.Fatalf("kind = %q, want call", msg.Kind)
	}
	if msg.CallDuration != 0 {
		t.Fatalf("duration = %d, want clamped to 0", msg.CallDuration)
	}
	if msg.SenderID != "alice" || msg.ReceiverID != "bob" {
		t.Fatalf("pair = %s->%s, want alice->bob", msg.SenderID, msg.ReceiverID)
	}
	if !msg.Seen {
		t.Fatal("call log not born seen")
	}

	ev := readWSEvent(t, bobConn)
	if ev.Type != hub.EventNewMessage {
		t.Fatalf("event type = %q, want %q", ev.Type, hub.EventNewMessage)
	}
	var pushed models.Message
	if err := json.Unmarshal(ev.Payload, &pushed); err != nil {
		t.Fatalf("unmarshaling pushed message: %v", err)
	}
	if pushed.ID != msg.ID {
		t.Fatalf("pushed id = %q, want %q", pushed.ID, msg.ID)
	}

	// Born seen, so the entry never shows up in unseen counts.
	resp = doRequest(t, srv, http.MethodGet, "/api/messages/users", "bob", nil)
	var partners models.PartnersResponse
	decodeBody(t, resp, &partners)
	if len(partners.UnseenCounts) != 0 {
		t.Fatalf("unseen counts = %v, want empty", partners.UnseenCounts)
	}
}

func TestOnlineSendIsPushedImmediately(t *testing.T) {
	srv := newTestServer(t)

	bobConn := dialWS(t, srv, "bob")
	if ev := readWSEvent(t, bobConn); ev.Type != hub.EventOnlineUsers {
		t.Fatalf("first event = %q, want roster", ev.Type)
	}

	resp := doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
		models.SendMessageRequest{Text: "ping"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send status = %d, want 201", resp.StatusCode)
	}

	ev := readWSEvent(t, bobConn)
	if ev.Type != hub.EventNewMessage {
		t.Fatalf("event type = %q, want %q", ev.Type, hub.EventNewMessage)
	}
	var pushed models.Message
	if err := json.Unmarshal(ev.Payload, &pushed); err != nil {
		t.Fatalf("unmarshaling pushed message: %v", err)
	}
	if pushed.Text != "ping" || pushed.SenderID != "alice" {
		t.Fatalf("pushed message = %+v", pushed)
	}
}

func TestOnlineRosterEndpointTracksConnections(t *testing.T) {
	srv := newTestServer(t)

	aliceConn := dialWS(t, srv, "alice")
	readWSEvent(t, aliceConn)

	resp := doRequest(t, srv, http.MethodGet, "/api/messages/online", "bob", nil)
	var roster map[string][]string
	decodeBody(t, resp, &roster)
	online := roster["online_users"]
	if len(online) != 1 || online[0] != "alice" {
		t.Fatalf("online roster = %v, want [alice]", online)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	// Unknown message id maps to 404.
	resp := doRequest(t, srv, http.MethodPut, "/api/messages/mark/nope", "bob", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("mark unknown status = %d, want 404", resp.StatusCode)
	}

	// Contentless send maps to 400.
	resp = doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
		models.SendMessageRequest{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty send status = %d, want 400", resp.StatusCode)
	}

	// Marking your own outgoing message maps to 403.
	sendResp := doRequest(t, srv, http.MethodPost, "/api/messages/send/bob", "alice",
		models.SendMessageRequest{Text: "hi"})
	var created models.MessageResponse
	decodeBody(t, sendResp, &created)
	resp = doRequest(t, srv, http.MethodPut, "/api/messages/mark/"+created.Message.ID, "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("self-mark status = %d, want 403", resp.StatusCode)
	}

	// Unknown delete scope maps to 400.
	resp = doRequest(t, srv, http.MethodDelete, "/api/messages/delete/"+created.Message.ID+"?for=later", "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad scope status = %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketRequiresUserID(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("handshake succeeded without userId")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("handshake response = %+v, want 400", resp)
	}
}
