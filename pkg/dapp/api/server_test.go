package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/betting/gateway"
	"github.com/phenomenon0/betpool/pkg/betting/pager"
	"github.com/phenomenon0/betpool/pkg/dapp/board"
	"github.com/phenomenon0/betpool/pkg/eth"
)

var ownerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type stubGateway struct {
	account  common.Address
	readErr  error
	writeErr error
	writeRes *gateway.TxResult
	lastSide betting.Side
	lastRole betting.Role

	postsStarted chan uint64
	postsGate    map[uint64]chan struct{}
}

func (g *stubGateway) Account(context.Context) (common.Address, error) {
	if g.readErr != nil {
		return common.Address{}, g.readErr
	}
	return g.account, nil
}

func (g *stubGateway) IsAdmin(_ context.Context, a common.Address) (bool, error) {
	return a == ownerAddr, nil
}

func (g *stubGateway) tx() (*gateway.TxResult, error) {
	if g.writeErr != nil {
		return g.writeRes, g.writeErr
	}
	return &gateway.TxResult{Hash: common.HexToHash("0x01"), Succeeded: true, Status: 1}, nil
}

func (g *stubGateway) CreateMatch(context.Context, string, string) (*gateway.TxResult, error) {
	return g.tx()
}

func (g *stubGateway) FinishMatch(context.Context, uint64, uint64, uint64) (*gateway.TxResult, error) {
	return g.tx()
}

func (g *stubGateway) CreateBettingPost(_ context.Context, _ uint64, _, _ int64, stake string) (*gateway.TxResult, error) {
	if _, err := eth.ToWei(stake); err != nil {
		return nil, err
	}
	return g.tx()
}

func (g *stubGateway) ContributeStake(context.Context, uint64, string) (*gateway.TxResult, error) {
	return g.tx()
}

func (g *stubGateway) PlaceBet(_ context.Context, _ uint64, side betting.Side, _ string) (*gateway.TxResult, error) {
	g.lastSide = side
	return g.tx()
}

func (g *stubGateway) ClaimReward(_ context.Context, _ uint64, role betting.Role) (*gateway.TxResult, error) {
	g.lastRole = role
	return g.tx()
}

func (g *stubGateway) ActiveMatches(context.Context, uint64, uint64) (betting.Page[betting.Match], error) {
	if g.readErr != nil {
		return betting.Page[betting.Match]{}, g.readErr
	}
	return betting.Page[betting.Match]{
		Items: []betting.Match{
			{ID: 1, Home: "Manchester United", Away: "Liverpool", IsActive: true},
			{ID: 2, Home: "Arsenal", Away: "Chelsea", IsActive: true},
		},
		Success: true,
		HasMore: true,
	}, nil
}

func (g *stubGateway) PostsByMatch(_ context.Context, matchID, _, _ uint64) (betting.Page[betting.PlayerPost], error) {
	if g.postsStarted != nil {
		g.postsStarted <- matchID
	}
	if gate := g.postsGate[matchID]; gate != nil {
		<-gate
	}
	stake, _ := eth.ParseAmount("2")
	post := betting.Post{ID: 7, MatchID: matchID, HomeHandicap: 150, TotalStake: stake, IsInitialized: true}
	return betting.Page[betting.PlayerPost]{
		Items:   []betting.PlayerPost{{Post: post, Status: post.StatusFor(betting.RolePlayer)}},
		Success: true,
	}, nil
}

func (g *stubGateway) MyBetPosts(context.Context, uint64, uint64) (betting.Page[betting.PlayerPost], error) {
	return betting.Page[betting.PlayerPost]{Success: true}, nil
}

func (g *stubGateway) HostedPosts(context.Context, uint64, uint64) (betting.Page[betting.BankerPost], error) {
	return betting.Page[betting.BankerPost]{Success: false}, nil
}

func (g *stubGateway) UserStake(context.Context, uint64, common.Address) (eth.Amount, error) {
	return eth.ParseAmount("0.25")
}

func newTestServer(gw *stubGateway) http.Handler {
	registry := prometheus.NewRegistry()
	b := board.New(gw, 100)
	return NewServer(b,
		WithMetrics(registry),
		WithCORSOrigins([]string{"http://localhost:3000"}),
	).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("Invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGateway{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Expected 200 ok, got %d %v", rec.Code, body)
	}
}

func TestListMatches(t *testing.T) {
	h := newTestServer(&stubGateway{})

	rec, body := do(t, h, http.MethodGet, "/api/matches", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if items := body["items"].([]interface{}); len(items) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(items))
	}
	if body["hasMore"] != true || body["state"] != "success" {
		t.Errorf("Unexpected envelope: %v", body)
	}

	_, body = do(t, h, http.MethodGet, "/api/matches?team=LIVERPOOL", "")
	if items := body["items"].([]interface{}); len(items) != 1 {
		t.Errorf("Expected 1 filtered match, got %d", len(items))
	}
}

func TestListPostsDisplaysEther(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGateway{}), http.MethodGet, "/api/matches/1/posts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	post := body["items"].([]interface{})[0].(map[string]interface{})
	if post["totalStake"] != "2" {
		t.Errorf("Expected totalStake \"2\", got %v", post["totalStake"])
	}
	if post["homeHandicapScore"] != float64(150) {
		t.Errorf("Expected handicap 150, got %v", post["homeHandicapScore"])
	}
	if post["status"] != "ACTIVE" {
		t.Errorf("Expected ACTIVE, got %v", post["status"])
	}
}

func TestSupersededPostsRequest(t *testing.T) {
	gate := make(chan struct{})
	gw := &stubGateway{
		postsStarted: make(chan uint64, 2),
		postsGate:    map[uint64]chan struct{}{1: gate},
	}
	h := newTestServer(gw)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/1/posts", nil))
		first <- rec
	}()
	if id := <-gw.postsStarted; id != 1 {
		t.Fatalf("Expected match 1 fetch first, got %d", id)
	}

	rec, body := do(t, h, http.MethodGet, "/api/matches/2/posts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for match 2, got %d", rec.Code)
	}
	if body["filter"] != float64(2) {
		t.Errorf("Expected filter 2, got %v", body["filter"])
	}
	post := body["items"].([]interface{})[0].(map[string]interface{})
	if post["matchId"] != float64(2) {
		t.Errorf("Expected match 2 post, got %v", post["matchId"])
	}

	close(gate)
	stale := <-first

	if stale.Code != http.StatusConflict {
		t.Errorf("Expected 409 for superseded request, got %d", stale.Code)
	}
	var staleBody map[string]interface{}
	if err := json.Unmarshal(stale.Body.Bytes(), &staleBody); err != nil {
		t.Fatalf("Invalid JSON response %q: %v", stale.Body.String(), err)
	}
	if staleBody["filter"] != float64(1) {
		t.Errorf("Expected filter 1 on superseded response, got %v", staleBody["filter"])
	}
	if items, ok := staleBody["items"].([]interface{}); !ok || len(items) != 0 {
		t.Errorf("Expected no items on superseded response, got %v", staleBody["items"])
	}
	if staleBody["error"] == nil {
		t.Error("Expected error attached")
	}
}

func TestListErrorKeepsEnvelope(t *testing.T) {
	gw := &stubGateway{readErr: fmt.Errorf("%w: %w", betting.ErrNotInitialized, betting.ErrProviderUnavailable)}
	rec, body := do(t, newTestServer(gw), http.MethodGet, "/api/matches", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	if body["error"] == nil {
		t.Error("Expected error attached")
	}
	if _, ok := body["items"].([]interface{}); !ok {
		t.Errorf("Expected items array, got %v", body["items"])
	}
}

func TestUnsuccessfulPage(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGateway{}), http.MethodGet, "/api/posts/hosted", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestPlaceBet(t *testing.T) {
	gw := &stubGateway{}
	h := newTestServer(gw)

	rec, body := do(t, h, http.MethodPost, "/api/posts/7/bets", `{"side":"away","amount":"0.5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rec.Code, body)
	}
	if gw.lastSide != betting.SideAway {
		t.Errorf("Expected away bet, got %s", gw.lastSide)
	}
	tx := body["tx"].(map[string]interface{})
	if tx["succeeded"] != true {
		t.Errorf("Expected succeeded tx, got %v", tx)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/posts/7/bets", `{"side":"draw","amount":"0.5"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad side, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/posts/abc/bets", `{"side":"home","amount":"0.5"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/posts/7/bets", `{"side":"home","amount":"0.5","extra":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestCreatePostInvalidStake(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGateway{}), http.MethodPost, "/api/posts",
		`{"matchId":1,"homeHandicapScore":150,"awayHandicapScore":-150,"stake":"lots"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestCreateMatchRequiresAdmin(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGateway{account: common.HexToAddress("0x02")}),
		http.MethodPost, "/api/matches", `{"home":"A","away":"B"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}

	rec, _ = do(t, newTestServer(&stubGateway{account: ownerAddr}),
		http.MethodPost, "/api/matches", `{"home":"A","away":"B"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for owner, got %d", rec.Code)
	}
}

func TestRevertedWrite(t *testing.T) {
	gw := &stubGateway{
		writeErr: &betting.RevertError{Method: "makeBet", Status: 0},
		writeRes: &gateway.TxResult{Hash: common.HexToHash("0x02")},
	}
	rec, body := do(t, newTestServer(gw), http.MethodPost, "/api/posts/7/claim?role=banker", "")

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", rec.Code)
	}
	if body["tx"] == nil {
		t.Error("Expected receipt attached to reverted write")
	}
	if gw.lastRole != betting.RoleBanker {
		t.Errorf("Expected banker claim, got %s", gw.lastRole)
	}
}

func TestUnconfirmedWriteCarriesHash(t *testing.T) {
	gw := &stubGateway{
		writeErr: context.DeadlineExceeded,
		writeRes: &gateway.TxResult{Hash: common.HexToHash("0x03")},
	}
	rec, body := do(t, newTestServer(gw), http.MethodPost, "/api/posts/7/stake", `{"amount":"1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	tx, ok := body["tx"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected tx attached to unconfirmed write, got %v", body)
	}
	if tx["hash"] != common.HexToHash("0x03").Hex() {
		t.Errorf("Expected hash %s, got %v", common.HexToHash("0x03").Hex(), tx["hash"])
	}
}

func TestClaimBadRole(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGateway{}), http.MethodPost, "/api/posts/7/claim?role=owner", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestUserStake(t *testing.T) {
	h := newTestServer(&stubGateway{})

	rec, body := do(t, h, http.MethodGet, "/api/posts/7/stakes/"+ownerAddr.Hex(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["stake"] != "0.25" {
		t.Errorf("Expected stake 0.25, got %v", body["stake"])
	}

	rec, _ = do(t, h, http.MethodGet, "/api/posts/7/stakes/nothex", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestAccount(t *testing.T) {
	rec, body := do(t, newTestServer(&stubGateway{account: ownerAddr}), http.MethodGet, "/api/account", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["isAdmin"] != true {
		t.Errorf("Expected isAdmin, got %v", body)
	}

	gw := &stubGateway{readErr: fmt.Errorf("%w: %w", betting.ErrNotInitialized, betting.ErrUserRejected)}
	rec, _ = do(t, newTestServer(gw), http.MethodGet, "/api/account", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for rejected wallet, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&stubGateway{})

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := do(t, newTestServer(&stubGateway{}), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{betting.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{betting.ErrNotInitialized, http.StatusServiceUnavailable},
		{betting.ErrUserRejected, http.StatusForbidden},
		{betting.ErrNotAdmin, http.StatusForbidden},
		{&betting.RevertError{}, http.StatusConflict},
		{&betting.ShapeError{Kind: "post", Index: -1}, http.StatusBadGateway},
		{pager.ErrStale, http.StatusConflict},
		{betting.ErrInvalidAmount, http.StatusBadRequest},
		{betting.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
