// Package gateway is the client of the handicap betting contract. It connects
// to the wallet and contract lazily, exactly once, and exposes one method per
// contract function.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/eth"
)

const (
	defaultRateLimit = 10 // calls per second
	defaultBurst     = 5
)

// Recorder receives call and transaction outcomes.
type Recorder interface {
	RecordCall(method, kind, outcome string, d time.Duration)
	RecordTransaction(method, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCall(string, string, string, time.Duration) {}
func (nopRecorder) RecordTransaction(string, string)                 {}

// TxResult is the outcome of a mined transaction.
type TxResult struct {
	Hash        common.Hash `json:"hash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
	Status      uint64      `json:"status"`
	Succeeded   bool        `json:"succeeded"`
}

// Gateway is the contract client.
type Gateway struct {
	connector Connector
	limiter   *rate.Limiter
	logger    *zap.Logger
	metrics   Recorder

	mu      sync.Mutex
	session *Session

	ownerMu sync.Mutex
	owner   *common.Address
}

// Option configures the gateway.
type Option func(*Gateway)

// WithRateLimit throttles outbound RPC calls.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(g *Gateway) {
		g.metrics = r
	}
}

// New creates a gateway. No connection is made until the first operation.
func New(connector Connector, opts ...Option) *Gateway {
	g := &Gateway{
		connector: connector,
		limiter:   rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:    zap.NewNop(),
		metrics:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the established session, connecting on first use.
// A failed attempt is not remembered; the next call tries again.
func (g *Gateway) Session(ctx context.Context) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		return g.session, nil
	}

	s, err := g.connector.Connect(ctx)
	if err != nil {
		g.logger.Warn("contract session not established", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", betting.ErrNotInitialized, err)
	}

	g.session = s
	g.logger.Info("contract session established",
		zap.String("account", s.Account.Hex()),
		zap.Stringer("chain_id", s.ChainID),
	)
	return s, nil
}

// Account returns the connected account.
func (g *Gateway) Account(ctx context.Context) (common.Address, error) {
	s, err := g.Session(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return s.Account, nil
}

// ==================== Writes ====================

// CreateMatch registers a fixture. Owner only on-chain.
func (g *Gateway) CreateMatch(ctx context.Context, home, away string) (*TxResult, error) {
	home, away = strings.TrimSpace(home), strings.TrimSpace(away)
	if home == "" || away == "" {
		return nil, fmt.Errorf("%s: %w: team names are required", methodCreateMatch, betting.ErrInvalidInput)
	}
	return g.transact(ctx, methodCreateMatch, nil, home, away)
}

// FinishMatch settles a match with its final score. Owner only on-chain.
func (g *Gateway) FinishMatch(ctx context.Context, matchID, homeScore, awayScore uint64) (*TxResult, error) {
	return g.transact(ctx, methodFinishMatch, nil, u256(matchID), u256(homeScore), u256(awayScore))
}

// CreateBettingPost opens a post on a match funded with stake (ether).
func (g *Gateway) CreateBettingPost(ctx context.Context, matchID uint64, homeHandicap, awayHandicap int64, stake string) (*TxResult, error) {
	value, err := payment(methodCreatePost, stake)
	if err != nil {
		return nil, err
	}
	return g.transact(ctx, methodCreatePost, value, u256(matchID), big.NewInt(homeHandicap), big.NewInt(awayHandicap))
}

// ContributeStake adds amount (ether) to a post's banker pool.
func (g *Gateway) ContributeStake(ctx context.Context, postID uint64, amount string) (*TxResult, error) {
	value, err := payment(methodContribute, amount)
	if err != nil {
		return nil, err
	}
	return g.transact(ctx, methodContribute, value, u256(postID))
}

// PlaceBet bets amount (ether) on side of a post.
func (g *Gateway) PlaceBet(ctx context.Context, postID uint64, side betting.Side, amount string) (*TxResult, error) {
	value, err := payment(methodMakeBet, amount)
	if err != nil {
		return nil, err
	}
	return g.transact(ctx, methodMakeBet, value, u256(postID), side == betting.SideHome)
}

// ClaimPlayerReward claims a bettor's winnings.
func (g *Gateway) ClaimPlayerReward(ctx context.Context, postID uint64) (*TxResult, error) {
	return g.transact(ctx, methodPlayerClaim, nil, u256(postID))
}

// ClaimBankerReward claims a banker's share of the pool.
func (g *Gateway) ClaimBankerReward(ctx context.Context, postID uint64) (*TxResult, error) {
	return g.transact(ctx, methodBankerClaim, nil, u256(postID))
}

// ClaimReward routes to the player or banker claim.
func (g *Gateway) ClaimReward(ctx context.Context, postID uint64, role betting.Role) (*TxResult, error) {
	if role == betting.RoleBanker {
		return g.ClaimBankerReward(ctx, postID)
	}
	return g.ClaimPlayerReward(ctx, postID)
}

// ==================== Reads ====================

// ActiveMatches returns one page of active matches.
func (g *Gateway) ActiveMatches(ctx context.Context, pageSize, page uint64) (betting.Page[betting.Match], error) {
	if pageSize == 0 {
		return betting.Page[betting.Match]{}, errPageSize(methodActiveMatches)
	}
	out, err := g.call(ctx, methodActiveMatches, u256(pageSize), u256(page))
	if err != nil {
		return betting.Page[betting.Match]{}, err
	}
	return decoded(g, methodActiveMatches, betting.DecodeMatchPage, out)
}

// PostsByMatch returns one page of a match's posts, player view.
func (g *Gateway) PostsByMatch(ctx context.Context, matchID, pageSize, page uint64) (betting.Page[betting.PlayerPost], error) {
	if pageSize == 0 {
		return betting.Page[betting.PlayerPost]{}, errPageSize(methodPostsByMatch)
	}
	out, err := g.call(ctx, methodPostsByMatch, u256(matchID), u256(pageSize), u256(page))
	if err != nil {
		return betting.Page[betting.PlayerPost]{}, err
	}
	return decoded(g, methodPostsByMatch, betting.DecodePlayerPostPage, out)
}

// MyBetPosts returns one page of the posts the account has bet in.
func (g *Gateway) MyBetPosts(ctx context.Context, pageSize, page uint64) (betting.Page[betting.PlayerPost], error) {
	if pageSize == 0 {
		return betting.Page[betting.PlayerPost]{}, errPageSize(methodMyPosts)
	}
	out, err := g.call(ctx, methodMyPosts, u256(pageSize), u256(page))
	if err != nil {
		return betting.Page[betting.PlayerPost]{}, err
	}
	return decoded(g, methodMyPosts, betting.DecodePlayerPostPage, out)
}

// HostedPosts returns one page of the posts the account banks.
func (g *Gateway) HostedPosts(ctx context.Context, pageSize, page uint64) (betting.Page[betting.BankerPost], error) {
	if pageSize == 0 {
		return betting.Page[betting.BankerPost]{}, errPageSize(methodHostedPosts)
	}
	out, err := g.call(ctx, methodHostedPosts, u256(pageSize), u256(page))
	if err != nil {
		return betting.Page[betting.BankerPost]{}, err
	}
	return decoded(g, methodHostedPosts, betting.DecodeBankerPostPage, out)
}

// UserStake returns user's banker stake in a post.
func (g *Gateway) UserStake(ctx context.Context, postID uint64, user common.Address) (eth.Amount, error) {
	out, err := g.call(ctx, methodUserStake, u256(postID), user)
	if err != nil {
		return eth.Amount{}, err
	}
	return decoded(g, methodUserStake, func(out []any) (eth.Amount, error) {
		return betting.DecodeAmount("userStake", out)
	}, out)
}

// Owner returns the contract owner. The first successful read is cached.
func (g *Gateway) Owner(ctx context.Context) (common.Address, error) {
	g.ownerMu.Lock()
	defer g.ownerMu.Unlock()

	if g.owner != nil {
		return *g.owner, nil
	}

	out, err := g.call(ctx, methodOwner)
	if err != nil {
		return common.Address{}, err
	}
	owner, err := decoded(g, methodOwner, decodeAddress, out)
	if err != nil {
		return common.Address{}, err
	}

	g.owner = &owner
	return owner, nil
}

// IsAdmin reports whether addr is the contract owner.
func (g *Gateway) IsAdmin(ctx context.Context, addr common.Address) (bool, error) {
	owner, err := g.Owner(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(owner.Hex(), addr.Hex()), nil
}

// ==================== Plumbing ====================

func (g *Gateway) call(ctx context.Context, method string, args ...any) ([]any, error) {
	start := time.Now()
	out, err := g.doCall(ctx, method, args...)
	g.metrics.RecordCall(method, "read", outcome(err), time.Since(start))
	if err != nil {
		g.logger.Warn("contract call failed", zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (g *Gateway) doCall(ctx context.Context, method string, args ...any) ([]any, error) {
	s, err := g.Session(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var out []any
	if err := s.contract.Call(s.callOpts(ctx), &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) transact(ctx context.Context, method string, value *big.Int, args ...any) (*TxResult, error) {
	start := time.Now()
	res, err := g.doTransact(ctx, method, value, args...)
	g.metrics.RecordCall(method, "write", outcome(err), time.Since(start))

	switch {
	case err == nil:
		g.metrics.RecordTransaction(method, "success")
	case errors.Is(err, betting.ErrReverted):
		g.metrics.RecordTransaction(method, "reverted")
	case res == nil:
		g.metrics.RecordTransaction(method, "not_sent")
	default:
		g.metrics.RecordTransaction(method, "unconfirmed")
	}

	if err != nil {
		g.logger.Warn("contract transaction failed", zap.String("method", method), zap.Error(err))
		return res, fmt.Errorf("%s: %w", method, err)
	}
	return res, nil
}

func (g *Gateway) doTransact(ctx context.Context, method string, value *big.Int, args ...any) (*TxResult, error) {
	s, err := g.Session(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	tx, err := s.contract.Transact(s.transactOpts(ctx, value), method, args...)
	if err != nil {
		if errors.Is(err, keystore.ErrLocked) {
			return nil, fmt.Errorf("%w: %w", betting.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("submit: %w", err)
	}

	g.logger.Info("transaction submitted",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
	)

	receipt, err := s.waiter.WaitMined(ctx, tx)
	if err != nil {
		return &TxResult{Hash: tx.Hash()}, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}

	res := &TxResult{
		Hash:      tx.Hash(),
		GasUsed:   receipt.GasUsed,
		Status:    receipt.Status,
		Succeeded: receipt.Status == eth.ReceiptSuccess,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	if !res.Succeeded {
		return res, &betting.RevertError{Method: method, TxHash: res.Hash, Status: receipt.Status}
	}

	g.logger.Info("transaction confirmed",
		zap.String("method", method),
		zap.String("tx", res.Hash.Hex()),
		zap.Uint64("block", res.BlockNumber),
	)
	return res, nil
}

func decoded[T any](g *Gateway, method string, decode func([]any) (T, error), out []any) (T, error) {
	v, err := decode(out)
	if err != nil {
		g.logger.Error("contract response rejected", zap.String("method", method), zap.Error(err))
		var zero T
		return zero, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func decodeAddress(out []any) (common.Address, error) {
	if len(out) != 1 {
		return common.Address{}, &betting.ShapeError{
			Kind: "owner", Version: betting.LayoutVersion, Index: -1,
			Want: "1 slot", Got: fmt.Sprintf("%d slots", len(out)),
		}
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, &betting.ShapeError{
			Kind: "owner", Version: betting.LayoutVersion, Field: "owner", Index: 0,
			Want: "address", Got: fmt.Sprintf("%T", out[0]),
		}
	}
	return addr, nil
}

func payment(method, amount string) (*big.Int, error) {
	wei, err := eth.ToWei(amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if wei.Sign() == 0 {
		return nil, fmt.Errorf("%s: %w: amount must be positive", method, betting.ErrInvalidAmount)
	}
	return wei, nil
}

func errPageSize(method string) error {
	return fmt.Errorf("%s: %w: page size must be positive", method, betting.ErrInvalidInput)
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
