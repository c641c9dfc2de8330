// Package board composes the contract reads and writes the betting UI needs:
// one pagination cursor per list, writes followed by a re-fetch of the lists
// they affect, and lifecycle events for the streaming hub.
package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/betting/gateway"
	"github.com/phenomenon0/betpool/pkg/betting/pager"
	"github.com/phenomenon0/betpool/pkg/dapp/streaming"
	"github.com/phenomenon0/betpool/pkg/eth"
)

// List names used in events and metrics.
const (
	ListMatches = "matches"
	ListPosts   = "posts"
	ListMyBets  = "my_bets"
	ListHosted  = "hosted"
)

// Gateway is the contract surface the board uses. *gateway.Gateway satisfies it.
type Gateway interface {
	Account(ctx context.Context) (common.Address, error)
	IsAdmin(ctx context.Context, addr common.Address) (bool, error)

	CreateMatch(ctx context.Context, home, away string) (*gateway.TxResult, error)
	FinishMatch(ctx context.Context, matchID, homeScore, awayScore uint64) (*gateway.TxResult, error)
	CreateBettingPost(ctx context.Context, matchID uint64, homeHandicap, awayHandicap int64, stake string) (*gateway.TxResult, error)
	ContributeStake(ctx context.Context, postID uint64, amount string) (*gateway.TxResult, error)
	PlaceBet(ctx context.Context, postID uint64, side betting.Side, amount string) (*gateway.TxResult, error)
	ClaimReward(ctx context.Context, postID uint64, role betting.Role) (*gateway.TxResult, error)

	ActiveMatches(ctx context.Context, pageSize, page uint64) (betting.Page[betting.Match], error)
	PostsByMatch(ctx context.Context, matchID, pageSize, page uint64) (betting.Page[betting.PlayerPost], error)
	MyBetPosts(ctx context.Context, pageSize, page uint64) (betting.Page[betting.PlayerPost], error)
	HostedPosts(ctx context.Context, pageSize, page uint64) (betting.Page[betting.BankerPost], error)
	UserStake(ctx context.Context, postID uint64, user common.Address) (eth.Amount, error)
}

// Publisher receives board events. *streaming.Hub satisfies it.
type Publisher interface {
	BroadcastTx(eventType streaming.EventType, tx streaming.TxEvent)
	BroadcastList(list string, items int, hasMore bool)
	BroadcastError(err error, context string)
}

// ValueRecorder records ether attached to confirmed writes.
type ValueRecorder interface {
	RecordValue(method string, amount eth.Amount)
}

type nopPublisher struct{}

func (nopPublisher) BroadcastTx(streaming.EventType, streaming.TxEvent) {}
func (nopPublisher) BroadcastList(string, int, bool)                    {}
func (nopPublisher) BroadcastError(error, string)                       {}

type nopValues struct{}

func (nopValues) RecordValue(string, eth.Amount) {}

type (
	MatchesView = pager.View[struct{}, betting.Match]
	PostsView   = pager.View[uint64, betting.PlayerPost]
	MyBetsView  = pager.View[struct{}, betting.PlayerPost]
	HostedView  = pager.View[struct{}, betting.BankerPost]
)

// AccountInfo is the connected wallet as the UI shows it.
type AccountInfo struct {
	Address common.Address `json:"address"`
	IsAdmin bool           `json:"isAdmin"`
}

// Board holds the UI's list state over one gateway.
type Board struct {
	gw       Gateway
	pub      Publisher
	values   ValueRecorder
	observer pager.Observer
	logger   *zap.Logger

	matches *pager.Cursor[struct{}, betting.Match]
	posts   *pager.Cursor[uint64, betting.PlayerPost]
	myBets  *pager.Cursor[struct{}, betting.PlayerPost]
	hosted  *pager.Cursor[struct{}, betting.BankerPost]
}

// Option configures the board.
type Option func(*Board)

// WithPublisher sets where events go.
func WithPublisher(p Publisher) Option {
	return func(b *Board) {
		b.pub = p
	}
}

// WithObserver sets the cursor observer.
func WithObserver(o pager.Observer) Option {
	return func(b *Board) {
		b.observer = o
	}
}

// WithValueRecorder sets the recorder for attached ether.
func WithValueRecorder(v ValueRecorder) Option {
	return func(b *Board) {
		b.values = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		b.logger = l
	}
}

// New creates a board reading pageSize items per contract page.
func New(gw Gateway, pageSize uint64, opts ...Option) *Board {
	b := &Board{
		gw:     gw,
		pub:    nopPublisher{},
		values: nopValues{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.matches = pager.New(ListMatches, struct{}{},
		func(ctx context.Context, _ struct{}, page uint64) (betting.Page[betting.Match], error) {
			return gw.ActiveMatches(ctx, pageSize, page)
		})
	b.posts = pager.New(ListPosts, uint64(0),
		func(ctx context.Context, matchID uint64, page uint64) (betting.Page[betting.PlayerPost], error) {
			return gw.PostsByMatch(ctx, matchID, pageSize, page)
		})
	b.myBets = pager.New(ListMyBets, struct{}{},
		func(ctx context.Context, _ struct{}, page uint64) (betting.Page[betting.PlayerPost], error) {
			return gw.MyBetPosts(ctx, pageSize, page)
		})
	b.hosted = pager.New(ListHosted, struct{}{},
		func(ctx context.Context, _ struct{}, page uint64) (betting.Page[betting.BankerPost], error) {
			return gw.HostedPosts(ctx, pageSize, page)
		}).DedupBy(func(p betting.BankerPost) uint64 { return p.ID })

	if b.observer != nil {
		b.matches.ObserveWith(b.observer)
		b.posts.ObserveWith(b.observer)
		b.myBets.ObserveWith(b.observer)
		b.hosted.ObserveWith(b.observer)
	}
	return b
}

// ==================== Reads ====================

// Account returns the connected account and whether it owns the contract.
func (b *Board) Account(ctx context.Context) (AccountInfo, error) {
	addr, err := b.gw.Account(ctx)
	if err != nil {
		return AccountInfo{}, err
	}
	admin, err := b.gw.IsAdmin(ctx, addr)
	if err != nil {
		return AccountInfo{Address: addr}, err
	}
	return AccountInfo{Address: addr, IsAdmin: admin}, nil
}

// Matches reloads the active matches from the first page.
func (b *Board) Matches(ctx context.Context, team string) (MatchesView, error) {
	v, err := load(ctx, b, b.matches, struct{}{}, false)
	return filterTeam(v, team), err
}

// MoreMatches appends the next page of active matches.
func (b *Board) MoreMatches(ctx context.Context, team string) (MatchesView, error) {
	v, err := load(ctx, b, b.matches, struct{}{}, true)
	return filterTeam(v, team), err
}

// SelectMatch points the posts list at matchID. Posts of the previous match
// are dropped immediately and any in-flight load for it is discarded.
func (b *Board) SelectMatch(matchID uint64) {
	b.posts.SetFilter(matchID)
}

// PostsForMatch selects matchID and reloads its posts from the first page.
func (b *Board) PostsForMatch(ctx context.Context, matchID uint64) (PostsView, error) {
	b.SelectMatch(matchID)
	return load(ctx, b, b.posts, matchID, false)
}

// MorePosts appends the next page of matchID's posts.
func (b *Board) MorePosts(ctx context.Context, matchID uint64) (PostsView, error) {
	b.SelectMatch(matchID)
	return load(ctx, b, b.posts, matchID, true)
}

// MyBets loads the posts the account has bet in.
func (b *Board) MyBets(ctx context.Context, more bool) (MyBetsView, error) {
	return load(ctx, b, b.myBets, struct{}{}, more)
}

// Hosted loads the posts the account banks, de-duplicated by post id.
func (b *Board) Hosted(ctx context.Context, more bool) (HostedView, error) {
	return load(ctx, b, b.hosted, struct{}{}, more)
}

// UserStake returns user's stake in a post.
func (b *Board) UserStake(ctx context.Context, postID uint64, user common.Address) (eth.Amount, error) {
	return b.gw.UserStake(ctx, postID, user)
}

// load fetches a page of c for the caller that asked for filter want. A
// superseded load answers with an empty view of want, never with the items
// of whatever filter replaced it.
func load[F comparable, T any](ctx context.Context, b *Board, c *pager.Cursor[F, T], want F, more bool) (pager.View[F, T], error) {
	var err error
	if more {
		err = c.Next(ctx)
	} else {
		err = c.Refresh(ctx)
	}

	v := c.View()
	if v.Filter != want {
		err = pager.ErrStale
	}
	switch {
	case err == nil:
		b.pub.BroadcastList(c.Name(), len(v.Items), v.HasMore)
	case errors.Is(err, pager.ErrStale):
		b.logger.Debug("stale page discarded", zap.String("list", c.Name()))
		return pager.View[F, T]{Filter: want, Page: pager.FirstPage, Items: []T{}, State: pager.StateIdle}, err
	default:
		b.logger.Warn("list load failed", zap.String("list", c.Name()), zap.Error(err))
		b.pub.BroadcastError(err, c.Name())
	}
	return v, err
}

func filterTeam(v MatchesView, team string) MatchesView {
	if team == "" {
		return v
	}
	kept := v.Items[:0]
	for _, m := range v.Items {
		if betting.MatchesTeam(m, team) {
			kept = append(kept, m)
		}
	}
	v.Items = kept
	return v
}

// ==================== Writes ====================

// CreateMatch registers a fixture. Only the contract owner may call it.
func (b *Board) CreateMatch(ctx context.Context, home, away string) (*gateway.TxResult, error) {
	if err := b.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return b.write(ctx, "create_match", 0, "", func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.CreateMatch(ctx, home, away)
	}, b.refetchMatches)
}

// FinishMatch settles a match. Only the contract owner may call it.
func (b *Board) FinishMatch(ctx context.Context, matchID, homeScore, awayScore uint64) (*gateway.TxResult, error) {
	if err := b.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return b.write(ctx, "finish_match", 0, "", func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.FinishMatch(ctx, matchID, homeScore, awayScore)
	}, b.refetchMatches, b.refetchPosts, b.refetchMyBets, b.refetchHosted)
}

// CreateBettingPost opens a post on matchID funded with stake.
func (b *Board) CreateBettingPost(ctx context.Context, matchID uint64, homeHandicap, awayHandicap int64, stake string) (*gateway.TxResult, error) {
	return b.write(ctx, "create_post", 0, stake, func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.CreateBettingPost(ctx, matchID, homeHandicap, awayHandicap, stake)
	}, b.refetchPosts, b.refetchHosted)
}

// ContributeStake adds to a post's banker pool.
func (b *Board) ContributeStake(ctx context.Context, postID uint64, amount string) (*gateway.TxResult, error) {
	return b.write(ctx, "contribute_stake", postID, amount, func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.ContributeStake(ctx, postID, amount)
	}, b.refetchPosts, b.refetchHosted)
}

// PlaceBet bets amount on side of a post.
func (b *Board) PlaceBet(ctx context.Context, postID uint64, side betting.Side, amount string) (*gateway.TxResult, error) {
	return b.write(ctx, "place_bet", postID, amount, func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.PlaceBet(ctx, postID, side, amount)
	}, b.refetchPosts, b.refetchMyBets)
}

// ClaimReward claims role's reward on a post. A post already loaded as
// finished with nothing left to claim is refused without a transaction.
func (b *Board) ClaimReward(ctx context.Context, postID uint64, role betting.Role) (*gateway.TxResult, error) {
	if p, ok := b.loadedPost(postID, role); ok && p.IsFinished && !p.Claimable(role) {
		return nil, fmt.Errorf("%w: post %d has no %s reward to claim", betting.ErrInvalidInput, postID, role)
	}

	refetch := b.refetchMyBets
	if role == betting.RoleBanker {
		refetch = b.refetchHosted
	}
	return b.write(ctx, "claim_"+role.String(), postID, "", func(ctx context.Context) (*gateway.TxResult, error) {
		return b.gw.ClaimReward(ctx, postID, role)
	}, refetch, b.refetchPosts)
}

// loadedPost finds postID in the list role claims from.
func (b *Board) loadedPost(postID uint64, role betting.Role) (betting.Post, bool) {
	if role == betting.RoleBanker {
		for _, p := range b.hosted.View().Items {
			if p.ID == postID {
				return p.Post, true
			}
		}
		return betting.Post{}, false
	}
	for _, p := range b.myBets.View().Items {
		if p.ID == postID {
			return p.Post, true
		}
	}
	return betting.Post{}, false
}

func (b *Board) requireAdmin(ctx context.Context) error {
	info, err := b.Account(ctx)
	if err != nil {
		return err
	}
	if !info.IsAdmin {
		return fmt.Errorf("%w: %s", betting.ErrNotAdmin, info.Address.Hex())
	}
	return nil
}

// write runs one transaction and then re-fetches the affected lists whether
// or not it succeeded.
func (b *Board) write(ctx context.Context, action string, postID uint64, value string,
	call func(context.Context) (*gateway.TxResult, error), refetch ...func(context.Context)) (*gateway.TxResult, error) {

	ev := streaming.TxEvent{ID: uuid.NewString(), Action: action, PostID: postID}
	b.pub.BroadcastTx(streaming.EventTypeTxSubmitted, ev)

	res, err := call(ctx)
	if res != nil {
		ev.Hash = res.Hash.Hex()
	}

	if err != nil {
		ev.Error = err.Error()
		b.pub.BroadcastTx(streaming.EventTypeTxFailed, ev)
		b.logger.Warn("write failed",
			zap.String("id", ev.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	} else {
		b.pub.BroadcastTx(streaming.EventTypeTxConfirmed, ev)
		if value != "" {
			if amount, perr := eth.ParseAmount(value); perr == nil {
				b.values.RecordValue(action, amount)
			}
		}
	}

	for _, fn := range refetch {
		fn(ctx)
	}
	return res, err
}

func (b *Board) refetchMatches(ctx context.Context) { refetch(ctx, b, b.matches) }
func (b *Board) refetchPosts(ctx context.Context)   { refetch(ctx, b, b.posts) }
func (b *Board) refetchMyBets(ctx context.Context)  { refetch(ctx, b, b.myBets) }
func (b *Board) refetchHosted(ctx context.Context)  { refetch(ctx, b, b.hosted) }

// refetch reloads a list the UI has already opened.
func refetch[F comparable, T any](ctx context.Context, b *Board, c *pager.Cursor[F, T]) {
	if v := c.View(); v.State == pager.StateIdle && !v.Loaded {
		return
	}
	_, _ = load(ctx, b, c, c.Filter(), false)
}
