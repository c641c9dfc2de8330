// Package betting holds the client-side view-models of the handicap betting
// contract and the normalizer that builds them from positional ABI outputs.
package betting

import (
	"fmt"
	"strings"
	"time"

	"github.com/phenomenon0/betpool/pkg/eth"
)

// Match is a fixture registered on-chain by the contract owner.
type Match struct {
	ID        uint64    `json:"id"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Title renders "Home vs Away".
func (m Match) Title() string {
	return m.Home + " vs " + m.Away
}

// BettingSide is a home/away split of bet amounts.
type BettingSide struct {
	HomeAmount    eth.Amount `json:"homeAmount"`
	AwayAmount    eth.Amount `json:"awayAmount"`
	IsClaimed     bool       `json:"isClaimed"`
	IsInitialized bool       `json:"isInitialized"`
}

// Total returns home + away.
func (s BettingSide) Total() eth.Amount {
	return s.HomeAmount.Add(s.AwayAmount)
}

// Post is a betting opportunity on a match with its own banker pool.
// Monetary fields are wei-backed; handicaps are plain integers.
type Post struct {
	ID                  uint64      `json:"id"`
	MatchID             uint64      `json:"matchId"`
	HomeHandicap        int64       `json:"homeHandicapScore"`
	AwayHandicap        int64       `json:"awayHandicapScore"`
	TotalStake          eth.Amount  `json:"totalStake"`
	MyStake             eth.Amount  `json:"myStake"`
	TotalBet            BettingSide `json:"totalBet"`
	MyBet               BettingSide `json:"myBet"`
	IsInitialized       bool        `json:"isInitialized"`
	IsFinished          bool        `json:"isFinished"`
	IsAlreadyMadeABet   bool        `json:"isAlreadyMadeABet"`
	PlayerRewardClaimed bool        `json:"playerRewardClaimed"`
	BankerRewardClaimed bool        `json:"bankerRewardClaimed"`
	Home                string      `json:"home"`
	Away                string      `json:"away"`
}

// Side is the team a bet backs.
type Side int

const (
	SideHome Side = iota
	SideAway
)

// ParseSide accepts "home" or "away".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return SideHome, nil
	case "away":
		return SideAway, nil
	default:
		return SideHome, fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) String() string {
	if s == SideAway {
		return "away"
	}
	return "home"
}

// Role selects whose claim flag decides a post's status.
type Role int

const (
	RolePlayer Role = iota
	RoleBanker
)

// ParseRole accepts "player" or "banker".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player", "":
		return RolePlayer, nil
	case "banker":
		return RoleBanker, nil
	default:
		return RolePlayer, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	if r == RoleBanker {
		return "banker"
	}
	return "player"
}

// Status is the post state shown to a given role.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusClaimed    Status = "CLAIMED"
	StatusNotClaimed Status = "NOT_CLAIMED"
)

// StatusFor derives the post status from role's perspective.
func (p Post) StatusFor(role Role) Status {
	if p.IsInitialized && !p.IsFinished {
		return StatusActive
	}

	claimed := p.PlayerRewardClaimed
	if role == RoleBanker {
		claimed = p.BankerRewardClaimed
	}
	if p.IsInitialized && p.IsFinished && claimed {
		return StatusClaimed
	}
	return StatusNotClaimed
}

// Claimable reports whether role can still claim a reward on this post.
func (p Post) Claimable(role Role) bool {
	return p.IsInitialized && p.IsFinished && p.StatusFor(role) == StatusNotClaimed
}

// PlayerPost is a post as returned by the player-facing queries
// (posts by match, posts I bet in).
type PlayerPost struct {
	Post
	Status Status `json:"status"`
}

// BankerPost is a post as returned by the hosted-posts query.
type BankerPost struct {
	Post
	Status Status `json:"status"`
}

// Page is the contract's paginated envelope. There is no total count;
// HasMore is taken verbatim from the contract.
type Page[T any] struct {
	Items   []T  `json:"data"`
	Success bool `json:"success"`
	HasMore bool `json:"haveMorePageAvailable"`
}
