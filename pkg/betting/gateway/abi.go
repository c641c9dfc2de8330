package gateway

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract method names.
const (
	methodOwner         = "owner"
	methodCreateMatch   = "createMatch"
	methodFinishMatch   = "finishMatch"
	methodCreatePost    = "createBettingPost"
	methodContribute    = "contributeToBettingPost"
	methodMakeBet       = "makeBet"
	methodPlayerClaim   = "playerClaimBettingReward"
	methodBankerClaim   = "bankerClaimReward"
	methodActiveMatches = "getActiveMatches"
	methodPostsByMatch  = "getBettingPostsByMatch"
	methodMyPosts       = "getMyBettingPosts"
	methodHostedPosts   = "getMyBettingPostsAsBanker"
	methodUserStake     = "getUserStake"
)

const matchComponents = `[
	{"name":"id","type":"uint256"},
	{"name":"home","type":"string"},
	{"name":"away","type":"string"},
	{"name":"isActive","type":"bool"},
	{"name":"createdAt","type":"uint256"}
]`

const sideComponents = `[
	{"name":"homeAmount","type":"uint256"},
	{"name":"awayAmount","type":"uint256"},
	{"name":"isClaimed","type":"bool"},
	{"name":"isInitialized","type":"bool"}
]`

const postComponents = `[
	{"name":"id","type":"uint256"},
	{"name":"matchId","type":"uint256"},
	{"name":"homeHandicapScore","type":"int256"},
	{"name":"awayHandicapScore","type":"int256"},
	{"name":"totalStake","type":"uint256"},
	{"name":"myStake","type":"uint256"},
	{"name":"totalBet","type":"tuple","components":` + sideComponents + `},
	{"name":"myBet","type":"tuple","components":` + sideComponents + `},
	{"name":"isInitialized","type":"bool"},
	{"name":"isFinished","type":"bool"},
	{"name":"isAlreadyMadeABet","type":"bool"},
	{"name":"playerRewardClaimed","type":"bool"},
	{"name":"bankerRewardClaimed","type":"bool"},
	{"name":"home","type":"string"},
	{"name":"away","type":"string"}
]`

const matchPageOutputs = `[
	{"name":"data","type":"tuple[]","components":` + matchComponents + `},
	{"name":"success","type":"bool"},
	{"name":"haveMorePageAvailable","type":"bool"}
]`

const postPageOutputs = `[
	{"name":"data","type":"tuple[]","components":` + postComponents + `},
	{"name":"success","type":"bool"},
	{"name":"haveMorePageAvailable","type":"bool"}
]`

const pageInputs = `[
	{"name":"pageSize","type":"uint256"},
	{"name":"page","type":"uint256"}
]`

// ContractABI is the v1 interface of the handicap betting contract.
const ContractABI = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]},

	{"type":"function","name":"createMatch","stateMutability":"nonpayable",
	 "inputs":[{"name":"home","type":"string"},{"name":"away","type":"string"}],"outputs":[]},

	{"type":"function","name":"finishMatch","stateMutability":"nonpayable",
	 "inputs":[{"name":"matchId","type":"uint256"},{"name":"homeScore","type":"uint256"},{"name":"awayScore","type":"uint256"}],
	 "outputs":[]},

	{"type":"function","name":"createBettingPost","stateMutability":"payable",
	 "inputs":[{"name":"matchId","type":"uint256"},{"name":"homeHandicapScore","type":"int256"},{"name":"awayHandicapScore","type":"int256"}],
	 "outputs":[]},

	{"type":"function","name":"contributeToBettingPost","stateMutability":"payable",
	 "inputs":[{"name":"postId","type":"uint256"}],"outputs":[]},

	{"type":"function","name":"makeBet","stateMutability":"payable",
	 "inputs":[{"name":"postId","type":"uint256"},{"name":"isHome","type":"bool"}],"outputs":[]},

	{"type":"function","name":"playerClaimBettingReward","stateMutability":"nonpayable",
	 "inputs":[{"name":"postId","type":"uint256"}],"outputs":[]},

	{"type":"function","name":"bankerClaimReward","stateMutability":"nonpayable",
	 "inputs":[{"name":"postId","type":"uint256"}],"outputs":[]},

	{"type":"function","name":"getActiveMatches","stateMutability":"view",
	 "inputs":` + pageInputs + `,"outputs":` + matchPageOutputs + `},

	{"type":"function","name":"getBettingPostsByMatch","stateMutability":"view",
	 "inputs":[{"name":"matchId","type":"uint256"},{"name":"pageSize","type":"uint256"},{"name":"page","type":"uint256"}],
	 "outputs":` + postPageOutputs + `},

	{"type":"function","name":"getMyBettingPosts","stateMutability":"view",
	 "inputs":` + pageInputs + `,"outputs":` + postPageOutputs + `},

	{"type":"function","name":"getMyBettingPostsAsBanker","stateMutability":"view",
	 "inputs":` + pageInputs + `,"outputs":` + postPageOutputs + `},

	{"type":"function","name":"getUserStake","stateMutability":"view",
	 "inputs":[{"name":"postId","type":"uint256"},{"name":"user","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// ParseABI parses ContractABI.
func ParseABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}
	return parsed, nil
}
