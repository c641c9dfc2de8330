package betting

// Layout tables map tuple positions to fields. They mirror the contract ABI
// of a deployed version exactly; a contract upgrade gets a new table.

// MatchLayout positions for a match tuple.
type MatchLayout struct {
	Version   string
	Width     int
	ID        int
	Home      int
	Away      int
	IsActive  int
	CreatedAt int
}

// SideLayout positions for the nested home/away bet split.
type SideLayout struct {
	Version       string
	Width         int
	HomeAmount    int
	AwayAmount    int
	IsClaimed     int
	IsInitialized int
}

// PostLayout positions for a betting-post tuple.
type PostLayout struct {
	Version             string
	Width               int
	Side                SideLayout
	ID                  int
	MatchID             int
	HomeHandicap        int
	AwayHandicap        int
	TotalStake          int
	MyStake             int
	TotalBet            int
	MyBet               int
	IsInitialized       int
	IsFinished          int
	IsAlreadyMadeABet   int
	PlayerRewardClaimed int
	BankerRewardClaimed int
	Home                int
	Away                int
}

// PageLayout positions for the outputs of a paginated query.
type PageLayout struct {
	Version string
	Width   int
	Data    int
	Success int
	HasMore int
}

// LayoutVersion is the contract interface version the tables below describe.
const LayoutVersion = "v1"

var (
	MatchLayoutV1 = MatchLayout{
		Version:   LayoutVersion,
		Width:     5,
		ID:        0,
		Home:      1,
		Away:      2,
		IsActive:  3,
		CreatedAt: 4,
	}

	SideLayoutV1 = SideLayout{
		Version:       LayoutVersion,
		Width:         4,
		HomeAmount:    0,
		AwayAmount:    1,
		IsClaimed:     2,
		IsInitialized: 3,
	}

	PlayerPostLayoutV1 = PostLayout{
		Version:             LayoutVersion,
		Width:               15,
		Side:                SideLayoutV1,
		ID:                  0,
		MatchID:             1,
		HomeHandicap:        2,
		AwayHandicap:        3,
		TotalStake:          4,
		MyStake:             5,
		TotalBet:            6,
		MyBet:               7,
		IsInitialized:       8,
		IsFinished:          9,
		IsAlreadyMadeABet:   10,
		PlayerRewardClaimed: 11,
		BankerRewardClaimed: 12,
		Home:                13,
		Away:                14,
	}

	// BankerPostLayoutV1 is the hosted-posts tuple. At v1 the contract
	// returns the same positions as the player queries.
	BankerPostLayoutV1 = PostLayout{
		Version:             LayoutVersion,
		Width:               15,
		Side:                SideLayoutV1,
		ID:                  0,
		MatchID:             1,
		HomeHandicap:        2,
		AwayHandicap:        3,
		TotalStake:          4,
		MyStake:             5,
		TotalBet:            6,
		MyBet:               7,
		IsInitialized:       8,
		IsFinished:          9,
		IsAlreadyMadeABet:   10,
		PlayerRewardClaimed: 11,
		BankerRewardClaimed: 12,
		Home:                13,
		Away:                14,
	}

	PageLayoutV1 = PageLayout{
		Version: LayoutVersion,
		Width:   3,
		Data:    0,
		Success: 1,
		HasMore: 2,
	}
)
