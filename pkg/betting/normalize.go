package betting

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/phenomenon0/betpool/pkg/eth"
)

// Tuple flattens an ABI-decoded tuple into its positional slots.
// go-ethereum decodes tuples into generated structs whose field order
// follows the ABI; a []any is returned unchanged.
func Tuple(v any) ([]any, bool) {
	if slots, ok := v.([]any); ok {
		return slots, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	slots := make([]any, rv.NumField())
	for i := range slots {
		if !rv.Type().Field(i).IsExported() {
			return nil, false
		}
		slots[i] = rv.Field(i).Interface()
	}
	return slots, true
}

// NormalizeMatch builds a Match from a raw match tuple. A Match is
// returned unchanged.
func NormalizeMatch(v any) (Match, error) {
	if m, ok := v.(Match); ok {
		return m, nil
	}

	l := MatchLayoutV1
	d := newDecoder("match", l.Version, v, l.Width)
	m := Match{
		ID:        d.uint(l.ID, "id"),
		Home:      d.string(l.Home, "home"),
		Away:      d.string(l.Away, "away"),
		IsActive:  d.bool(l.IsActive, "isActive"),
		CreatedAt: d.time(l.CreatedAt, "createdAt"),
	}
	if d.err != nil {
		return Match{}, d.err
	}
	return m, nil
}

// NormalizePost builds a Post from a raw post tuple using layout l.
// Already-normalized posts are returned unchanged, so monetary fields are
// never scaled twice.
func NormalizePost(v any, l PostLayout) (Post, error) {
	switch p := v.(type) {
	case Post:
		return p, nil
	case PlayerPost:
		return p.Post, nil
	case BankerPost:
		return p.Post, nil
	}

	d := newDecoder("post", l.Version, v, l.Width)
	p := Post{
		ID:                  d.uint(l.ID, "id"),
		MatchID:             d.uint(l.MatchID, "matchId"),
		HomeHandicap:        d.int(l.HomeHandicap, "homeHandicapScore"),
		AwayHandicap:        d.int(l.AwayHandicap, "awayHandicapScore"),
		TotalStake:          d.amount(l.TotalStake, "totalStake"),
		MyStake:             d.amount(l.MyStake, "myStake"),
		TotalBet:            d.side(l.TotalBet, "totalBet", l.Side),
		MyBet:               d.side(l.MyBet, "myBet", l.Side),
		IsInitialized:       d.bool(l.IsInitialized, "isInitialized"),
		IsFinished:          d.bool(l.IsFinished, "isFinished"),
		IsAlreadyMadeABet:   d.bool(l.IsAlreadyMadeABet, "isAlreadyMadeABet"),
		PlayerRewardClaimed: d.bool(l.PlayerRewardClaimed, "playerRewardClaimed"),
		BankerRewardClaimed: d.bool(l.BankerRewardClaimed, "bankerRewardClaimed"),
		Home:                d.string(l.Home, "home"),
		Away:                d.string(l.Away, "away"),
	}
	if d.err != nil {
		return Post{}, d.err
	}
	return p, nil
}

// NormalizePlayerPost builds a post with its status seen by a player.
func NormalizePlayerPost(v any) (PlayerPost, error) {
	if p, ok := v.(PlayerPost); ok {
		return p, nil
	}
	p, err := NormalizePost(v, PlayerPostLayoutV1)
	if err != nil {
		return PlayerPost{}, err
	}
	return PlayerPost{Post: p, Status: p.StatusFor(RolePlayer)}, nil
}

// NormalizeBankerPost builds a post with its status seen by the banker.
func NormalizeBankerPost(v any) (BankerPost, error) {
	if p, ok := v.(BankerPost); ok {
		return p, nil
	}
	p, err := NormalizePost(v, BankerPostLayoutV1)
	if err != nil {
		return BankerPost{}, err
	}
	return BankerPost{Post: p, Status: p.StatusFor(RoleBanker)}, nil
}

// DecodeMatchPage decodes the outputs of getActiveMatches.
func DecodeMatchPage(out []any) (Page[Match], error) {
	return decodePage("match", out, NormalizeMatch)
}

// DecodePlayerPostPage decodes the outputs of the player post queries.
func DecodePlayerPostPage(out []any) (Page[PlayerPost], error) {
	return decodePage("player post", out, NormalizePlayerPost)
}

// DecodeBankerPostPage decodes the outputs of getMyBettingPostsAsBanker.
func DecodeBankerPostPage(out []any) (Page[BankerPost], error) {
	return decodePage("banker post", out, NormalizeBankerPost)
}

// DecodeAmount decodes a single uint256 output as an Amount.
func DecodeAmount(kind string, out []any) (eth.Amount, error) {
	d := newDecoder(kind, LayoutVersion, out, 1)
	a := d.amount(0, "amount")
	if d.err != nil {
		return eth.Amount{}, d.err
	}
	return a, nil
}

func decodePage[T any](kind string, out []any, item func(any) (T, error)) (Page[T], error) {
	l := PageLayoutV1
	d := newDecoder(kind+" page", l.Version, out, l.Width)
	if d.err != nil {
		return Page[T]{}, d.err
	}

	data := reflect.ValueOf(d.slots[l.Data])
	if data.Kind() != reflect.Slice && data.Kind() != reflect.Array {
		d.fail(l.Data, "data", "array of tuples")
		return Page[T]{}, d.err
	}

	items := make([]T, 0, data.Len())
	for i := 0; i < data.Len(); i++ {
		it, err := item(data.Index(i).Interface())
		if err != nil {
			return Page[T]{}, fmt.Errorf("%s page item %d: %w", kind, i, err)
		}
		items = append(items, it)
	}

	page := Page[T]{
		Items:   items,
		Success: d.bool(l.Success, "success"),
		HasMore: d.bool(l.HasMore, "haveMorePageAvailable"),
	}
	if d.err != nil {
		return Page[T]{}, d.err
	}
	return page, nil
}

// decoder reads typed slots and keeps the first failure.
type decoder struct {
	kind    string
	version string
	slots   []any
	err     error
}

func newDecoder(kind, version string, v any, width int) *decoder {
	d := &decoder{kind: kind, version: version}

	slots, ok := Tuple(v)
	switch {
	case !ok:
		d.err = &ShapeError{Kind: kind, Version: version, Index: -1,
			Want: fmt.Sprintf("%d-slot tuple", width), Got: fmt.Sprintf("%T", v)}
	case len(slots) != width:
		d.err = &ShapeError{Kind: kind, Version: version, Index: -1,
			Want: fmt.Sprintf("%d slots", width), Got: fmt.Sprintf("%d slots", len(slots))}
	default:
		d.slots = slots
	}
	return d
}

func (d *decoder) fail(i int, field, want string) {
	if d.err != nil {
		return
	}
	d.err = &ShapeError{
		Kind:    d.kind,
		Version: d.version,
		Field:   field,
		Index:   i,
		Want:    want,
		Got:     fmt.Sprintf("%T", d.slots[i]),
	}
}

func (d *decoder) uint(i int, field string) uint64 {
	if d.err != nil {
		return 0
	}
	n, ok := toBig(d.slots[i])
	if !ok || n.Sign() < 0 || !n.IsUint64() {
		d.fail(i, field, "uint64")
		return 0
	}
	return n.Uint64()
}

func (d *decoder) int(i int, field string) int64 {
	if d.err != nil {
		return 0
	}
	n, ok := toBig(d.slots[i])
	if !ok || !n.IsInt64() {
		d.fail(i, field, "int64")
		return 0
	}
	return n.Int64()
}

func (d *decoder) amount(i int, field string) eth.Amount {
	if d.err != nil {
		return eth.Amount{}
	}
	n, ok := toBig(d.slots[i])
	if !ok || n.Sign() < 0 {
		d.fail(i, field, "uint256 wei")
		return eth.Amount{}
	}
	return eth.NewAmount(n)
}

func (d *decoder) bool(i int, field string) bool {
	if d.err != nil {
		return false
	}
	b, ok := d.slots[i].(bool)
	if !ok {
		d.fail(i, field, "bool")
	}
	return b
}

func (d *decoder) string(i int, field string) string {
	if d.err != nil {
		return ""
	}
	s, ok := d.slots[i].(string)
	if !ok {
		d.fail(i, field, "string")
	}
	return s
}

func (d *decoder) time(i int, field string) time.Time {
	sec := d.uint(i, field)
	if d.err != nil {
		return time.Time{}
	}
	if sec > math.MaxInt64 {
		d.fail(i, field, "unix seconds")
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

func (d *decoder) side(i int, field string, l SideLayout) BettingSide {
	if d.err != nil {
		return BettingSide{}
	}
	sd := newDecoder(d.kind+"."+field, l.Version, d.slots[i], l.Width)
	s := BettingSide{
		HomeAmount:    sd.amount(l.HomeAmount, "homeAmount"),
		AwayAmount:    sd.amount(l.AwayAmount, "awayAmount"),
		IsClaimed:     sd.bool(l.IsClaimed, "isClaimed"),
		IsInitialized: sd.bool(l.IsInitialized, "isInitialized"),
	}
	if sd.err != nil {
		d.err = sd.err
		return BettingSide{}
	}
	return s
}

func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		return n, n != nil
	case big.Int:
		return &n, true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case int:
		return big.NewInt(int64(n)), true
	default:
		return nil, false
	}
}
