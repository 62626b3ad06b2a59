package eventstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/suggest/internal/domain/model"
)

// recordScript appends one event atomically. It is a no-op when the event id
// was already recorded.
//
// KEYS: event ids set, sequence counter, suggestion zset, known ids set.
// ARGV: event id, type, ts nanos, score, suggestion id.
var recordScript = goredis.NewScript(`
local added = redis.call('SADD', KEYS[1], ARGV[1])
if added == 0 then
	return 0
end
local seq = redis.call('INCR', KEYS[2])
local member = string.format('%020d', seq) .. '|' .. ARGV[1] .. '|' .. ARGV[2] .. '|' .. ARGV[3]
redis.call('ZADD', KEYS[3], ARGV[4], member)
redis.call('SADD', KEYS[4], ARGV[5])
return 1
`)

// pruneScript removes stale members of one suggestion and forgets the
// suggestion once its set is empty. The emptiness check and the removal from
// the known ids set happen in one step so a concurrent Record cannot be lost.
//
// KEYS: suggestion zset, event ids set, known ids set.
// ARGV: suggestion id, member count m, m members, then the stale event ids.
var pruneScript = goredis.NewScript(`
local m = tonumber(ARGV[2])
local removed = 0
for i = 3, 2 + m do
	removed = removed + redis.call('ZREM', KEYS[1], ARGV[i])
end
for i = 3 + m, #ARGV do
	redis.call('SREM', KEYS[2], ARGV[i])
end
if redis.call('ZCARD', KEYS[1]) == 0 then
	redis.call('SREM', KEYS[3], ARGV[1])
end
return removed
`)

// RedisStore keeps one sorted set per suggestion. Scores are unix
// microseconds; members carry the exact nanosecond timestamp.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(rdb *goredis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr, which may be a host:port or a redis:// URL,
// and verifies the connection.
func DialRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	opts := &goredis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, unavailable("ping", err)
	}
	return NewRedisStore(rdb, prefix), nil
}

func (s *RedisStore) eventsKey(id string) string { return s.prefix + "events:" + id }
func (s *RedisStore) idsKey() string             { return s.prefix + "suggestions" }
func (s *RedisStore) eventIDsKey() string        { return s.prefix + "event_ids" }
func (s *RedisStore) seqKey() string             { return s.prefix + "seq" }

// Record implements Store.Record.
func (s *RedisStore) Record(ctx context.Context, e model.Event) error {
	e = prepare(e)
	keys := []string{s.eventIDsKey(), s.seqKey(), s.eventsKey(e.SuggestionID), s.idsKey()}
	err := recordScript.Run(ctx, s.rdb, keys,
		e.ID, string(e.Type), e.TS.UnixNano(), e.TS.UnixMicro(), e.SuggestionID,
	).Err()
	if err != nil {
		return unavailable("record", err)
	}
	return nil
}

// Query implements Store.Query. Members with unknown types are skipped.
func (s *RedisStore) Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error) {
	suggestionID = model.NormalizeIdentifier(suggestionID)
	rng := &goredis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !w.From.IsZero() {
		rng.Min = strconv.FormatInt(w.From.UnixMicro(), 10)
	}
	if !w.To.IsZero() {
		rng.Max = strconv.FormatInt(w.To.UnixMicro(), 10)
	}

	members, err := s.rdb.ZRangeByScore(ctx, s.eventsKey(suggestionID), rng).Result()
	if err != nil {
		return nil, unavailable("query", err)
	}

	out := make([]model.Event, 0, len(members))
	for _, m := range members {
		e, ok := parseMember(suggestionID, m)
		if !ok || !w.Contains(e.TS) {
			continue
		}
		out = append(out, e)
	}
	// Members are in sequence order within a microsecond.
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	return out, nil
}

// Prune implements Store.Prune.
func (s *RedisStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.rdb.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return 0, unavailable("prune", err)
	}

	removed := 0
	cutoffMicro := cutoff.UnixMicro()
	maxScore := strconv.FormatInt(cutoffMicro, 10)
	for _, id := range ids {
		key := s.eventsKey(id)
		members, err := s.rdb.ZRangeByScoreWithScores(ctx, key, &goredis.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
		if err != nil {
			return removed, unavailable("prune", err)
		}

		var stale []any
		var staleIDs []any
		for _, z := range members {
			m, _ := z.Member.(string)
			eventID, _, nanos, ok := splitMember(m)
			if ok {
				if !time.Unix(0, nanos).Before(cutoff) {
					continue
				}
				staleIDs = append(staleIDs, eventID)
			} else if int64(z.Score) >= cutoffMicro {
				// Only the score is trustworthy; the cutoff microsecond may
				// still hold events at or after the cutoff.
				continue
			}
			stale = append(stale, m)
		}
		if len(stale) == 0 {
			continue
		}

		keys := []string{key, s.eventIDsKey(), s.idsKey()}
		args := make([]any, 0, 2+len(stale)+len(staleIDs))
		args = append(args, id, len(stale))
		args = append(args, stale...)
		args = append(args, staleIDs...)
		n, err := pruneScript.Run(ctx, s.rdb, keys, args...).Int()
		if err != nil {
			return removed, unavailable("prune", err)
		}
		removed += n
	}
	return removed, nil
}

// Count implements Store.Count.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	ids, err := s.rdb.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return 0, unavailable("count", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*goredis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.ZCard(ctx, s.eventsKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return 0, unavailable("count", err)
	}
	total := 0
	for _, c := range cmds {
		total += int(c.Val())
	}
	return total, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// parseMember decodes "seq|eventID|type|tsNanos". The event id may itself
// contain separators.
func parseMember(suggestionID, m string) (model.Event, bool) {
	eventID, typ, nanos, ok := splitMember(m)
	if !ok {
		return model.Event{}, false
	}
	t, ok := model.ParseEventType(typ)
	if !ok {
		return model.Event{}, false
	}
	return model.Event{
		ID:           eventID,
		SuggestionID: suggestionID,
		Type:         t,
		TS:           time.Unix(0, nanos).UTC(),
	}, true
}

// splitMember breaks a member into its fields without judging the type, so
// the timestamp of a member with an unknown type is still usable.
func splitMember(m string) (eventID, typ string, nanos int64, ok bool) {
	_, rest, ok := strings.Cut(m, "|")
	if !ok {
		return "", "", 0, false
	}
	i := strings.LastIndex(rest, "|")
	if i < 0 {
		return "", "", 0, false
	}
	nanos, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return "", "", 0, false
	}
	rest = rest[:i]
	j := strings.LastIndex(rest, "|")
	if j < 0 {
		return "", "", 0, false
	}
	return rest[:j], rest[j+1:], nanos, true
}
