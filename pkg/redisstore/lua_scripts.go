package redisstore

import "github.com/redis/go-redis/v9"

// releaseInflightScript deletes the lease only when it still carries the
// caller's token, so an expired lease taken over by another engine is left alone.
var releaseInflightScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]

if redis.call("GET", key) == token then
	return redis.call("DEL", key)
end

return 0
`)

// updateRecordScript overwrites a record only while its id is still indexed,
// so a record deleted during a check run is not brought back.
// KEYS[1] record key, KEYS[2] index set, ARGV[1] id, ARGV[2] data.
var updateRecordScript = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[2], ARGV[1]) == 0 then
	return 0
end

redis.call("SET", KEYS[1], ARGV[2])
return 1
`)

// createRecordScript indexes and writes a record unless the id is already taken.
var createRecordScript = redis.NewScript(`
if redis.call("SADD", KEYS[2], ARGV[1]) == 0 then
	return 0
end

redis.call("SET", KEYS[1], ARGV[2])
return 1
`)
