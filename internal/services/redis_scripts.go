package services

import "github.com/redis/go-redis/v9"

// Wallets are hashes of integer cents: balance, locked, total_wagered,
// total_won and version. Every script that touches a wallet bumps version
// and replies with those five fields in that order.

const ensureWalletLua = `
local function ensure_wallet(key, starting)
	if redis.call("EXISTS", key) == 0 then
		redis.call("HSET", key, "balance", starting, "locked", "0", "total_wagered", "0", "total_won", "0", "version", "0")
	end
end

local function wallet_reply(key)
	return redis.call("HMGET", key, "balance", "locked", "total_wagered", "total_won", "version")
end
`

// KEYS[1] wallet
// ARGV[1] starting balance
var ensureWalletScript = redis.NewScript(ensureWalletLua + `
ensure_wallet(KEYS[1], ARGV[1])
return wallet_reply(KEYS[1])
`)

// KEYS[1] wallet
// ARGV[1] delta, ARGV[2] expected version or "", ARGV[3] starting balance
var applyDeltaScript = redis.NewScript(ensureWalletLua + `
ensure_wallet(KEYS[1], ARGV[3])

if ARGV[2] ~= "" and redis.call("HGET", KEYS[1], "version") ~= ARGV[2] then
	return redis.error_reply("VERSION_CONFLICT")
end

local balance = tonumber(redis.call("HGET", KEYS[1], "balance"))
if balance + tonumber(ARGV[1]) < 0 then
	return redis.error_reply("INSUFFICIENT_BALANCE")
end

redis.call("HINCRBY", KEYS[1], "balance", ARGV[1])
redis.call("HINCRBY", KEYS[1], "version", 1)
return wallet_reply(KEYS[1])
`)

// Debits the stake, locks it and opens a reservation, optionally creating the
// game session that will settle it.
//
// KEYS[1] wallet, KEYS[2] reservation, KEYS[3] open reservations
// KEYS[4] session, KEYS[5] user active sessions (only with a session)
// ARGV[1] amount, ARGV[2] starting balance, ARGV[3] user id, ARGV[4] game type,
// ARGV[5] created at (unix ms), ARGV[6] open member, ARGV[7] pending bet json or "",
// ARGV[8] pending payout, ARGV[9] session id or "", ARGV[10] session json, ARGV[11] session ttl
var reserveScript = redis.NewScript(ensureWalletLua + `
if redis.call("EXISTS", KEYS[2]) == 1 then
	return redis.error_reply("DUPLICATE_BET")
end
if ARGV[9] ~= "" and redis.call("EXISTS", KEYS[4]) == 1 then
	return redis.error_reply("DUPLICATE_SESSION")
end

ensure_wallet(KEYS[1], ARGV[2])

local balance = tonumber(redis.call("HGET", KEYS[1], "balance"))
if balance < tonumber(ARGV[1]) then
	return redis.error_reply("INSUFFICIENT_BALANCE")
end

redis.call("HINCRBY", KEYS[1], "balance", "-" .. ARGV[1])
redis.call("HINCRBY", KEYS[1], "locked", ARGV[1])
redis.call("HINCRBY", KEYS[1], "total_wagered", ARGV[1])
redis.call("HINCRBY", KEYS[1], "version", 1)

redis.call("HSET", KEYS[2],
	"user_id", ARGV[3],
	"amount", ARGV[1],
	"game_type", ARGV[4],
	"status", "open",
	"created_at", ARGV[5],
	"session_id", ARGV[9],
	"pending_bet", ARGV[7],
	"pending_payout", ARGV[8])
redis.call("ZADD", KEYS[3], ARGV[5], ARGV[6])

if ARGV[9] ~= "" then
	redis.call("HSET", KEYS[4], "data", ARGV[10], "version", "1")
	redis.call("EXPIRE", KEYS[4], ARGV[11])
	redis.call("SADD", KEYS[5], ARGV[9])
	redis.call("EXPIRE", KEYS[5], ARGV[11])
end

return wallet_reply(KEYS[1])
`)

// Credits the payout, releases the lock, appends the bet and closes the
// reservation. With a session it also writes the terminal session state,
// provided the stored version still matches.
//
// KEYS[1] wallet, KEYS[2] reservation, KEYS[3] bet, KEYS[4] user bets,
// KEYS[5] open reservations, KEYS[6] session, KEYS[7] user active sessions
// ARGV[1] payout, ARGV[2] bet json, ARGV[3] score (unix ms), ARGV[4] bet ttl,
// ARGV[5] bet id, ARGV[6] open member, ARGV[7] max indexed bets,
// ARGV[8] session id or "", ARGV[9] session json, ARGV[10] expected version, ARGV[11] session ttl
var settleScript = redis.NewScript(ensureWalletLua + `
local status = redis.call("HGET", KEYS[2], "status")
if not status then
	return redis.error_reply("RESERVATION_NOT_FOUND")
end
if status ~= "open" then
	return redis.error_reply("ALREADY_SETTLED")
end

if ARGV[8] ~= "" then
	local current = redis.call("HGET", KEYS[6], "version")
	if not current then
		return redis.error_reply("SESSION_NOT_FOUND")
	end
	if current ~= ARGV[10] then
		return redis.error_reply("VERSION_CONFLICT")
	end
end

local amount = redis.call("HGET", KEYS[2], "amount")

redis.call("HINCRBY", KEYS[1], "locked", "-" .. amount)
redis.call("HINCRBY", KEYS[1], "balance", ARGV[1])
redis.call("HINCRBY", KEYS[1], "total_won", ARGV[1])
redis.call("HINCRBY", KEYS[1], "version", 1)

redis.call("SET", KEYS[3], ARGV[2], "EX", ARGV[4])
redis.call("ZADD", KEYS[4], ARGV[3], ARGV[5])
redis.call("ZREMRANGEBYRANK", KEYS[4], 0, -(tonumber(ARGV[7]) + 1))

redis.call("HSET", KEYS[2], "status", "settled", "pending_bet", "")
redis.call("EXPIRE", KEYS[2], ARGV[4])
redis.call("ZREM", KEYS[5], ARGV[6])

if ARGV[8] ~= "" then
	redis.call("HSET", KEYS[6], "data", ARGV[9], "version", tostring(tonumber(ARGV[10]) + 1))
	redis.call("EXPIRE", KEYS[6], ARGV[11])
	redis.call("SREM", KEYS[7], ARGV[8])
end

return wallet_reply(KEYS[1])
`)

// KEYS[1] session
// ARGV[1] session json, ARGV[2] expected version, ARGV[3] ttl
var updateSessionScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "version")
if not current then
	return redis.error_reply("SESSION_NOT_FOUND")
end
if current ~= ARGV[2] then
	return redis.error_reply("VERSION_CONFLICT")
end

local version = tonumber(ARGV[2]) + 1
redis.call("HSET", KEYS[1], "data", ARGV[1], "version", tostring(version))
redis.call("EXPIRE", KEYS[1], ARGV[3])
return version
`)
